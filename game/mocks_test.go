package game

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"
)

// --- WebsocketConnection ---

type MockWebsocketConnection struct {
	mock.Mock
}

func (m *MockWebsocketConnection) Close() {
	m.Called()
}

func (m *MockWebsocketConnection) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockWebsocketConnection) Read() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockWebsocketConnection) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// --- RandomWordsGenerator ---

type MockRandomWordsGenerator struct {
	mock.Mock
}

func (m *MockRandomWordsGenerator) Generate(count int) []string {
	args := m.Called(count)
	return args.Get(0).([]string)
}

// --- PasscodeHasher ---

type MockPasscodeHasher struct {
	mock.Mock
}

func (m *MockPasscodeHasher) Hash(passcode string) (string, error) {
	args := m.Called(passcode)
	return args.String(0), args.Error(1)
}

func (m *MockPasscodeHasher) Compare(hash, passcode string) (bool, error) {
	args := m.Called(hash, passcode)
	return args.Bool(0), args.Error(1)
}

// --- InviteManager ---

type MockInviteManager struct {
	mock.Mock
}

func (m *MockInviteManager) Generate(roomId string, now time.Time) (string, error) {
	args := m.Called(roomId, now)
	return args.String(0), args.Error(1)
}

func (m *MockInviteManager) Verify(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

// --- TickerFactory ---

type fakeTicker struct {
	c       chan time.Time
	stopped atomic.Bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.c }
func (t *fakeTicker) Stop()               { t.stopped.Store(true) }

type fakeTickerFactory struct {
	locker  sync.Mutex
	tickers []*fakeTicker
}

func (f *fakeTickerFactory) NewTicker(d time.Duration) Ticker {
	f.locker.Lock()
	defer f.locker.Unlock()
	t := &fakeTicker{c: make(chan time.Time, 1)}
	f.tickers = append(f.tickers, t)
	return t
}

func (f *fakeTickerFactory) last() *fakeTicker {
	f.locker.Lock()
	defer f.locker.Unlock()
	if len(f.tickers) == 0 {
		return nil
	}
	return f.tickers[len(f.tickers)-1]
}

func (f *fakeTickerFactory) created() int {
	f.locker.Lock()
	defer f.locker.Unlock()
	return len(f.tickers)
}

func (f *fakeTickerFactory) running() int {
	f.locker.Lock()
	defer f.locker.Unlock()
	n := 0
	for _, t := range f.tickers {
		if !t.stopped.Load() {
			n++
		}
	}
	return n
}

// --- Player ---

type MockPlayer struct {
	mock.Mock
}

func (m *MockPlayer) Id() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockPlayer) Nickname() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockPlayer) Color() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockPlayer) Send(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockPlayer) Ping() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockPlayer) SetRoom(r Room) {
	m.Called(r)
}

func (m *MockPlayer) CancelAndRelease() {
	m.Called()
}

// --- Room ---

type MockRoom struct {
	mock.Mock
}

func (m *MockRoom) Id() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockRoom) PingPlayers() {
	m.Called()
}

func (m *MockRoom) Send(ctx context.Context, e ClientPacketEnvelope) {
	m.Called(ctx, e)
}

func (m *MockRoom) RemoveMe(ctx context.Context, p Player) {
	m.Called(ctx, p)
}

func (m *MockRoom) RequestJoin(jreq roomJoinRequest) {
	m.Called(jreq)
}

func (m *MockRoom) RequestPasscodeCheck(check passcodeCheck) {
	m.Called(check)
}

func (m *MockRoom) GameLoop() {
	m.Called()
}

func (m *MockRoom) CloseAndRelease() {
	m.Called()
}

func (m *MockRoom) Description() roomDescription {
	args := m.Called()
	return args.Get(0).(roomDescription)
}

func (m *MockRoom) SetParentLobby(l Lobby) {
	m.Called(l)
}

// --- Lobby ---

type MockLobby struct {
	mock.Mock
}

func (m *MockLobby) ForwardPlayerJoinRequestToRoom(ctx context.Context, jreq roomJoinRequest) {
	m.Called(ctx, jreq)
}

func (m *MockLobby) RequestUpdateDescription(desc roomDescription) {
	m.Called(desc)
}

func (m *MockLobby) RemoveRoom(r Room) {
	m.Called(r)
}

func (m *MockLobby) GetRoomsDescriptions(ctx context.Context) []roomDescription {
	args := m.Called(ctx)
	return args.Get(0).([]roomDescription)
}

func (m *MockLobby) VerifyPasscode(ctx context.Context, roomId, passcode string) error {
	args := m.Called(ctx, roomId, passcode)
	return args.Error(0)
}

func (m *MockLobby) Stats(ctx context.Context) LobbyStats {
	args := m.Called(ctx)
	return args.Get(0).(LobbyStats)
}
