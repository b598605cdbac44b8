package game

import (
	"context"
	"sketchroom/domain/packets"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSelecting
	PhaseDrawing
)

func (p Phase) String() string {
	switch p {
	case PhaseSelecting:
		return "selecting"
	case PhaseDrawing:
		return "drawing"
	default:
		return "idle"
	}
}

// RoomConfigs holds the per-room tunables. Durations are whole seconds since
// the countdown is broadcast in seconds.
type RoomConfigs struct {
	MaxPlayers       int
	CandidateCount   int
	SelectingSeconds int
	DrawingSeconds   int
	GuessThreshold   int
	PointsPerTier    int
	ChatHistorySize  int
}

func DefaultRoomConfigs() RoomConfigs {
	return RoomConfigs{
		MaxPlayers:       12,
		CandidateCount:   3,
		SelectingSeconds: 10,
		DrawingSeconds:   70,
		GuessThreshold:   60,
		PointsPerTier:    1,
		ChatHistorySize:  15,
	}
}

type ClientPacketEnvelope struct {
	packet    packets.ClientPacket
	rawBinary []byte
	from      Player
}

type roomJoinRequest struct {
	roomId   string
	passcode string
	invited  bool
	player   Player
	errChan  chan error
	// ctx ends when the requester stops waiting for the answer.
	ctx      context.Context
}

func newRoomJoinRequest(roomId, passcode string, invited bool, p Player) roomJoinRequest {
	return roomJoinRequest{
		roomId:   roomId,
		passcode: passcode,
		invited:  invited,
		player:   p,
		errChan:  make(chan error, 1),
		ctx:      context.Background(),
	}
}

func (jreq roomJoinRequest) withdrawn() error {
	return jreq.ctx.Err()
}

func (jreq roomJoinRequest) reject(err error) {
	jreq.errChan <- err
	close(jreq.errChan)
}

func (jreq roomJoinRequest) accept() {
	close(jreq.errChan)
}

type passcodeCheck struct {
	roomId   string
	passcode string
	errChan  chan error
}

func (c passcodeCheck) reply(err error) {
	c.errChan <- err
	close(c.errChan)
}

type roomDescription struct {
	id           string
	playersCount int
	maxPlayers   int
	locked       bool
	phase        Phase
}

type LobbyStats struct {
	Rooms   int
	Players int
}

type dataSendTask struct {
	to   Player
	data []byte
}

// roomPlayer is a member as seen by the room. joinSeq only grows, so the
// drawer rotation can resume after a member that already left.
type roomPlayer struct {
	Player
	joinSeq uint64
	score   int
}

type countdown struct {
	ticker Ticker
	token  tickToken
}

type tickToken struct {
	epoch    uint64
	phase    Phase
	drawerId string
}

type turn struct {
	phase      Phase
	drawer     *roomPlayer
	candidates []string
	secret     string
	remaining  int
	guessed    map[string]bool
	epoch      uint64

	lastDrawerSeq uint64
	hadDrawer     bool
}

type room struct {
	id      string
	configs RoomConfigs
	logger  zerolog.Logger

	passcodeHash string
	initialized  bool
	closing      bool

	players     []*roomPlayer
	nextJoinSeq uint64
	turn        turn
	countdown   *countdown
	strokes     *StrokeStore
	chat        *ChatHistory

	wordGen       RandomWordsGenerator
	hasher        PasscodeHasher
	tickerFactory TickerFactory
	parentLobby   Lobby

	dataSendTasks []dataSendTask

	ctx             context.Context
	cancelCtx       context.CancelFunc
	inbox           chan ClientPacketEnvelope
	removalRequests chan Player
	joinRequests    chan roomJoinRequest
	passcodeChecks  chan passcodeCheck
	pingPlayers     chan struct{}
}

type RoomFactory func(id string) Room

type lobby struct {
	rooms        map[string]Room
	descriptions map[string]roomDescription
	newRoom      RoomFactory
	tickers      TickerFactory
	wg           *sync.WaitGroup
	pingInterval time.Duration

	removeRoomChan chan Room
	roomDescUpdate chan roomDescription
	roomsReqs      chan chan []roomDescription
	statsReqs      chan chan LobbyStats
	roomJoinReqs   chan roomJoinRequest
	passcodeChecks chan passcodeCheck
	done           chan struct{}
}
