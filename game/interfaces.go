package game

import (
	"context"
	"time"
)

type WebsocketConnection interface {
	Close()
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

type RandomWordsGenerator interface {
	Generate(count int) []string
}

type PasscodeHasher interface {
	Hash(passcode string) (string, error)
	Compare(hash, passcode string) (bool, error)
}

type InviteManager interface {
	Generate(roomId string, now time.Time) (string, error)
	Verify(token string) (string, error)
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory interface {
	NewTicker(d time.Duration) Ticker
}

type Player interface {
	Id() string
	Nickname() string
	Color() string
	Send(data []byte) error
	Ping() error
	SetRoom(r Room)
	CancelAndRelease()
}

type Room interface {
	Id() string
	PingPlayers()
	Send(ctx context.Context, e ClientPacketEnvelope)
	RemoveMe(ctx context.Context, p Player)
	RequestJoin(jreq roomJoinRequest)
	RequestPasscodeCheck(check passcodeCheck)
	GameLoop()
	CloseAndRelease()
	Description() roomDescription
	SetParentLobby(l Lobby)
}

type Lobby interface {
	ForwardPlayerJoinRequestToRoom(ctx context.Context, jreq roomJoinRequest)
	RequestUpdateDescription(desc roomDescription)
	RemoveRoom(r Room)
	GetRoomsDescriptions(ctx context.Context) []roomDescription
	VerifyPasscode(ctx context.Context, roomId, passcode string) error
	Stats(ctx context.Context) LobbyStats
}
