package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sketchroom/domain/packets"
	"sync"

	"github.com/google/uuid"
)

type player struct {
	id          string
	nickname    string
	color       string
	room        Room
	inbox       chan []byte
	pingChan    chan struct{}
	ctx         context.Context
	cancelCtx   context.CancelFunc
	releaseOnce sync.Once
}

func NewPlayer(nickname string) *player {
	ctx, cancel := context.WithCancel(context.Background())
	return &player{
		id:        uuid.NewString(),
		nickname:  nickname,
		color:     pastelColor(),
		inbox:     make(chan []byte, 256),
		pingChan:  make(chan struct{}, 1),
		ctx:       ctx,
		cancelCtx: cancel,
	}
}

func pastelColor() string {
	return fmt.Sprintf("hsl(%d, 90%%, 80%%)", rand.IntN(360))
}

func (p *player) Id() string       { return p.id }
func (p *player) Nickname() string { return p.nickname }
func (p *player) Color() string    { return p.color }

func (p *player) SetRoom(r Room) {
	p.room = r
}

// Send queues data for the write pump. It never blocks: a full inbox means the
// client stopped reading.
func (p *player) Send(data []byte) error {
	select {
	case p.inbox <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (p *player) Ping() error {
	select {
	case p.pingChan <- struct{}{}:
	default:
	}
	return nil
}

func (p *player) CancelAndRelease() {
	p.releaseOnce.Do(p.cancelCtx)
}

func (p *player) ReadPump(socket WebsocketConnection) {
	defer func() {
		socket.Close()
		p.room.RemoveMe(p.ctx, p)
	}()

	for {
		data, err := socket.Read()
		if err != nil {
			return
		}

		envelope := ClientPacketEnvelope{from: p}

		if packets.IsPartialStrokeFrame(data) {
			envelope.rawBinary = data
		} else {
			envelope.packet, err = packets.DecodeClientPacket(data)
			if err != nil {
				continue
			}
		}

		p.room.Send(p.ctx, envelope)
		if p.ctx.Err() != nil {
			return
		}
	}
}

func (p *player) WritePump(socket WebsocketConnection) {
	defer socket.Close()

	for {
		select {
		case <-p.ctx.Done():
			return
		case data := <-p.inbox:
			if err := socket.Write(data); err != nil {
				p.room.RemoveMe(p.ctx, p)
				return
			}
		case _, ok := <-p.pingChan:
			if !ok {
				return
			}
			if err := socket.Ping(); err != nil {
				p.room.RemoveMe(p.ctx, p)
				return
			}
		}
	}
}
