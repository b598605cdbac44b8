package game

import (
	"cmp"
	"context"
	"sketchroom/domain"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultPingInterval = 30 * time.Second

// NewLobby returns the room registry. Rooms are built with newRoom on the
// first join for an unknown id and their loops are tracked by wg.
func NewLobby(newRoom RoomFactory, tickers TickerFactory, wg *sync.WaitGroup) *lobby {
	return &lobby{
		rooms:          map[string]Room{},
		descriptions:   map[string]roomDescription{},
		newRoom:        newRoom,
		tickers:        tickers,
		wg:             wg,
		pingInterval:   defaultPingInterval,
		removeRoomChan: make(chan Room, 32),
		roomDescUpdate: make(chan roomDescription, 256),
		roomsReqs:      make(chan chan []roomDescription, 256),
		statsReqs:      make(chan chan LobbyStats, 8),
		roomJoinReqs:   make(chan roomJoinRequest, 256),
		passcodeChecks: make(chan passcodeCheck, 64),
		done:           make(chan struct{}),
	}
}

func (l *lobby) RequestUpdateDescription(desc roomDescription) {
	select {
	case l.roomDescUpdate <- desc:
	default:
	}
}

func (l *lobby) ForwardPlayerJoinRequestToRoom(ctx context.Context, jreq roomJoinRequest) {
	select {
	case <-ctx.Done():
	case l.roomJoinReqs <- jreq:
	}
}

func (l *lobby) RemoveRoom(r Room) {
	select {
	case l.removeRoomChan <- r:
	case <-l.done:
	}
}

func (l *lobby) GetRoomsDescriptions(ctx context.Context) []roomDescription {
	respChan := make(chan []roomDescription, 1)
	select {
	case l.roomsReqs <- respChan:
		select {
		case resp := <-respChan:
			return resp
		case <-ctx.Done():
			return nil
		}
	case <-ctx.Done():
		return nil
	}
}

func (l *lobby) VerifyPasscode(ctx context.Context, roomId, passcode string) error {
	check := passcodeCheck{roomId: roomId, passcode: passcode, errChan: make(chan error, 1)}
	select {
	case l.passcodeChecks <- check:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-check.errChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *lobby) Stats(ctx context.Context) LobbyStats {
	respChan := make(chan LobbyStats, 1)
	select {
	case l.statsReqs <- respChan:
		select {
		case resp := <-respChan:
			return resp
		case <-ctx.Done():
			return LobbyStats{}
		}
	case <-ctx.Done():
		return LobbyStats{}
	}
}

// LobbyActor owns the room map until ctx is cancelled, then closes every room.
func (l *lobby) LobbyActor(ctx context.Context, started chan struct{}) {
	pingTicker := l.tickers.NewTicker(l.pingInterval)
	defer pingTicker.Stop()

	close(started)

	for {
		select {
		case <-ctx.Done():
			close(l.done)
			l.closeAll()
			return

		case <-pingTicker.C():
			for _, r := range l.rooms {
				r.PingPlayers()
			}

		case r := <-l.removeRoomChan:
			l.handleRemoveRoom(r)

		case desc := <-l.roomDescUpdate:
			if _, ok := l.rooms[desc.id]; ok {
				l.descriptions[desc.id] = desc
			}

		case req := <-l.roomsReqs:
			l.handleGetRoomsDescriptions(req)

		case req := <-l.statsReqs:
			l.handleStats(req)

		case jreq := <-l.roomJoinReqs:
			l.handleJoinReq(jreq)

		case check := <-l.passcodeChecks:
			l.handlePasscodeCheck(check)
		}
	}
}

func (l *lobby) handleJoinReq(jreq roomJoinRequest) {
	r, ok := l.rooms[jreq.roomId]
	if !ok {
		if jreq.invited {
			jreq.reject(domain.ErrRoomNotFound)
			return
		}
		r = l.addAndRunRoom(jreq.roomId)
	}
	r.RequestJoin(jreq)
}

func (l *lobby) addAndRunRoom(id string) Room {
	r := l.newRoom(id)
	r.SetParentLobby(l)
	l.rooms[id] = r
	l.descriptions[id] = r.Description()
	l.wg.Go(r.GameLoop)
	log.Debug().Str("room", id).Msg("room created")
	return r
}

// handleRemoveRoom ignores a stale room whose id was already reused.
func (l *lobby) handleRemoveRoom(r Room) {
	if current, ok := l.rooms[r.Id()]; ok && current == r {
		delete(l.rooms, r.Id())
		delete(l.descriptions, r.Id())
		log.Debug().Str("room", r.Id()).Msg("room removed")
	}
	r.CloseAndRelease()
}

func (l *lobby) handlePasscodeCheck(check passcodeCheck) {
	r, ok := l.rooms[check.roomId]
	if !ok {
		check.reply(domain.ErrRoomNotFound)
		return
	}
	r.RequestPasscodeCheck(check)
}

func (l *lobby) handleGetRoomsDescriptions(req chan []roomDescription) {
	descs := make([]roomDescription, 0, len(l.descriptions))
	for _, desc := range l.descriptions {
		descs = append(descs, desc)
	}
	slices.SortFunc(descs, func(a, b roomDescription) int { return cmp.Compare(a.id, b.id) })
	req <- descs
}

func (l *lobby) handleStats(req chan LobbyStats) {
	stats := LobbyStats{Rooms: len(l.rooms)}
	for _, desc := range l.descriptions {
		stats.Players += desc.playersCount
	}
	req <- stats
}

func (l *lobby) closeAll() {
	for id, r := range l.rooms {
		r.CloseAndRelease()
		delete(l.rooms, id)
		delete(l.descriptions, id)
	}
}
