package game

import (
	"context"
	"math"
	"sketchroom/domain"
	"sketchroom/domain/packets"
	"slices"

	"github.com/rs/zerolog/log"
)

const maxStrokePoints = 4096

func NewRoom(id string, configs RoomConfigs, wordGen RandomWordsGenerator, hasher PasscodeHasher, tickerFactory TickerFactory) *room {
	ctx, cancel := context.WithCancel(context.Background())
	return &room{
		id:              id,
		configs:         configs,
		logger:          log.With().Str("room", id).Logger(),
		players:         make([]*roomPlayer, 0, configs.MaxPlayers),
		turn:            turn{guessed: make(map[string]bool)},
		strokes:         NewStrokeStore(),
		chat:            NewChatHistory(configs.ChatHistorySize),
		wordGen:         wordGen,
		hasher:          hasher,
		tickerFactory:   tickerFactory,
		ctx:             ctx,
		cancelCtx:       cancel,
		inbox:           make(chan ClientPacketEnvelope, 1024),
		removalRequests: make(chan Player, 64),
		joinRequests:    make(chan roomJoinRequest, 64),
		passcodeChecks:  make(chan passcodeCheck, 16),
		pingPlayers:     make(chan struct{}, 1),
	}
}

func (r *room) Id() string {
	return r.id
}

func (r *room) SetParentLobby(l Lobby) {
	r.parentLobby = l
}

func (r *room) Send(ctx context.Context, e ClientPacketEnvelope) {
	select {
	case r.inbox <- e:
	case <-ctx.Done():
	case <-r.ctx.Done():
	}
}

func (r *room) RemoveMe(ctx context.Context, p Player) {
	select {
	case r.removalRequests <- p:
	case <-ctx.Done():
	case <-r.ctx.Done():
	}
}

// RequestJoin never blocks the caller. A join queued before CloseAndRelease
// is answered with ErrRoomClosed when the loop drains.
func (r *room) RequestJoin(jreq roomJoinRequest) {
	if r.ctx.Err() != nil {
		jreq.reject(domain.ErrRoomClosed)
		return
	}
	select {
	case r.joinRequests <- jreq:
	default:
		jreq.reject(domain.ErrRoomFull)
	}
}

func (r *room) RequestPasscodeCheck(check passcodeCheck) {
	if r.ctx.Err() != nil {
		check.reply(domain.ErrRoomNotFound)
		return
	}
	select {
	case r.passcodeChecks <- check:
	default:
		check.reply(domain.ErrRoomNotFound)
	}
}

func (r *room) PingPlayers() {
	select {
	case r.pingPlayers <- struct{}{}:
	default:
	}
}

func (r *room) CloseAndRelease() {
	r.cancelCtx()
}

func (r *room) Description() roomDescription {
	return roomDescription{
		id:           r.id,
		playersCount: len(r.players),
		maxPlayers:   r.configs.MaxPlayers,
		locked:       r.passcodeHash != "",
		phase:        r.turn.phase,
	}
}

func (r *room) GameLoop() {
	defer r.release()

	for {
		select {
		case <-r.ctx.Done():
			return
		case e := <-r.inbox:
			r.handleEnvelope(e)
		case p := <-r.removalRequests:
			r.handleRemovePlayer(p)
		case jreq := <-r.joinRequests:
			r.handleJoinRequest(jreq)
		case check := <-r.passcodeChecks:
			r.handlePasscodeCheck(check)
		case <-r.pingPlayers:
			for _, p := range r.players {
				p.Ping()
			}
		case <-r.countdownC():
			r.handleTick(r.countdown.token)
		}
		r.flush()
	}
}

func (r *room) release() {
	r.stopCountdown()
drain:
	for {
		select {
		case jreq := <-r.joinRequests:
			jreq.reject(domain.ErrRoomClosed)
		case check := <-r.passcodeChecks:
			check.reply(domain.ErrRoomNotFound)
		default:
			break drain
		}
	}
	for _, p := range r.players {
		p.CancelAndRelease()
	}
	r.players = nil
	r.logger.Debug().Msg("room released")
}

// flush delivers the queued packets. A member whose inbox is saturated is
// removed, which may queue more packets for the others.
func (r *room) flush() {
	for len(r.dataSendTasks) > 0 {
		tasks := r.dataSendTasks
		r.dataSendTasks = nil

		var evicted []Player
		for _, task := range tasks {
			if err := task.to.Send(task.data); err != nil {
				evicted = append(evicted, task.to)
			}
		}
		for _, p := range evicted {
			r.logger.Warn().Str("player", p.Id()).Msg("evicting slow player")
			r.handleRemovePlayer(p)
		}
	}
}

func (r *room) requestClose() {
	if r.closing {
		return
	}
	r.closing = true
	r.parentLobby.RemoveRoom(r)
}

func (r *room) updateDescription() {
	if r.closing {
		return
	}
	r.parentLobby.RequestUpdateDescription(r.Description())
}

func (r *room) handleJoinRequest(jreq roomJoinRequest) {
	if r.closing {
		jreq.reject(domain.ErrRoomClosed)
		return
	}

	err := r.admit(jreq)
	if err == nil {
		// the requester may have given up while admit ran
		err = jreq.withdrawn()
	}
	if err != nil {
		jreq.reject(err)
		if len(r.players) == 0 {
			r.requestClose()
		}
		return
	}

	r.nextJoinSeq++
	rp := &roomPlayer{Player: jreq.player, joinSeq: r.nextJoinSeq}
	r.players = append(r.players, rp)
	jreq.player.SetRoom(r)
	jreq.accept()

	r.sendTo(rp, packets.MakePacketRoomSnapshot(r.snapshotFor(rp)))
	switch r.turn.phase {
	case PhaseSelecting:
		r.sendTo(rp, packets.MakePacketTurnStarted(r.turn.drawer.Id(), r.turn.drawer.Nickname(), r.turn.remaining))
	case PhaseDrawing:
		r.sendTo(rp, packets.MakePacketDrawingStarted(r.turn.drawer.Id(), r.turn.drawer.Nickname(), r.turn.remaining, len([]rune(r.turn.secret))))
		if segment, ok := r.strokes.Partial(r.turn.drawer.Id()); ok {
			r.dataSendTasks = append(r.dataSendTasks, dataSendTask{to: rp, data: packets.EncodePartialStroke(segment)})
		}
	}
	r.broadcastPlayersExcept(rp)
	r.updateDescription()

	r.logger.Debug().Str("player", rp.Id()).Int("players", len(r.players)).Msg("player joined")

	if r.turn.phase == PhaseIdle {
		r.startNextTurn()
	}
}

// admit checks capacity and the passcode. The first member sets the passcode.
func (r *room) admit(jreq roomJoinRequest) error {
	if len(r.players) >= r.configs.MaxPlayers {
		return domain.ErrRoomFull
	}

	if !r.initialized {
		if jreq.passcode != "" {
			hash, err := r.hasher.Hash(jreq.passcode)
			if err != nil {
				r.logger.Error().Err(err).Msg("failed to hash room passcode")
				return err
			}
			r.passcodeHash = hash
		}
		r.initialized = true
		return nil
	}

	if r.passcodeHash == "" || jreq.invited {
		return nil
	}

	ok, err := r.hasher.Compare(r.passcodeHash, jreq.passcode)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to compare room passcode")
		return err
	}
	if !ok {
		return domain.ErrWrongPasscode
	}
	return nil
}

func (r *room) handlePasscodeCheck(check passcodeCheck) {
	if r.closing {
		check.reply(domain.ErrRoomNotFound)
		return
	}
	if r.passcodeHash == "" {
		check.reply(nil)
		return
	}
	ok, err := r.hasher.Compare(r.passcodeHash, check.passcode)
	switch {
	case err != nil:
		check.reply(err)
	case !ok:
		check.reply(domain.ErrWrongPasscode)
	default:
		check.reply(nil)
	}
}

func (r *room) handleRemovePlayer(p Player) {
	idx := slices.IndexFunc(r.players, func(rp *roomPlayer) bool { return rp.Id() == p.Id() })
	if idx < 0 {
		return
	}
	rp := r.players[idx]
	r.players = slices.Delete(r.players, idx, idx+1)
	delete(r.turn.guessed, rp.Id())
	r.strokes.ClearPartial(rp.Id())
	rp.CancelAndRelease()

	r.logger.Debug().Str("player", rp.Id()).Int("players", len(r.players)).Msg("player left")

	if len(r.players) == 0 {
		r.goIdle()
		r.requestClose()
		return
	}

	r.broadcastPlayers()
	r.updateDescription()

	switch {
	case r.turn.drawer == rp:
		r.endTurn(packets.ReasonDrawerLeft)
	case r.turn.phase == PhaseDrawing && r.everyoneGuessed():
		r.endTurn(packets.ReasonAllGuessed)
	}
}

func (r *room) handleEnvelope(e ClientPacketEnvelope) {
	if r.closing || r.member(e.from.Id()) == nil {
		return
	}

	if e.rawBinary != nil {
		r.handlePartialStrokeEnvelope(e.from, e.rawBinary)
		return
	}

	var err error
	switch e.packet.Type {
	case packets.TypeChooseWord:
		var data packets.ChooseWord
		if data, err = packets.DecodeData[packets.ChooseWord](e.packet); err == nil {
			r.handleChooseWordEnvelope(e.from, data.Word)
		}
	case packets.TypeFinalizeStroke:
		var data packets.FinalizeStroke
		if data, err = packets.DecodeData[packets.FinalizeStroke](e.packet); err == nil {
			r.handleFinalizeStrokeEnvelope(e.from, data)
		}
	case packets.TypeChat:
		var data packets.Chat
		if data, err = packets.DecodeData[packets.Chat](e.packet); err == nil {
			r.handleChatEnvelope(e.from, data.Text)
		}
	case packets.TypeUndo:
		r.handleUndoEnvelope(e.from)
	case packets.TypeClearCanvas:
		r.handleClearCanvasEnvelope(e.from)
	case packets.TypeForfeit:
		r.handleForfeitEnvelope(e.from)
	default:
		r.logger.Debug().Str("type", e.packet.Type).Msg("unknown packet type")
	}

	if err != nil {
		r.logger.Debug().Err(err).Str("type", e.packet.Type).Msg("malformed packet")
	}
}

func (r *room) handlePartialStrokeEnvelope(from Player, raw []byte) {
	if r.turn.phase != PhaseDrawing || !r.isDrawer(from) {
		return
	}
	segment, err := packets.DecodePartialStroke(raw)
	if err != nil {
		r.logger.Debug().Err(err).Msg("dropping partial stroke")
		return
	}
	segment.PlayerId = from.Id()
	if segment.Color == "" {
		segment.Color = from.Color()
	}
	r.strokes.SetPartial(from.Id(), segment)
	r.broadcastRawExcept(from, packets.EncodePartialStroke(segment))
}

func (r *room) handleFinalizeStrokeEnvelope(from Player, data packets.FinalizeStroke) {
	if r.turn.phase != PhaseDrawing || !r.isDrawer(from) {
		return
	}
	if !validStroke(data) {
		r.logger.Debug().Str("player", from.Id()).Msg("dropping invalid stroke")
		return
	}

	stroke := domain.Stroke{
		Points:    slices.Clone(data.Points),
		Color:     data.Color,
		Thickness: data.Thickness,
		OwnerId:   from.Id(),
	}
	if stroke.Color == "" {
		stroke.Color = from.Color()
	}
	stroke.Id = r.strokes.AppendFinal(stroke)
	r.broadcast(packets.MakePacketStrokeFinalized(stroke))
}

func validStroke(data packets.FinalizeStroke) bool {
	if len(data.Points) == 0 || len(data.Points) > maxStrokePoints {
		return false
	}
	if !(data.Thickness > 0) || math.IsInf(data.Thickness, 0) {
		return false
	}
	for _, pt := range data.Points {
		if !(pt.X >= 0 && pt.X <= 1 && pt.Y >= 0 && pt.Y <= 1) {
			return false
		}
	}
	return true
}

func (r *room) handleUndoEnvelope(from Player) {
	if r.turn.phase != PhaseDrawing || !r.isDrawer(from) {
		return
	}
	if id, ok := r.strokes.RemoveLastBy(from.Id()); ok {
		r.broadcast(packets.MakePacketStrokeRemoved(id))
	}
}

func (r *room) handleClearCanvasEnvelope(from Player) {
	if r.turn.phase != PhaseDrawing || !r.isDrawer(from) {
		return
	}
	r.strokes.Clear()
	r.broadcast(packets.MakePacketCanvasCleared())
}

func (r *room) member(id string) *roomPlayer {
	for _, p := range r.players {
		if p.Id() == id {
			return p
		}
	}
	return nil
}

func (r *room) playerStates() []packets.PlayerState {
	states := make([]packets.PlayerState, 0, len(r.players))
	for _, p := range r.players {
		states = append(states, packets.PlayerState{
			Id:       p.Id(),
			Nickname: p.Nickname(),
			Score:    p.score,
			Color:    p.Color(),
		})
	}
	return states
}

func (r *room) snapshotFor(p *roomPlayer) packets.RoomSnapshot {
	snapshot := packets.RoomSnapshot{
		RoomId:    r.id,
		SelfId:    p.Id(),
		Phase:     r.turn.phase.String(),
		Remaining: r.turn.remaining,
		Players:   r.playerStates(),
		Strokes:   r.strokes.Snapshot(),
		Chat:      r.chat.Messages(),
	}
	if r.turn.drawer != nil {
		snapshot.DrawerId = r.turn.drawer.Id()
		snapshot.DrawerName = r.turn.drawer.Nickname()
	}
	return snapshot
}

func (r *room) sendTo(p Player, packet packets.ServerPacket) {
	data, err := packets.Marshal(packet)
	if err != nil {
		r.logger.Error().Err(err).Str("type", packet.Type).Msg("failed to marshal packet")
		return
	}
	r.dataSendTasks = append(r.dataSendTasks, dataSendTask{to: p, data: data})
}

func (r *room) broadcast(packet packets.ServerPacket) {
	r.broadcastExcept(nil, packet)
}

func (r *room) broadcastExcept(except Player, packet packets.ServerPacket) {
	data, err := packets.Marshal(packet)
	if err != nil {
		r.logger.Error().Err(err).Str("type", packet.Type).Msg("failed to marshal packet")
		return
	}
	r.broadcastRawExcept(except, data)
}

func (r *room) broadcastRawExcept(except Player, data []byte) {
	for _, p := range r.players {
		if except != nil && p.Id() == except.Id() {
			continue
		}
		r.dataSendTasks = append(r.dataSendTasks, dataSendTask{to: p, data: data})
	}
}

func (r *room) broadcastPlayers() {
	r.broadcast(packets.MakePacketPlayers(r.playerStates()))
}

func (r *room) broadcastPlayersExcept(except Player) {
	r.broadcastExcept(except, packets.MakePacketPlayers(r.playerStates()))
}

func (r *room) broadcastSystem(text string) {
	r.chat.Append(domain.ChatMessage{Text: text})
	r.broadcast(packets.MakePacketSystem(text))
}
