package game

import (
	"sketchroom/domain/packets"
	"slices"
	"time"
)

func (r *room) currentToken() tickToken {
	token := tickToken{epoch: r.turn.epoch, phase: r.turn.phase}
	if r.turn.drawer != nil {
		token.drawerId = r.turn.drawer.Id()
	}
	return token
}

// startCountdown replaces any running countdown. The ticker is bound to the
// token of the phase it was started for.
func (r *room) startCountdown(seconds int) {
	r.stopCountdown()
	r.turn.remaining = seconds
	r.countdown = &countdown{
		ticker: r.tickerFactory.NewTicker(time.Second),
		token:  r.currentToken(),
	}
}

func (r *room) stopCountdown() {
	if r.countdown == nil {
		return
	}
	r.countdown.ticker.Stop()
	r.countdown = nil
}

// countdownC is nil while no countdown runs, which disables its select case.
func (r *room) countdownC() <-chan time.Time {
	if r.countdown == nil {
		return nil
	}
	return r.countdown.ticker.C()
}

func (r *room) handleTick(token tickToken) {
	if token != r.currentToken() || r.turn.phase == PhaseIdle {
		r.logger.Debug().Uint64("epoch", token.epoch).Msg("stale tick ignored")
		return
	}

	r.turn.remaining--
	if r.turn.remaining > 0 {
		r.broadcast(packets.MakePacketCountdown(r.turn.phase.String(), r.turn.remaining))
		return
	}

	r.endTurn(packets.ReasonTimeout)
}

// nextDrawer picks the first member who joined after the previous drawer,
// wrapping to the oldest member.
func (r *room) nextDrawer() *roomPlayer {
	if len(r.players) == 0 {
		return nil
	}
	if !r.turn.hadDrawer {
		return r.players[0]
	}
	for _, p := range r.players {
		if p.joinSeq > r.turn.lastDrawerSeq {
			return p
		}
	}
	return r.players[0]
}

func (r *room) startNextTurn() {
	next := r.nextDrawer()
	if next == nil {
		r.goIdle()
		return
	}

	r.turn.epoch++
	r.turn.phase = PhaseSelecting
	r.turn.drawer = next
	r.turn.lastDrawerSeq = next.joinSeq
	r.turn.hadDrawer = true
	r.turn.secret = ""
	r.turn.guessed = make(map[string]bool)
	r.turn.candidates = r.wordGen.Generate(r.configs.CandidateCount)
	if len(r.turn.candidates) == 0 {
		r.logger.Warn().Msg("word generator returned no candidates")
	}

	r.startCountdown(r.configs.SelectingSeconds)

	r.broadcast(packets.MakePacketTurnStarted(next.Id(), next.Nickname(), r.configs.SelectingSeconds))
	r.sendTo(next, packets.MakePacketChooseWord(r.turn.candidates))
	r.updateDescription()

	r.logger.Debug().Str("drawer", next.Id()).Msg("turn started")
}

func (r *room) handleChooseWordEnvelope(from Player, word string) {
	if r.turn.phase != PhaseSelecting || !r.isDrawer(from) {
		return
	}
	if !slices.Contains(r.turn.candidates, word) {
		return
	}

	drawer := r.turn.drawer

	r.turn.epoch++
	r.turn.phase = PhaseDrawing
	r.turn.secret = word
	r.turn.candidates = nil
	r.turn.guessed = make(map[string]bool)
	r.strokes.Clear()

	r.startCountdown(r.configs.DrawingSeconds)

	duration := r.configs.DrawingSeconds
	wordLength := len([]rune(word))
	for _, p := range r.players {
		if p == drawer {
			r.sendTo(p, packets.MakePacketYourTurnToDraw(drawer.Id(), drawer.Nickname(), duration, word))
			continue
		}
		r.sendTo(p, packets.MakePacketDrawingStarted(drawer.Id(), drawer.Nickname(), duration, wordLength))
	}
	r.updateDescription()
}

func (r *room) handleForfeitEnvelope(from Player) {
	if r.turn.phase == PhaseIdle || !r.isDrawer(from) {
		return
	}
	r.endTurn(packets.ReasonForfeit)
}

// endTurn closes the current turn and hands it to the next drawer. Only a
// drawing turn has a canvas and a word to reveal.
func (r *room) endTurn(reason string) {
	r.stopCountdown()

	word := ""
	if r.turn.phase == PhaseDrawing {
		word = r.turn.secret
		r.strokes.Clear()
		r.broadcast(packets.MakePacketCanvasCleared())
	}
	r.broadcast(packets.MakePacketTurnEnded(reason, word))

	r.logger.Debug().Str("reason", reason).Msg("turn ended")
	r.startNextTurn()
}

func (r *room) goIdle() {
	r.stopCountdown()

	r.turn.epoch++
	r.turn.phase = PhaseIdle
	r.turn.drawer = nil
	r.turn.candidates = nil
	r.turn.secret = ""
	r.turn.remaining = 0
	r.turn.guessed = make(map[string]bool)
	r.strokes.Clear()

	r.broadcast(packets.MakePacketIdle())
	r.updateDescription()
}

func (r *room) isDrawer(p Player) bool {
	return r.turn.drawer != nil && r.turn.drawer.Id() == p.Id()
}
