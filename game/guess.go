package game

import (
	"fmt"
	"sketchroom/domain"
	"sketchroom/domain/packets"
	"sketchroom/similarity"
	"strings"
)

const maxChatRunes = 200

// guessPoints rewards faster guesses: one tier per started ten seconds left.
func guessPoints(remaining, pointsPerTier int) int {
	if remaining < 0 {
		remaining = 0
	}
	return (remaining + 10) / 10 * pointsPerTier
}

func (r *room) handleChatEnvelope(from Player, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if runes := []rune(text); len(runes) > maxChatRunes {
		text = string(runes[:maxChatRunes])
	}

	p := r.member(from.Id())
	if p == nil {
		return
	}

	if r.canGuess(p) && similarity.Score(text, r.turn.secret) >= r.configs.GuessThreshold {
		r.turn.guessed[p.Id()] = true
		p.score += guessPoints(r.turn.remaining, r.configs.PointsPerTier)

		r.broadcastSystem(fmt.Sprintf("%s guessed the word!", p.Nickname()))
		r.broadcastPlayers()

		if r.everyoneGuessed() {
			r.endTurn(packets.ReasonAllGuessed)
		}
		return
	}

	r.chat.Append(domain.ChatMessage{From: p.Nickname(), Text: text})
	r.broadcast(packets.MakePacketChat(p.Nickname(), text))
}

func (r *room) canGuess(p *roomPlayer) bool {
	return r.turn.phase == PhaseDrawing && p != r.turn.drawer && !r.turn.guessed[p.Id()]
}

// everyoneGuessed needs at least one guesser so a lone drawer keeps the turn.
func (r *room) everyoneGuessed() bool {
	guessers := 0
	for _, p := range r.players {
		if p == r.turn.drawer {
			continue
		}
		if !r.turn.guessed[p.Id()] {
			return false
		}
		guessers++
	}
	return guessers > 0
}
