package game

import (
	"sketchroom/domain"
	"sketchroom/domain/packets"
)

// StrokeStore keeps the finalized strokes of the current canvas plus at most
// one in-flight segment per drawer. Ids keep growing across Clear calls and
// turns, so a removed id is never handed out again.
type StrokeStore struct {
	strokes  []domain.Stroke
	partials map[string]packets.PartialStroke
	lastId   int64
}

func NewStrokeStore() *StrokeStore {
	return &StrokeStore{
		strokes:  make([]domain.Stroke, 0, 64),
		partials: make(map[string]packets.PartialStroke),
	}
}

// AppendFinal stores s under a fresh id and drops the owner's partial segment.
func (s *StrokeStore) AppendFinal(stroke domain.Stroke) int64 {
	s.lastId++
	stroke.Id = s.lastId
	s.strokes = append(s.strokes, stroke)
	delete(s.partials, stroke.OwnerId)
	return stroke.Id
}

// RemoveLastBy removes the newest stroke owned by playerId.
func (s *StrokeStore) RemoveLastBy(playerId string) (int64, bool) {
	for i := len(s.strokes) - 1; i >= 0; i-- {
		if s.strokes[i].OwnerId != playerId {
			continue
		}
		id := s.strokes[i].Id
		s.strokes = append(s.strokes[:i], s.strokes[i+1:]...)
		return id, true
	}
	return 0, false
}

func (s *StrokeStore) Clear() {
	s.strokes = s.strokes[:0]
	clear(s.partials)
}

func (s *StrokeStore) Len() int {
	return len(s.strokes)
}

func (s *StrokeStore) Snapshot() []domain.Stroke {
	out := make([]domain.Stroke, len(s.strokes))
	copy(out, s.strokes)
	return out
}

func (s *StrokeStore) SetPartial(playerId string, segment packets.PartialStroke) {
	s.partials[playerId] = segment
}

func (s *StrokeStore) Partial(playerId string) (packets.PartialStroke, bool) {
	p, ok := s.partials[playerId]
	return p, ok
}

func (s *StrokeStore) ClearPartial(playerId string) {
	delete(s.partials, playerId)
}
