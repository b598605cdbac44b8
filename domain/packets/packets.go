package packets

import (
	"encoding/json"
	"sketchroom/domain"
)

// Server packet types.
const (
	TypeRoomSnapshot    = "room-snapshot"
	TypeJoinError       = "join-error"
	TypePlayers         = "players"
	TypeTurnStarted     = "turn-started"
	TypeChooseWord      = "choose-word"
	TypeCountdown       = "countdown"
	TypeDrawingStarted  = "drawing-started"
	TypeStrokeFinalized = "stroke-finalized"
	TypeStrokeRemoved   = "stroke-removed"
	TypeCanvasCleared   = "canvas-cleared"
	TypeChat            = "chat"
	TypeSystem          = "system"
	TypeTurnEnded       = "turn-ended"
	TypeIdle            = "idle"
)

// Client packet types. Partial strokes travel as binary frames, see partial.go.
const (
	TypeJoin           = "join"
	TypeFinalizeStroke = "finalize-stroke"
	TypeUndo           = "undo"
	TypeClearCanvas    = "clear-canvas"
	TypeForfeit        = "forfeit"
	// TypeChooseWord is shared with the server packet that offers the candidates.
)

// Turn-ended reasons.
const (
	ReasonTimeout    = "timeout"
	ReasonForfeit    = "forfeit"
	ReasonAllGuessed = "all-guessed"
	ReasonDrawerLeft = "drawer-left"
)

type ServerPacket struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type ClientPacket struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type PlayerState struct {
	Id       string `json:"id"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
	Color    string `json:"color"`
}

type RoomSnapshot struct {
	RoomId     string               `json:"roomId"`
	SelfId     string               `json:"selfId"`
	Phase      string               `json:"phase"`
	DrawerId   string               `json:"drawerId,omitempty"`
	DrawerName string               `json:"drawerName,omitempty"`
	Remaining  int                  `json:"remaining"`
	Players    []PlayerState        `json:"players"`
	Strokes    []domain.Stroke      `json:"strokes"`
	Chat       []domain.ChatMessage `json:"chat"`
}

type JoinError struct {
	Code string `json:"code"`
}

type TurnStarted struct {
	DrawerId   string `json:"drawerId"`
	DrawerName string `json:"drawerName"`
	Duration   int    `json:"duration"`
}

type WordChoices struct {
	Words []string `json:"words"`
}

type Countdown struct {
	Phase     string `json:"phase"`
	Remaining int    `json:"remaining"`
}

type DrawingStarted struct {
	DrawerId   string `json:"drawerId"`
	DrawerName string `json:"drawerName"`
	Duration   int    `json:"duration"`
	WordLength int    `json:"wordLength"`
	Word       string `json:"word,omitempty"`
}

type StrokeRemoved struct {
	Id int64 `json:"id"`
}

type TurnEnded struct {
	Reason string `json:"reason"`
	Word   string `json:"word,omitempty"`
}

// Client payloads.

type JoinRequest struct {
	RoomId   string `json:"roomId"`
	Passcode string `json:"passcode"`
	Nickname string `json:"nickname"`
	Invite   string `json:"invite"`
}

type ChooseWord struct {
	Word string `json:"word"`
}

type FinalizeStroke struct {
	Points    []domain.Point `json:"points"`
	Color     string         `json:"color"`
	Thickness float64        `json:"thickness"`
}

type Chat struct {
	Text string `json:"text"`
}

func Marshal(p ServerPacket) ([]byte, error) {
	return json.Marshal(p)
}

// DecodeClientPacket parses the envelope only; payloads are decoded by the
// handler for that packet type with DecodeData.
func DecodeClientPacket(data []byte) (ClientPacket, error) {
	var p ClientPacket
	err := json.Unmarshal(data, &p)
	return p, err
}

func DecodeData[T any](p ClientPacket) (T, error) {
	var v T
	if len(p.Data) == 0 {
		return v, nil
	}
	err := json.Unmarshal(p.Data, &v)
	return v, err
}
