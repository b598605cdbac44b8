package packets

import "sketchroom/domain"

func MakePacketRoomSnapshot(snapshot RoomSnapshot) ServerPacket {
	if snapshot.Players == nil {
		snapshot.Players = []PlayerState{}
	}
	if snapshot.Strokes == nil {
		snapshot.Strokes = []domain.Stroke{}
	}
	if snapshot.Chat == nil {
		snapshot.Chat = []domain.ChatMessage{}
	}
	return ServerPacket{Type: TypeRoomSnapshot, Data: snapshot}
}

func MakePacketJoinError(err error) ServerPacket {
	return ServerPacket{Type: TypeJoinError, Data: JoinError{Code: err.Error()}}
}

func MakePacketPlayers(players []PlayerState) ServerPacket {
	if players == nil {
		players = []PlayerState{}
	}
	return ServerPacket{Type: TypePlayers, Data: players}
}

func MakePacketTurnStarted(drawerId, drawerName string, duration int) ServerPacket {
	return ServerPacket{Type: TypeTurnStarted, Data: TurnStarted{
		DrawerId:   drawerId,
		DrawerName: drawerName,
		Duration:   duration,
	}}
}

func MakePacketChooseWord(words []string) ServerPacket {
	return ServerPacket{Type: TypeChooseWord, Data: WordChoices{Words: words}}
}

func MakePacketCountdown(phase string, remaining int) ServerPacket {
	return ServerPacket{Type: TypeCountdown, Data: Countdown{Phase: phase, Remaining: remaining}}
}

// MakePacketDrawingStarted builds the notice for guessers: the word itself is
// left out and only its length is sent.
func MakePacketDrawingStarted(drawerId, drawerName string, duration, wordLength int) ServerPacket {
	return ServerPacket{Type: TypeDrawingStarted, Data: DrawingStarted{
		DrawerId:   drawerId,
		DrawerName: drawerName,
		Duration:   duration,
		WordLength: wordLength,
	}}
}

func MakePacketYourTurnToDraw(drawerId, drawerName string, duration int, word string) ServerPacket {
	return ServerPacket{Type: TypeDrawingStarted, Data: DrawingStarted{
		DrawerId:   drawerId,
		DrawerName: drawerName,
		Duration:   duration,
		WordLength: len([]rune(word)),
		Word:       word,
	}}
}

func MakePacketStrokeFinalized(stroke domain.Stroke) ServerPacket {
	return ServerPacket{Type: TypeStrokeFinalized, Data: stroke}
}

func MakePacketStrokeRemoved(id int64) ServerPacket {
	return ServerPacket{Type: TypeStrokeRemoved, Data: StrokeRemoved{Id: id}}
}

func MakePacketCanvasCleared() ServerPacket {
	return ServerPacket{Type: TypeCanvasCleared}
}

func MakePacketChat(from, text string) ServerPacket {
	return ServerPacket{Type: TypeChat, Data: domain.ChatMessage{From: from, Text: text}}
}

func MakePacketSystem(text string) ServerPacket {
	return ServerPacket{Type: TypeSystem, Data: domain.ChatMessage{Text: text}}
}

func MakePacketTurnEnded(reason, word string) ServerPacket {
	return ServerPacket{Type: TypeTurnEnded, Data: TurnEnded{Reason: reason, Word: word}}
}

func MakePacketIdle() ServerPacket {
	return ServerPacket{Type: TypeIdle}
}
