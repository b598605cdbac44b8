package game

import "sketchroom/domain"

// ChatHistory is the bounded backlog replayed to late joiners, oldest first.
type ChatHistory struct {
	messages []domain.ChatMessage
	size     int
}

func NewChatHistory(size int) *ChatHistory {
	if size < 1 {
		size = 1
	}
	return &ChatHistory{
		messages: make([]domain.ChatMessage, 0, size),
		size:     size,
	}
}

func (h *ChatHistory) Append(msg domain.ChatMessage) {
	if len(h.messages) == h.size {
		copy(h.messages, h.messages[1:])
		h.messages = h.messages[:h.size-1]
	}
	h.messages = append(h.messages, msg)
}

func (h *ChatHistory) Messages() []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(h.messages))
	copy(out, h.messages)
	return out
}
