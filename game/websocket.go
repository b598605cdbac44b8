package game

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pongWait       = time.Minute
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

// gorillaWebsocket serializes writes since both pumps may close the socket.
type gorillaWebsocket struct {
	socket    *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func NewGorillaWebSocketWrapper(conn *websocket.Conn) *gorillaWebsocket {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	return &gorillaWebsocket{socket: conn}
}

// Write sends JSON packets as text frames and everything else as binary.
func (wc *gorillaWebsocket) Write(data []byte) error {
	messageType := websocket.BinaryMessage
	if len(data) > 0 && data[0] == '{' {
		messageType = websocket.TextMessage
	}
	wc.writeMu.Lock()
	defer wc.writeMu.Unlock()
	wc.socket.SetWriteDeadline(time.Now().Add(writeWait))
	return wc.socket.WriteMessage(messageType, data)
}

func (wc *gorillaWebsocket) Ping() error {
	wc.writeMu.Lock()
	defer wc.writeMu.Unlock()
	return wc.socket.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (wc *gorillaWebsocket) Read() ([]byte, error) {
	_, p, err := wc.socket.ReadMessage()
	return p, err
}

func (wc *gorillaWebsocket) Close() {
	wc.closeOnce.Do(func() {
		wc.writeMu.Lock()
		wc.socket.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		wc.writeMu.Unlock()
		wc.socket.Close()
	})
}
