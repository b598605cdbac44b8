package game

import "errors"

var ErrSendBufferFull = errors.New("send-buffer-full")
