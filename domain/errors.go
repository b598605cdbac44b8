package domain

import "errors"

// Join errors. The strings double as wire error codes in join-error packets.
var (
	ErrRoomNotFound  = errors.New("room-not-found")
	ErrRoomFull      = errors.New("room-full")
	ErrRoomClosed    = errors.New("room-closed")
	ErrWrongPasscode = errors.New("wrong-passcode")
	ErrEmptyNickname = errors.New("empty-nickname")
	ErrNicknameLong  = errors.New("nickname-too-long")
	ErrInvalidRoomId = errors.New("invalid-room-id")
	ErrInvalidJoin   = errors.New("invalid-join-packet")
)

var (
	UnexpectedPasscodeHashingError    = errors.New("unexpected-passcode-hashing-error")
	UnexpectedPasscodeComparisonError = errors.New("unexpected-passcode-comparison-error")
)

var UnexpectedDatabaseError = errors.New("unexpected-database-error")

var (
	UnexpectedTokenGenerationError   = errors.New("unexpected-token-generation-error")
	UnexpectedTokenVerificationError = errors.New("unexpected-token-verification-error")
	ErrInvalidSigningAlg             = errors.New("invalid-signing-alg")
	ErrExpiredToken                  = errors.New("expired-token")
	ErrInvalidTokenSignature         = errors.New("invalid-token-signature")
	ErrCorruptedToken                = errors.New("corrupted-token")
)
