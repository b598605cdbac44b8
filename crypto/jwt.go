package crypto

import (
	"errors"
	"fmt"
	"sketchroom/domain"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// inviteClaims binds an invite to one room id.
type inviteClaims struct {
	Room string `json:"room"`
	jwt.RegisteredClaims
}

// InviteManager mints and checks room invites. An invite lets its holder join
// a locked room without typing the passcode; minting one requires the passcode.
type InviteManager struct {
	secretKey []byte
	maxAge    time.Duration
}

func NewInviteManager(secretKey string, maxAge time.Duration) *InviteManager {
	return &InviteManager{
		secretKey: []byte(secretKey),
		maxAge:    maxAge,
	}
}

func (m *InviteManager) Generate(roomId string, now time.Time) (string, error) {
	claims := inviteClaims{
		Room: roomId,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secretKey)

	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.UnexpectedTokenGenerationError, err)
	}

	return signedToken, nil
}

// Verify returns the room id the invite was minted for.
func (m *InviteManager) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &inviteClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidSigningAlg
		}
		return m.secretKey, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSigningAlg):
			return "", err
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", domain.ErrExpiredToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return "", domain.ErrInvalidTokenSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", domain.ErrCorruptedToken
		default:
			return "", fmt.Errorf("%w: %w", domain.UnexpectedTokenVerificationError, err)
		}
	}

	if claims, ok := token.Claims.(*inviteClaims); ok && token.Valid && claims.Room != "" {
		return claims.Room, nil
	}

	return "", domain.ErrCorruptedToken
}
