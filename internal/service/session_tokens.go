package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionTokens emite e valida os tokens de sessão que o terminal leva de
// um POST ao seguinte. O token é só identidade de conversa (claim sid),
// não credencial: token ausente ou inválido significa sessão nova, nunca
// erro.
type SessionTokens struct {
	secret []byte
	ttl    time.Duration
}

// SessionClaims são os claims dos tokens de sessão.
type SessionClaims struct {
	SID  string `json:"sid"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// NewSessionTokens cria o emissor de tokens de sessão.
func NewSessionTokens(secret []byte, ttl time.Duration) *SessionTokens {
	return &SessionTokens{secret: secret, ttl: ttl}
}

// Mint assina um token HS256 para a sessão dada.
func (t *SessionTokens) Mint(sessionID string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		SID:  sessionID,
		Type: "session",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			Issuer:    "zoopia-api",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Resolve devolve o id de sessão do token, ou um id novo quando o token
// está ausente, inválido ou expirado.
func (t *SessionTokens) Resolve(tokenString string) string {
	if tokenString == "" {
		return uuid.NewString()
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(tk *jwt.Token) (any, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tk.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return uuid.NewString()
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Type != "session" || claims.SID == "" {
		return uuid.NewString()
	}
	return claims.SID
}
