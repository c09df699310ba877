// Package jwtutil выпускает и проверяет сессионные HS256-токены.
// Токен несёт принципала и контекст тенанта; серверные проверки
// изоляции от него не зависят и выполняются в сервисном слое.
package jwtutil

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// SessionClaims — полезная нагрузка сессионного токена.
type SessionClaims struct {
	LineUserID string `json:"line_user_id"`
	TenantID   string `json:"tenant_id"`
	TenantSlug string `json:"tenant_slug,omitempty"`
	Role       string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Signer выпускает и проверяет токены одним ключом.
// Никакого глобального состояния: ключ передаётся при создании.
type Signer struct {
	key []byte
	ttl time.Duration
}

func NewSigner(key string, ttl time.Duration) *Signer {
	return &Signer{key: []byte(key), ttl: ttl}
}

// Issue выпускает токен для принципала в контексте тенанта.
func (s *Signer) Issue(lineUserID string, tenantID uuid.UUID, tenantSlug, role string) (string, error) {
	now := time.Now().UTC()
	claims := SessionClaims{
		LineUserID: lineUserID,
		TenantID:   tenantID.String(),
		TenantSlug: tenantSlug,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Subject:   lineUserID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

// Validate проверяет подпись и срок действия токена.
func (s *Signer) Validate(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}

// TenantUUID разбирает tenant_id клейма.
func (c *SessionClaims) TenantUUID() (uuid.UUID, error) {
	return uuid.Parse(c.TenantID)
}
