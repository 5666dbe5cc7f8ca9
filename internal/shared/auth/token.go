package auth

import (
	"fmt"
	"time"

	"github.com/carebridge/platform/internal/shared/config"
	"github.com/carebridge/platform/internal/shared/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// IssueToken creates a signed session token for the caregiver
func IssueToken(cfg config.AuthConfig, caregiverID types.ID, name string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caregiverID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TokenTTL)),
			Issuer:    "carebridge",
		},
		Name:      name,
		SessionID: uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
