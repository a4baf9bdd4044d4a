package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prperemyshlev/hh-autoapply/internal/domain"
)

// JWTManager issues and validates service session tokens
type JWTManager struct {
	secret     []byte
	sessionTTL time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret string, sessionTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
	}
}

// GenerateSessionToken signs a session token for the local user
func (j *JWTManager) GenerateSessionToken(userID string) (string, *domain.SessionClaims, error) {
	now := time.Now()
	claims := &domain.SessionClaims{
		ID:     uuid.New().String(),
		UserID: userID,
		Exp:    now.Add(j.sessionTTL).Unix(),
		Iat:    now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"jti":     claims.ID,
		"user_id": claims.UserID,
		"exp":     claims.Exp,
		"iat":     claims.Iat,
		"type":    "session",
	})

	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, claims, nil
}

// ValidateSessionToken validates a session token and returns its claims
func (j *JWTManager) ValidateSessionToken(tokenString string) (*domain.SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	if claims["type"] != "session" {
		return nil, fmt.Errorf("invalid token type")
	}

	jti, ok := claims["jti"].(string)
	if !ok || jti == "" {
		return nil, fmt.Errorf("invalid jti in token")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("invalid user_id in token")
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid exp in token")
	}

	iat, ok := claims["iat"].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid iat in token")
	}

	sessionClaims := &domain.SessionClaims{
		ID:     jti,
		UserID: userID,
		Exp:    int64(exp),
		Iat:    int64(iat),
	}

	if sessionClaims.IsExpired() {
		return nil, fmt.Errorf("token is expired")
	}

	return sessionClaims, nil
}

// SessionTTL returns the session lifetime in seconds
func (j *JWTManager) SessionTTL() int {
	return int(j.sessionTTL.Seconds())
}
