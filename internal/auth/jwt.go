package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeAdmin marks tokens issued to dashboard admins.
const TokenTypeAdmin = "admin"

// DefaultExpiry is the lifetime of an admin token.
const DefaultExpiry = 24 * time.Hour

const issuer = "feedback-service"

// Claims represents the JWT claims for an admin token.
type Claims struct {
	AdminID string `json:"admin_id"`
	Email   string `json:"email"`
	Type    string `json:"type"`
	jwt.RegisteredClaims
}

// JWTManager handles admin token generation and validation.
type JWTManager struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewJWTManager creates a new JWT manager with the given secret and expiry.
func NewJWTManager(secret string, expiry time.Duration) *JWTManager {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &JWTManager{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// GenerateToken creates a signed HS256 token for an admin.
func (m *JWTManager) GenerateToken(adminID, email string) (string, error) {
	now := m.now().UTC()
	claims := &Claims{
		AdminID: adminID,
		Email:   email,
		Type:    TokenTypeAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken parses and validates an admin token, returning the claims.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("parse admin token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid admin token claims")
	}
	if claims.Type != TokenTypeAdmin || claims.AdminID == "" {
		return nil, fmt.Errorf("token is not an admin token")
	}

	return claims, nil
}
