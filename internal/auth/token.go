package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrMissingSubject = errors.New("token has no subject")
	ErrMissingSecret  = errors.New("jwt secret is not configured")
)

// Claims - полезная нагрузка токена внешнего провайдера: sub + role
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// UserID - идентификатор пользователя из sub
func (c *Claims) UserID() string {
	return c.Subject
}

// TokenParser проверяет HS256 токены. Токены выпускает внешний слой аутентификации,
// Issue используется для первого администратора и в тестах.
type TokenParser struct {
	secret []byte
}

func NewTokenParser(secret string) *TokenParser {
	return &TokenParser{secret: []byte(secret)}
}

func (p *TokenParser) Parse(tokenString string) (*Claims, error) {
	if len(p.secret) == 0 {
		return nil, ErrMissingSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

func (p *TokenParser) Issue(userID, role string, ttl time.Duration) (string, error) {
	if len(p.secret) == 0 {
		return "", ErrMissingSecret
	}
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}
