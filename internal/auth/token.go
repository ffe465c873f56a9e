// token.go — bearer-токены HS256 для API-клиентов.
// Токен несёт только идентификатор сессии (sid): сама сессия
// остаётся в хранилище, поэтому выход отзывает токен.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bigkaa/brigadas/internal/domain/model"
)

// ErrTokensDisabled — секрет не настроен, выдача токенов отключена.
var ErrTokensDisabled = errors.New("bearer-токены отключены")

// Claims — claims bearer-токена.
type Claims struct {
	SessionID     string `json:"sid"`
	Role          string `json:"role"`
	InstitutionID int64  `json:"inst"`
	jwt.RegisteredClaims
}

// TokenIssuer выдаёт и проверяет bearer-токены.
type TokenIssuer struct {
	secret []byte
	issuer string
}

// NewTokenIssuer создаёт выпускающего. Пустой secret отключает токены.
func NewTokenIssuer(secret, issuer string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), issuer: issuer}
}

// Enabled сообщает, настроен ли секрет.
func (t *TokenIssuer) Enabled() bool { return len(t.secret) > 0 }

// Issue подписывает токен для сессии; срок совпадает с ExpiresAt сессии.
func (t *TokenIssuer) Issue(s *model.Session) (string, error) {
	if !t.Enabled() {
		return "", ErrTokensDisabled
	}

	claims := Claims{
		SessionID:     s.ID,
		Role:          string(s.Role),
		InstitutionID: s.InstitutionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(s.UserID, 10),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return signed, nil
}

// Parse проверяет подпись, issuer и срок действия, возвращает claims.
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	if !t.Enabled() {
		return nil, ErrTokensDisabled
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("некорректный токен: %w", err)
	}
	if !token.Valid || claims.SessionID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
