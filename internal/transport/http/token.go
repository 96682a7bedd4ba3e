package httptransport

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"medvault/internal/domain"
	"medvault/pkg/requestcontext"
)

// defaultTokenTTL bounds how long a minted session token stays valid.
const defaultTokenTTL = 12 * time.Hour

// TokenIssuer mints and validates the HS256 session tokens handed to the UI
// collaborator after login. Tokens are a transport concern; the core never
// sees them.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
}

func NewTokenIssuer(key []byte) *TokenIssuer {
	return &TokenIssuer{key: key, ttl: defaultTokenTTL}
}

// Issue mints a token carrying the actor's user id and role.
func (t *TokenIssuer) Issue(userID int64, role domain.Role, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"role": role.String(),
		"iat":  now.Unix(),
		"exp":  now.Add(t.ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and recovers the actor it was minted for. The role
// claim is checked against the closed set; a token carrying an unknown role is
// rejected outright.
func (t *TokenIssuer) Parse(tokenString string) (requestcontext.Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.key, nil
	})
	if err != nil {
		return requestcontext.Actor{}, fmt.Errorf("parse session token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return requestcontext.Actor{}, fmt.Errorf("invalid session token")
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return requestcontext.Actor{}, fmt.Errorf("session token subject: %w", err)
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return requestcontext.Actor{}, fmt.Errorf("session token subject is not a user id: %w", err)
	}

	rawRole, _ := claims["role"].(string)
	role, err := domain.ParseRole(rawRole)
	if err != nil {
		return requestcontext.Actor{}, err
	}

	return requestcontext.Actor{UserID: userID, Role: role}, nil
}
