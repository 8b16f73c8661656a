package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	sessionCookie = "session"
)

// AuthManager mints and verifies the HS256 bearer tokens issued by the sign-in
// service. Tokens are read from the Authorization header or the session cookie.
type AuthManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthManager(secret string, ttl time.Duration) *AuthManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() *model.Identity {
	return &model.Identity{UserID: c.Subject, Email: c.Email}
}

func (c *Claims) IsAdmin() bool { return c.Role == RoleAdmin }

// Mint signs a token for userID. An empty role defaults to user.
func (a *AuthManager) Mint(userID, email, role string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", domain.ErrInvalidArgument
	}
	if role == "" {
		role = RoleUser
	}
	if role != RoleUser && role != RoleAdmin {
		return "", domain.ErrInvalidArgument
	}
	now := a.now()
	claims := Claims{
		Email: strings.ToLower(strings.TrimSpace(email)),
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ParseFromRequest returns the verified claims or ErrUnauthenticated.
func (a *AuthManager) ParseFromRequest(r *http.Request) (*Claims, error) {
	// Authorization: Bearer <jwt>
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if len(hdr) > 7 && strings.EqualFold(hdr[:7], "bearer ") {
			return a.Parse(strings.TrimSpace(hdr[7:]))
		}
		return nil, domain.ErrUnauthenticated
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return a.Parse(c.Value)
	}
	return nil, domain.ErrUnauthenticated
}

func (a *AuthManager) Parse(tok string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !tkn.Valid {
		return nil, errors.Join(domain.ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return nil, domain.ErrUnauthenticated
	}
	return claims, nil
}
