package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"line-fortune-subscription/internal/domain"
)

// ===== Session/JWT primitives =====

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type AuthConfig struct {
	HMACSecret   []byte
	CookieName   string
	SecureCookie bool
	TTL          time.Duration
}

type AuthManager struct{ cfg AuthConfig }

func NewAuthManager(secret string, secure bool, ttl time.Duration) *AuthManager {
	return &AuthManager{cfg: AuthConfig{
		HMACSecret:   []byte(secret),
		CookieName:   "session",
		SecureCookie: secure, // true in prod (TLS)
		TTL:          ttl,
	}}
}

// Principal is the authenticated caller, independent of how the token
// arrived (cookie or bearer header).
type Principal struct {
	Subject string
	Role    string
}

// Require is the single capability check: the principal must hold one of
// the listed roles.
func Require(p *Principal, roles ...string) error {
	if p == nil {
		return domain.ErrUnauthorized
	}
	for _, role := range roles {
		if p.Role == role {
			return nil
		}
	}
	return domain.ErrUnauthorized
}

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Mint signs a session token for the subject and sets it as a cookie.
func (a *AuthManager) Mint(w http.ResponseWriter, subject, role string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.TTL)),
			Subject:   subject,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.cfg.HMACSecret)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(a.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   a.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	return signed, nil
}

func (a *AuthManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

// ParseFromRequest accepts Authorization: Bearer <jwt> or the session
// cookie.
func (a *AuthManager) ParseFromRequest(r *http.Request) (*Principal, error) {
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
			return a.parse(strings.TrimSpace(hdr[7:]))
		}
	}
	if c, err := r.Cookie(a.cfg.CookieName); err == nil {
		return a.parse(c.Value)
	}
	return nil, domain.ErrUnauthorized
}

func (a *AuthManager) parse(tok string) (*Principal, error) {
	claims := &sessionClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.cfg.HMACSecret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, domain.ErrUnauthorized
	}
	return &Principal{Subject: claims.Subject, Role: claims.Role}, nil
}

// ===== Request context =====

type ctxKey string

const principalKey ctxKey = "principal"

func withPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the authenticated caller stored by the auth
// middleware, or nil.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}
