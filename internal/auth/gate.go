package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/halaqah-app/halaqah/internal/role"
)

// Revoker remembers revoked token IDs until the tokens would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevoker is an in-process Revoker for tests and cache-less runs.
type MemoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{revoked: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryRevoker) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, until := range m.revoked {
		if !until.After(now) {
			delete(m.revoked, id)
		}
	}
	m.revoked[tokenID] = now.Add(ttl)
	return nil
}

func (m *MemoryRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	until, ok := m.revoked[tokenID]
	return ok && until.After(m.now()), nil
}

// DenyFunc writes the response for a rejected request. err is ErrUnauthorized or ErrForbidden.
type DenyFunc func(w http.ResponseWriter, r *http.Request, status int, err error)

// Gate issues sessions and authenticates requests.
type Gate struct {
	issuer  *Issuer
	revoker Revoker
	deny    DenyFunc
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithDeny replaces the default {"error": "..."} rejection body.
func WithDeny(fn DenyFunc) GateOption {
	return func(g *Gate) { g.deny = fn }
}

func NewGate(issuer *Issuer, revoker Revoker, opts ...GateOption) *Gate {
	g := &Gate{issuer: issuer, revoker: revoker, deny: writeError}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Login issues an access token for the user.
func (g *Gate) Login(userID int64, r role.Role) (string, Principal, error) {
	return g.issuer.Issue(userID, r)
}

// Authenticate verifies token and rejects revoked ones.
func (g *Gate) Authenticate(ctx context.Context, token string) (*Principal, error) {
	p, err := g.issuer.Verify(token)
	if err != nil {
		return nil, err
	}

	revoked, err := g.revoker.IsRevoked(ctx, p.TokenID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", ErrUnauthorized)
	}
	return p, nil
}

// Logout revokes the principal's token for the rest of its lifetime.
func (g *Gate) Logout(ctx context.Context, p Principal) error {
	if err := g.revoker.Revoke(ctx, p.TokenID, time.Until(p.ExpiresAt)); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	slog.Info("user logged out", "user_id", p.UserID)
	return nil
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by Require.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Require rejects requests without a valid bearer token with 401.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			g.deny(w, r, http.StatusUnauthorized, ErrUnauthorized)
			return
		}

		p, err := g.Authenticate(r.Context(), token)
		if err != nil {
			if !errors.Is(err, ErrUnauthorized) {
				slog.Error("authenticate request", "error", err)
			}
			g.deny(w, r, http.StatusUnauthorized, ErrUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), *p)))
	})
}

// RequireTeacher wraps Require and additionally rejects roles that cannot teach with 403.
func (g *Gate) RequireTeacher(next http.Handler) http.Handler {
	return g.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, _ := FromContext(r.Context())
		if !p.Role.CanTeach() {
			g.deny(w, r, http.StatusForbidden, ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeError(w http.ResponseWriter, _ *http.Request, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
