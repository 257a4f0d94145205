package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halaqah-app/halaqah/internal/auth"
	"github.com/halaqah-app/halaqah/internal/role"
)

func newGate() *auth.Gate {
	return auth.NewGate(auth.NewIssuer("test-secret", "halaqah", time.Hour), auth.NewMemoryRevoker())
}

func TestIssuer_RoundTrip(t *testing.T) {
	iss := auth.NewIssuer("test-secret", "halaqah", time.Hour)

	token, issued, err := iss.Issue(42, role.Teacher)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.TokenID)

	p, err := iss.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.UserID)
	assert.Equal(t, role.Teacher, p.Role)
	assert.Equal(t, issued.TokenID, p.TokenID)
	assert.WithinDuration(t, issued.ExpiresAt, p.ExpiresAt, time.Second)
}

func TestIssuer_Rejects(t *testing.T) {
	iss := auth.NewIssuer("test-secret", "halaqah", time.Hour)
	good, _, err := iss.Issue(1, role.Student)
	require.NoError(t, err)

	otherSecret, _, err := auth.NewIssuer("other", "halaqah", time.Hour).Issue(1, role.Student)
	require.NoError(t, err)
	otherIssuer, _, err := auth.NewIssuer("test-secret", "someone-else", time.Hour).Issue(1, role.Student)
	require.NoError(t, err)
	expired, _, err := auth.NewIssuer("test-secret", "halaqah", -time.Minute).Issue(1, role.Student)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "1", "role": "developer", "iss": "halaqah", "jti": "x",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1", "role": "admin", "iss": "halaqah", "jti": "x",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"tampered", good + "x"},
		{"other secret", otherSecret},
		{"other issuer", otherIssuer},
		{"expired", expired},
		{"alg none", none},
		{"unknown role", badRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := iss.Verify(tt.token)
			assert.ErrorIs(t, err, auth.ErrUnauthorized)
		})
	}
}

func TestGate_Logout(t *testing.T) {
	ctx := context.Background()
	g := newGate()

	token, _, err := g.Login(7, role.Student)
	require.NoError(t, err)

	p, err := g.Authenticate(ctx, token)
	require.NoError(t, err)

	require.NoError(t, g.Logout(ctx, *p))

	_, err = g.Authenticate(ctx, token)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestMemoryRevoker_IgnoresExpired(t *testing.T) {
	ctx := context.Background()
	r := auth.NewMemoryRevoker()

	require.NoError(t, r.Revoke(ctx, "gone", 0))
	revoked, err := r.IsRevoked(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, "live", time.Minute))
	revoked, err = r.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRequire(t *testing.T) {
	g := newGate()
	token, _, err := g.Login(3, role.VIP)
	require.NoError(t, err)

	var got auth.Principal
	h := g.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusNoContent},
		{"lowercase scheme", "bearer " + token, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/dashboard_stats", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
			}
		})
	}

	assert.Equal(t, int64(3), got.UserID)
	assert.Equal(t, role.VIP, got.Role)
}

func TestRequireTeacher(t *testing.T) {
	g := newGate()
	h := g.RequireTeacher(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, r := range role.All {
		t.Run(r.String(), func(t *testing.T) {
			token, _, err := g.Login(1, r)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/api/connect_to_teacher", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			want := http.StatusForbidden
			if r.CanTeach() {
				want = http.StatusNoContent
			}
			assert.Equal(t, want, w.Code)
		})
	}
}
