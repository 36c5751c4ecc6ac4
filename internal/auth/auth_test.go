package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashAndVerify(t *testing.T) {
	hash, salt, err := HashPassword("SecurePass123!")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.NotEmpty(t, salt)

	ok, err := VerifyPassword("SecurePass123!", salt, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("WrongPass", salt, hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHashesAreSalted(t *testing.T) {
	hash1, _, err := HashPassword("same password")
	require.NoError(t, err)
	hash2, _, err := HashPassword("same password")
	require.NoError(t, err)
	assert.NotEqual(t, hash1, hash2)
}

func TestTokenIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue(42, "reader@example.com", RoleBorrower)
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", claims.Email)
	assert.Equal(t, RoleBorrower, claims.Role)
	assert.NotEmpty(t, claims.ID, "tokens carry a unique jti")

	id, err := claims.SubjectID()
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
}

func TestTokenRejectedAcrossSecrets(t *testing.T) {
	token, err := NewTokenIssuer("secret-a", time.Hour).Issue(1, "a@b.c", RoleAdmin)
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret-b", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenRejected(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)
	token, err := issuer.Issue(1, "a@b.c", RoleBorrower)
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequireMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		require.True(t, ok)
		assert.EqualValues(t, 7, p.ID)
		w.WriteHeader(http.StatusOK)
	})

	borrowerToken, err := issuer.Issue(7, "b@example.com", RoleBorrower)
	require.NoError(t, err)
	adminToken, err := issuer.Issue(7, "a@example.com", RoleAdmin)
	require.NoError(t, err)

	cases := []struct {
		name   string
		gate   Role
		header string
		want   int
	}{
		{"no token", RoleBorrower, "", http.StatusUnauthorized},
		{"garbage token", RoleBorrower, "Bearer not.a.jwt", http.StatusForbidden},
		{"borrower on borrower route", RoleBorrower, "Bearer " + borrowerToken, http.StatusOK},
		{"admin on borrower route", RoleBorrower, "Bearer " + adminToken, http.StatusOK},
		{"borrower on admin route", RoleAdmin, "Bearer " + borrowerToken, http.StatusForbidden},
		{"admin on admin route", RoleAdmin, "Bearer " + adminToken, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			issuer.Require(tc.gate)(next).ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestIPRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(3, time.Minute)
	defer limiter.Close()
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	hit := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit("10.0.0.1:1234"))
	}
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2:1234"), "other clients keep their own budget")
}

func TestIPRateLimiterClose(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Millisecond)
	limiter.Close()

	// Closing releases the pruner; the limiter itself keeps working.
	assert.True(t, limiter.allow("10.0.0.1"))
}
