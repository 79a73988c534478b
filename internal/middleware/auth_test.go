// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/meetstack/backend/internal/core"
)

type stubVerifier struct {
	claims *AccessTokenClaims
	err    error
}

func (s stubVerifier) VerifyAccessToken(context.Context, string) (*AccessTokenClaims, error) {
	return s.claims, s.err
}

type stubSyncer struct {
	principal *Principal
	err       error
	calls     int
}

func (s *stubSyncer) SyncPrincipal(context.Context, *AccessTokenClaims) (*Principal, error) {
	s.calls++
	return s.principal, s.err
}

type stubRevocations map[string]bool

func (s stubRevocations) IsRevoked(_ context.Context, token string) (bool, error) {
	return s[token], nil
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body core.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error.Code
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    string
		wantErr bool
		missing bool
	}{
		{name: "valid", headers: []string{"Bearer abc.def.ghi"}, want: "abc.def.ghi"},
		{name: "lowercase scheme", headers: []string{"bearer abc"}, want: "abc"},
		{name: "missing", missing: true, wantErr: true},
		{name: "blank", headers: []string{"   "}, missing: true, wantErr: true},
		{name: "wrong scheme", headers: []string{"Basic dXNlcjpwYXNz"}, wantErr: true},
		{name: "no credentials", headers: []string{"Bearer"}, wantErr: true},
		{name: "multiple tokens", headers: []string{"Bearer one two"}, wantErr: true},
		{name: "multiple headers", headers: []string{"Bearer one", "Bearer two"}, wantErr: true},
		{name: "non utf8", headers: []string{"Bearer \xff\xfe"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			for _, h := range tt.headers {
				r.Header.Add("Authorization", h)
			}

			got, err := ExtractToken(r)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}

			require.Error(t, err)
			assert.Equal(t, tt.missing, errors.Is(err, core.ErrMissingToken))
			appErr, ok := core.FromError(err)
			require.True(t, ok)
			assert.Equal(t, http.StatusUnauthorized, appErr.StatusCode)
		})
	}
}

func TestAuthenticator_PopulatesContext(t *testing.T) {
	claims := &AccessTokenClaims{Subject: "sub-1", Email: "a@x.com"}
	syncer := &stubSyncer{principal: &Principal{ProfileID: "sub-1", Email: "a@x.com"}}

	var gotProfile, gotToken string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotProfile = GetProfileID(r.Context())
		gotToken = GetToken(r.Context())
		assert.Equal(t, claims, GetClaims(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})

	h := Authenticator(stubVerifier{claims: claims}, syncer, nil)(next)

	r := httptest.NewRequest(http.MethodGet, "/events", nil)
	r.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "sub-1", gotProfile)
	assert.Equal(t, "tok", gotToken)
	assert.Equal(t, 1, syncer.calls)
}

func TestAuthenticator_Rejections(t *testing.T) {
	okClaims := &AccessTokenClaims{Subject: "sub-1"}

	tests := []struct {
		name     string
		header   string
		verifier stubVerifier
		syncer   *stubSyncer
		revoked  stubRevocations
		status   int
		code     string
	}{
		{
			name:     "missing header",
			verifier: stubVerifier{claims: okClaims},
			syncer:   &stubSyncer{},
			status:   http.StatusUnauthorized,
			code:     "UNAUTHORIZED",
		},
		{
			name:     "expired token",
			header:   "Bearer tok",
			verifier: stubVerifier{err: core.ErrTokenExpired},
			syncer:   &stubSyncer{},
			status:   http.StatusUnauthorized,
			code:     "TOKEN_EXPIRED",
		},
		{
			name:     "revoked token",
			header:   "Bearer tok",
			verifier: stubVerifier{claims: okClaims},
			syncer:   &stubSyncer{},
			revoked:  stubRevocations{"tok": true},
			status:   http.StatusUnauthorized,
			code:     "TOKEN_REVOKED",
		},
		{
			name:     "sync failure",
			header:   "Bearer tok",
			verifier: stubVerifier{claims: okClaims},
			syncer:   &stubSyncer{err: &core.ProfileSyncError{Subject: "sub-1", Err: errors.New("db")}},
			status:   http.StatusInternalServerError,
			code:     "PROFILE_SYNC_ERROR",
		},
		{
			name:     "suspended profile",
			header:   "Bearer tok",
			verifier: stubVerifier{claims: okClaims},
			syncer:   &stubSyncer{principal: &Principal{ProfileID: "sub-1", Suspended: true}},
			status:   http.StatusForbidden,
			code:     "FORBIDDEN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatal("next handler must not run")
			})

			var revocations RevocationChecker
			if tt.revoked != nil {
				revocations = tt.revoked
			}

			h := Authenticator(tt.verifier, tt.syncer, revocations)(next)

			r := httptest.NewRequest(http.MethodGet, "/events", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestRequireStaff(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RequireStaff(next)

	r := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	r = r.WithContext(WithPrincipal(r.Context(), &Principal{ProfileID: "p"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	r = httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	r = r.WithContext(WithPrincipal(r.Context(), &Principal{ProfileID: "p", IsStaff: true}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
}
