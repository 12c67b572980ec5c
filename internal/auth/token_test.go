package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"petcare/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestIssueAndParseUserToken(t *testing.T) {
	user := &db.User{ID: 7, Phone: "+15550001111", Role: db.RoleCustomer}
	token, err := IssueUserToken(testSecret, user, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "+15550001111", claims.Phone)
	assert.Equal(t, db.RoleCustomer, claims.Role)
}

func TestParseTokenWrongSecret(t *testing.T) {
	user := &db.User{ID: 7, Role: db.RoleCustomer}
	token, err := IssueUserToken(testSecret, user, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("other-secret", token)
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	user := &db.User{ID: 7, Role: db.RoleCustomer}
	token, err := IssueUserToken(testSecret, user, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(testSecret, token)
	assert.Error(t, err)
}

func TestAdminTokenCarriesAdminRole(t *testing.T) {
	token, err := IssueAdminToken(testSecret, 1, "admin@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, "admin@example.com", claims.Subject)
}

func middlewareProbe() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	next, called := middlewareProbe()
	handler := Middleware(testSecret)(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
}

func TestMiddlewareRoleEnforcement(t *testing.T) {
	customer, err := IssueUserToken(testSecret, &db.User{ID: 1, Role: db.RoleCustomer}, time.Hour)
	require.NoError(t, err)
	doctor, err := IssueUserToken(testSecret, &db.User{ID: 2, Role: db.RoleDoctor}, time.Hour)
	require.NoError(t, err)
	admin, err := IssueAdminToken(testSecret, 3, "admin@example.com", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name       string
		middleware func(http.Handler) http.Handler
		token      string
		want       int
	}{
		{"customer on user routes", Middleware(testSecret), customer, http.StatusOK},
		{"doctor on user routes", Middleware(testSecret), doctor, http.StatusOK},
		{"admin on user routes", Middleware(testSecret), admin, http.StatusForbidden},
		{"customer on doctor routes", DoctorMiddleware(testSecret), customer, http.StatusForbidden},
		{"doctor on doctor routes", DoctorMiddleware(testSecret), doctor, http.StatusOK},
		{"customer on admin routes", AdminMiddleware(testSecret), customer, http.StatusForbidden},
		{"admin on admin routes", AdminMiddleware(testSecret), admin, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, _ := middlewareProbe()
			handler := tc.middleware(next)

			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestFromContextRoundTrip(t *testing.T) {
	token, err := IssueUserToken(testSecret, &db.User{ID: 5, Role: db.RoleCustomer}, time.Hour)
	require.NoError(t, err)

	var got *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := FromContext(r.Context())
		require.True(t, ok)
		got = claims
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	Middleware(testSecret)(next).ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.Equal(t, 5, got.UserID)
}
