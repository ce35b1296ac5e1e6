package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/linkdropapp/linkdrop/internal/app/service"
	"github.com/linkdropapp/linkdrop/internal/mocks"
)

func authedNext(t *testing.T, wantUserID, wantAAL string, called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		assert.Equal(t, wantUserID, r.Context().Value(UserIDKey))
		assert.Equal(t, wantAAL, r.Context().Value(AALKey))
		w.WriteHeader(http.StatusOK)
	})
}

func TestWithAuthMissingToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthIface(ctrl)

	called := false
	h := WithAuth(mockAuth)(authedNext(t, "", "", &called))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/links", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.False(t, called)
}

func TestWithAuthInvalidToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthIface(ctrl)
	mockAuth.EXPECT().ParseRawJWT("garbage").Return(nil, assert.AnError)

	called := false
	h := WithAuth(mockAuth)(authedNext(t, "", "", &called))

	req := httptest.NewRequest(http.MethodGet, "/api/links", nil)
	req.Header.Set("Authorization", "Bearer garbage")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestWithAuthBearerHeader(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthIface(ctrl)
	mockAuth.EXPECT().ParseRawJWT("goodtoken").
		Return(&service.Claims{UserID: "user-1", AAL: "aal2"}, nil)

	called := false
	h := WithAuth(mockAuth)(authedNext(t, "user-1", "aal2", &called))

	req := httptest.NewRequest(http.MethodGet, "/api/links", nil)
	req.Header.Set("Authorization", "Bearer goodtoken")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestWithAuthCookieFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthIface(ctrl)
	mockAuth.EXPECT().ParseRawJWT("cookietoken").
		Return(&service.Claims{UserID: "user-2", AAL: "aal1"}, nil)

	called := false
	h := WithAuth(mockAuth)(authedNext(t, "user-2", "aal1", &called))

	req := httptest.NewRequest(http.MethodGet, "/api/links", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "cookietoken"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}
