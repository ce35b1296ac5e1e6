package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/linkdropapp/linkdrop/internal/app/service"
)

// AuthHandler drives the OAuth sign-in flow: provider redirect with a
// state cookie, callback with code exchange and userinfo fetch, then a
// local JWT session cookie.
type AuthHandler struct {
	oauthConfig *oauth2.Config
	userinfoURL string
	sessions    *service.SessionService
	secure      bool
	logger      *zap.Logger
}

type providerUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func NewAuthHandler(oauthConfig *oauth2.Config, userinfoURL string, sessions *service.SessionService, secure bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		oauthConfig: oauthConfig,
		userinfoURL: userinfoURL,
		sessions:    sessions,
		secure:      secure,
		logger:      logger,
	}
}

func (h *AuthHandler) generateStateCookie(w http.ResponseWriter) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)

	http.SetCookie(w, &http.Cookie{
		Name:     "oauthstate",
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Secure:   h.secure,
		Path:     "/",
	})
	return state
}

// Login redirects to the identity provider.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state := h.generateStateCookie(w)
	http.Redirect(w, r, h.oauthConfig.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// Callback completes the provider flow and issues the session cookie.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauthstate")
	if err != nil || r.FormValue("state") != stateCookie.Value {
		h.logger.Warn("oauth callback with bad state")
		http.Error(w, "invalid oauth state", http.StatusBadRequest)
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		h.logger.Error("oauth code exchange failed", zap.Error(err))
		http.Error(w, "code exchange failed", http.StatusInternalServerError)
		return
	}

	resp, err := h.oauthConfig.Client(r.Context(), token).Get(h.userinfoURL)
	if err != nil {
		h.logger.Error("userinfo fetch failed", zap.Error(err))
		http.Error(w, "failed getting user info", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	var user providerUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		http.Error(w, "failed decoding user info", http.StatusInternalServerError)
		return
	}

	if user.Email == "" {
		http.Error(w, "provider did not return an email", http.StatusForbidden)
		return
	}

	_, jwtToken, err := h.sessions.CompleteSignIn(r.Context(), user.Email, user.Name, r.Header.Get("X-Real-IP"))
	if err != nil {
		h.logger.Error("sign-in completion failed", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    jwtToken,
		Expires:  time.Now().Add(service.TokenExp),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/dashboard", http.StatusTemporaryRedirect)
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
	})
	w.WriteHeader(http.StatusNoContent)
}
