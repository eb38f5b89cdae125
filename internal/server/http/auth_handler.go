// Package http exposes the REST API, the notification stream and the
// middleware that guards them.
package http

import (
	"encoding/base64"
	"net/http"
	"time"

	authapp "taskhub/internal/auth/app"
	authdomain "taskhub/internal/auth/domain"
	"taskhub/internal/logging"
)

const refreshCookieName = "taskhub_refresh_token"

// AuthHandler manages the account endpoints.
type AuthHandler struct {
	service *authapp.Service
	logger  logging.Logger
	secure  bool
}

// NewAuthHandler builds an authentication handler. secure controls the
// cookie flags and should be true behind TLS.
func NewAuthHandler(service *authapp.Service, secure bool) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logging.NewComponentLogger("AuthHandler"),
		secure:  secure,
	}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	DisplayName *string         `json:"display_name"`
	Preferences *preferencesDTO `json:"preferences"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type tokenResponse struct {
	AccessToken    string    `json:"access_token"`
	ExpiresAt      time.Time `json:"expires_at"`
	RefreshExpires time.Time `json:"refresh_expires_at"`
	User           userDTO   `json:"user"`
}

type userDTO struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	DisplayName string         `json:"display_name"`
	Preferences preferencesDTO `json:"preferences"`
}

type preferencesDTO struct {
	Timezone             string `json:"timezone"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
	DefaultLockAfterDue  bool   `json:"default_lock_after_due"`
}

// HandleRegister processes POST /api/auth/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req registerRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	user, err := h.service.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(user))
}

// HandleLogin processes POST /api/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req loginRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	pair, err := h.service.LoginWithPassword(r.Context(), req.Email, req.Password, r.UserAgent(), clientIP(r))
	if err != nil {
		writeAuthError(w, err)
		return
	}
	h.writeTokenResponse(w, r, pair)
}

// HandleRefresh processes POST /api/auth/refresh. The refresh token travels
// in an HttpOnly cookie and rotates on every call.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	token := h.readRefreshCookie(r)
	if token == "" {
		http.Error(w, "refresh token required", http.StatusUnauthorized)
		return
	}
	pair, err := h.service.RefreshAccessToken(r.Context(), token, r.UserAgent(), clientIP(r))
	if err != nil {
		h.clearRefreshCookie(w)
		writeAuthError(w, err)
		return
	}
	h.writeTokenResponse(w, r, pair)
}

// HandleLogout processes POST /api/auth/logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if token := h.readRefreshCookie(r); token != "" {
		if err := h.service.Logout(r.Context(), token); err != nil {
			h.logger.Warn("logout: %v", err)
		}
	}
	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe processes GET /api/auth/me and PATCH /api/auth/me.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, toUserDTO(user))
	case http.MethodPatch:
		h.handleUpdateProfile(w, r, user)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AuthHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request, user authdomain.User) {
	var req updateProfileRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	var prefs *authdomain.Preferences
	if req.Preferences != nil {
		if _, err := time.LoadLocation(req.Preferences.Timezone); err != nil {
			http.Error(w, "unknown timezone", http.StatusBadRequest)
			return
		}
		prefs = &authdomain.Preferences{
			Timezone:             req.Preferences.Timezone,
			NotificationsEnabled: req.Preferences.NotificationsEnabled,
			DefaultLockAfterDue:  req.Preferences.DefaultLockAfterDue,
		}
	}
	updated, err := h.service.UpdateProfile(r.Context(), user.ID, req.DisplayName, prefs)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(updated))
}

// HandlePassword processes PUT /api/auth/password.
func (h *AuthHandler) HandlePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user, ok := CurrentUser(r.Context())
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}
	var req changePasswordRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if err := h.service.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeAuthError(w, err)
		return
	}
	// Every session is revoked, so the cookie is dead weight now.
	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) writeTokenResponse(w http.ResponseWriter, r *http.Request, pair authdomain.TokenPair) {
	claims, err := h.service.ParseAccessToken(r.Context(), pair.AccessToken)
	if err != nil {
		http.Error(w, "token issue failed", http.StatusInternalServerError)
		return
	}
	user, err := h.service.GetUser(r.Context(), claims.Subject)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	h.setRefreshCookie(w, pair.RefreshToken, pair.RefreshExpiry)
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:    pair.AccessToken,
		ExpiresAt:      pair.AccessExpiry,
		RefreshExpires: pair.RefreshExpiry,
		User:           toUserDTO(user),
	})
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    base64.StdEncoding.EncodeToString([]byte(token)),
		Path:     "/api/auth",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: h.sameSiteMode(),
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/api/auth",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: h.sameSiteMode(),
	})
}

func (h *AuthHandler) sameSiteMode() http.SameSite {
	if h.secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func (h *AuthHandler) readRefreshCookie(r *http.Request) string {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(cookie.Value)
	if err != nil {
		return ""
	}
	return string(decoded)
}

func toUserDTO(user authdomain.User) userDTO {
	return userDTO{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Preferences: preferencesDTO{
			Timezone:             user.Preferences.Timezone,
			NotificationsEnabled: user.Preferences.NotificationsEnabled,
			DefaultLockAfterDue:  user.Preferences.DefaultLockAfterDue,
		},
	}
}
