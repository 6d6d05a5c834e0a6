// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/tourguide/internal/config"
	"github.com/carterperez-dev/tourguide/internal/core"
	"github.com/carterperez-dev/tourguide/internal/middleware"
)

type Handler struct {
	service *Service
	session config.SessionConfig
}

func NewHandler(service *Service, sessionCfg config.SessionConfig) *Handler {
	return &Handler{
		service: service,
		session: sessionCfg,
	}
}

// RegisterRoutes mounts /auth. authLimiter guards the credential
// endpoints; optionalAuth lets logout see the current token when present.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, optionalAuth, authLimiter func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authLimiter)
			r.Post("/login", h.Login)
			r.Post("/register", h.Register)
		})

		r.Post("/refresh", h.Refresh)
		r.With(optionalAuth).Post("/logout", h.Logout)
		r.With(authenticator).Post("/logout-all", h.LogoutAll)
		r.Get("/access-denied", h.AccessDenied)

		r.Get("/external/{provider}", h.BeginExternalLogin)
		r.Get("/external/{provider}/callback", h.ExternalLoginCallback)

		r.With(authenticator).Get("/me", h.GetMe)
	})
}

type registerInput struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	ReturnURL   string `json:"return_url,omitempty"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	session, err := h.service.Register(r.Context(), req, clientMeta(r))
	if err != nil {
		if appErr, ok := core.AsAppError(err); ok {
			core.JSONErrorWithInput(w, appErr, registerInput{
				FullName:    req.FullName,
				Email:       req.Email,
				PhoneNumber: req.PhoneNumber,
				ReturnURL:   req.ReturnURL,
			})
			return
		}
		core.InternalServerError(w, err)
		return
	}

	h.setSessionCookies(w, session)
	core.Created(w, toAuthResponse(session))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	session, err := h.service.Login(r.Context(), req, clientMeta(r))
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			core.JSONError(
				w,
				core.UnauthorizedError("Invalid email or password."),
			)
			return
		}
		core.JSONError(w, err)
		return
	}

	h.setSessionCookies(w, session)
	core.OK(w, toAuthResponse(session))
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil &&
		!errors.Is(err, io.EOF) {
		core.BadRequest(w, "invalid request body")
		return
	}

	token := req.RefreshToken
	if token == "" {
		token = h.cookieValue(r, h.session.RefreshCookie)
	}

	session, err := h.service.Refresh(r.Context(), token, clientMeta(r))
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenReuse):
			h.clearSessionCookies(w)
			core.JSONError(w, core.NewAppError(
				core.ErrTokenRevoked,
				"security alert: token reuse detected, all sessions revoked",
				http.StatusUnauthorized,
				"TOKEN_REUSE_DETECTED",
			))
		case errors.Is(err, core.ErrTokenExpired):
			core.JSONError(w, core.TokenExpiredError())
		case errors.Is(err, core.ErrTokenRevoked):
			core.JSONError(w, core.TokenRevokedError())
		case errors.Is(err, core.ErrTokenInvalid):
			core.JSONError(w, core.TokenInvalidError())
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	h.setSessionCookies(w, session)
	core.OK(w, toAuthResponse(session))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	//nolint:errcheck // body is optional on logout
	_ = json.NewDecoder(r.Body).Decode(&req)

	token := req.RefreshToken
	if token == "" {
		token = h.cookieValue(r, h.session.RefreshCookie)
	}

	principal := middleware.GetPrincipal(r.Context())

	if err := h.service.Logout(r.Context(), token, principal); err != nil {
		core.InternalServerError(w, err)
		return
	}

	h.clearSessionCookies(w)
	core.NoContent(w)
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	if err := h.service.LogoutAll(r.Context(), userID); err != nil {
		core.InternalServerError(w, err)
		return
	}

	h.clearSessionCookies(w)
	core.NoContent(w)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	user, err := h.service.GetCurrentUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) AccessDenied(w http.ResponseWriter, _ *http.Request) {
	denied := core.ForbiddenError("You do not have permission to access this page.")
	denied.RedirectTo = h.session.LoginPath
	core.JSONError(w, denied)
}

func (h *Handler) BeginExternalLogin(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	returnURL := r.URL.Query().Get("return_url")

	target, err := h.service.BeginExternalLogin(r.Context(), provider, returnURL)
	if err != nil {
		if errors.Is(err, ErrUnknownProvider) {
			core.NotFound(w, "login provider")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// ExternalLoginCallback is hit by the browser coming back from the
// provider, so every outcome is a redirect.
func (h *Handler) ExternalLoginCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	q := r.URL.Query()

	session, err := h.service.CompleteExternalLogin(
		r.Context(),
		provider,
		CallbackParams{
			State: q.Get("state"),
			Code:  q.Get("code"),
			Error: q.Get("error"),
		},
		clientMeta(r),
	)
	if err != nil {
		var extErr *ExternalLoginError
		switch {
		case errors.Is(err, ErrUnknownProvider):
			core.NotFound(w, "login provider")
		case errors.As(err, &extErr):
			if extErr.Err != nil {
				slog.WarnContext(r.Context(), "external login failed",
					"provider", provider,
					"error", extErr.Err,
				)
			}
			h.redirectToLogin(w, r, extErr.Message)
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	h.setSessionCookies(w, session)
	http.Redirect(w, r, session.RedirectTo, http.StatusFound)
}

func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request, msg string) {
	target := h.session.LoginPath + "?error=" + url.QueryEscape(msg)
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) setSessionCookies(w http.ResponseWriter, s *Session) {
	access := &http.Cookie{
		Name:     h.session.AccessCookie,
		Value:    s.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.session.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	refresh := &http.Cookie{
		Name:     h.session.RefreshCookie,
		Value:    s.RefreshToken,
		Path:     h.session.RefreshPath,
		HttpOnly: true,
		Secure:   h.session.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	if s.Persistent {
		refresh.Expires = s.RefreshExp
		refresh.MaxAge = int(time.Until(s.RefreshExp).Seconds())
		access.Expires = s.AccessExpiry
		access.MaxAge = int(time.Until(s.AccessExpiry).Seconds())
	}

	http.SetCookie(w, access)
	http.SetCookie(w, refresh)
}

func (h *Handler) clearSessionCookies(w http.ResponseWriter) {
	for _, c := range []struct{ name, path string }{
		{h.session.AccessCookie, "/"},
		{h.session.RefreshCookie, h.session.RefreshPath},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     c.name,
			Value:    "",
			Path:     c.path,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.session.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func (h *Handler) cookieValue(r *http.Request, name string) string {
	if name == "" {
		return ""
	}
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func clientMeta(r *http.Request) ClientMeta {
	return ClientMeta{
		UserAgent: r.UserAgent(),
		IPAddress: extractIPAddress(r),
	}
}

func extractIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}
