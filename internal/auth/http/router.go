package http

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AlibekovAA/tenantdesk-auth/internal/auth/service"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/constants"
	commonhttp "github.com/AlibekovAA/tenantdesk-auth/internal/common/http"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/jwtverify"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
	identityhttp "github.com/AlibekovAA/tenantdesk-auth/internal/identity/http"
	identityservice "github.com/AlibekovAA/tenantdesk-auth/internal/identity/service"
)

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionResponse struct {
	AccessToken           string    `json:"access_token"`
	ExpiresAt             time.Time `json:"expires_at"`
	TokenType             string    `json:"token_type"`
	RefreshToken          string    `json:"refresh_token"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	UserID                string    `json:"user_id"`
	Name                  string    `json:"name"`
	Email                 string    `json:"email"`
	Roles                 []string  `json:"roles"`
}

type Handler struct {
	auth    *service.AuthService
	errors  *commonhttp.ErrorHandler
	proxies *commonhttp.TrustedProxies
	log     *logger.Logger
}

type Options struct {
	RequestTimeout time.Duration
	RateLimiter    *commonhttp.StrictRateLimiter
	TrustedProxies *commonhttp.TrustedProxies
}

func NewHandler(auth *service.AuthService, populator jwtverify.IdentityPopulator, opts Options, log *logger.Logger) http.Handler {
	h := &Handler{
		auth:    auth,
		errors:  commonhttp.NewErrorHandler(log),
		proxies: opts.TrustedProxies,
		log:     log,
	}

	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = constants.DefaultAuthRequestTimeout
	}
	if opts.RateLimiter == nil {
		opts.RateLimiter = commonhttp.NewStrictRateLimiter(opts.TrustedProxies)
	}

	post := commonhttp.RequireMethod(http.MethodPost)
	get := commonhttp.RequireMethod(http.MethodGet)
	timeout := commonhttp.WithTimeout(opts.RequestTimeout)
	limit := opts.RateLimiter.MiddlewareForPath

	authenticated := func(next http.Handler) http.Handler {
		return jwtverify.Middleware(auth.TokenParser(), populator, log)(identityhttp.RequireAuthenticated(log)(next))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", commonhttp.HealthHandler(log))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/auth/token", limit("/auth/token")(post(timeout(h.token))))
	mux.Handle("/auth/refresh", limit("/auth/refresh")(post(timeout(h.refresh))))
	mux.Handle("/auth/logout", limit("/auth/logout")(post(authenticated(timeout(h.logout)).ServeHTTP)))
	mux.Handle("/auth/me", limit("/auth/me")(get(authenticated(identityhttp.NewMeHandler(log)).ServeHTTP)))
	return mux
}

func (h *Handler) token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.log.WithFields(r.Context(), logger.Fields{
			"action": "token_invalid_json",
		}).Warnf("token request rejected: invalid json: %v", err)
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeInvalidJSON, "invalid json", nil, commonhttp.TraceIDFromContext(r.Context()))
		return
	}

	session, err := h.auth.Login(r.Context(), service.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		ClientIP:   h.proxies.ClientIP(r),
		DeviceInfo: r.UserAgent(),
	})
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	setRefreshCookie(w, r, session.RefreshToken, session.RefreshTokenExpiresAt)
	commonhttp.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.log.WithFields(r.Context(), logger.Fields{
			"action": "refresh_invalid_json",
		}).Warnf("refresh request rejected: invalid json: %v", err)
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeInvalidJSON, "invalid json", nil, commonhttp.TraceIDFromContext(r.Context()))
		return
	}

	raw := strings.TrimSpace(req.RefreshToken)
	if raw == "" {
		if cookie, err := r.Cookie(constants.RefreshCookieName); err == nil {
			raw = strings.TrimSpace(cookie.Value)
		}
	}
	if raw == "" {
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeMissingRefreshToken, "missing refresh token", nil, commonhttp.TraceIDFromContext(r.Context()))
		return
	}

	session, err := h.auth.Refresh(r.Context(), raw, service.SessionMeta{
		ClientIP:   h.proxies.ClientIP(r),
		DeviceInfo: r.UserAgent(),
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			clearRefreshCookie(w, r)
		}
		h.errors.HandleError(w, r, err)
		return
	}

	setRefreshCookie(w, r, session.RefreshToken, session.RefreshTokenExpiresAt)
	commonhttp.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	id := identityservice.FromContext(r.Context())

	if err := h.auth.Logout(r.Context(), id.UserID); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	clearRefreshCookie(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func toSessionResponse(s service.IssuedSession) sessionResponse {
	roles := s.Roles
	if roles == nil {
		roles = []string{}
	}
	return sessionResponse{
		AccessToken:           s.AccessToken,
		ExpiresAt:             s.AccessTokenExpiresAt,
		TokenType:             s.TokenType,
		RefreshToken:          s.RefreshToken,
		RefreshTokenExpiresAt: s.RefreshTokenExpiresAt,
		UserID:                s.UserID,
		Name:                  s.DisplayName,
		Email:                 s.Email,
		Roles:                 roles,
	}
}

func setRefreshCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	if token == "" {
		return
	}

	cookie := &http.Cookie{
		Name:     constants.RefreshCookieName,
		Value:    token,
		Path:     constants.RefreshCookiePath,
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   r.TLS != nil,
	}

	http.SetCookie(w, cookie)
}

func clearRefreshCookie(w http.ResponseWriter, r *http.Request) {
	cookie := &http.Cookie{
		Name:     constants.RefreshCookieName,
		Value:    "",
		Path:     constants.RefreshCookiePath,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   r.TLS != nil,
	}

	http.SetCookie(w, cookie)
}
