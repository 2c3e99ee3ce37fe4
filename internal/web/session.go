package web

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/phrazzld/taskboard/internal/principal"
	"github.com/phrazzld/taskboard/internal/redact"
	"github.com/phrazzld/taskboard/internal/service/auth"
)

// sessionLifetime bounds how long the browser keeps session cookies. The
// access token inside expires much sooner and is refreshed on demand.
const sessionLifetime = 30 * 24 * time.Hour

const flashCreated = "created"

func (h *Handler) refreshCookieName() string { return h.opts.CookieName + "_refresh" }
func (h *Handler) flashCookieName() string   { return h.opts.CookieName + "_flash" }

func (h *Handler) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handler) setSession(w http.ResponseWriter, s *domain.Session) {
	maxAge := int(sessionLifetime.Seconds())
	http.SetCookie(w, h.cookie(h.opts.CookieName, s.AccessToken, maxAge))
	http.SetCookie(w, h.cookie(h.refreshCookieName(), s.RefreshToken, maxAge))
}

func (h *Handler) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, h.cookie(h.opts.CookieName, "", -1))
	http.SetCookie(w, h.cookie(h.refreshCookieName(), "", -1))
}

func (h *Handler) setFlash(w http.ResponseWriter, value string) {
	http.SetCookie(w, h.cookie(h.flashCookieName(), value, 60))
}

// takeFlash returns and clears the pending flash message.
func (h *Handler) takeFlash(w http.ResponseWriter, r *http.Request) *flash {
	c, err := r.Cookie(h.flashCookieName())
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, h.cookie(h.flashCookieName(), "", -1))
	if c.Value == flashCreated {
		return &flash{Title: "Task created", Description: "Your task has been successfully created."}
	}
	return nil
}

// currentPrincipal identifies the browser's user, transparently refreshing
// an expired access token. Unusable sessions are cleared.
func (h *Handler) currentPrincipal(w http.ResponseWriter, r *http.Request) (principal.Principal, bool) {
	p, err := h.identity.Identify(r)
	if err == nil {
		return p, true
	}

	log := logger.FromContextOrDefault(r.Context(), h.logger)
	if errors.Is(err, auth.ErrMissingToken) {
		return principal.Principal{}, false
	}
	if errors.Is(err, auth.ErrExpiredToken) {
		if p, ok := h.refresh(w, r); ok {
			return p, true
		}
	} else {
		log.Debug("session rejected", slog.String("error", redact.Error(err)))
	}

	if !errors.Is(err, auth.ErrAuthUnavailable) {
		h.clearSession(w)
	}
	return principal.Principal{}, false
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) (principal.Principal, bool) {
	c, err := r.Cookie(h.refreshCookieName())
	if err != nil || c.Value == "" {
		return principal.Principal{}, false
	}

	session, err := h.authn.Refresh(r.Context(), c.Value)
	if err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).Info("session refresh failed",
			slog.String("error", redact.Error(err)))
		return principal.Principal{}, false
	}

	h.setSession(w, session)
	return principal.Principal{
		UserID:      session.User.ID,
		Email:       session.User.Email,
		AccessToken: session.AccessToken,
	}, true
}
