package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Ashisharjun12/devfinder-final/internal/apperr"
	"github.com/Ashisharjun12/devfinder-final/internal/log"
	"github.com/Ashisharjun12/devfinder-final/internal/security"
)

const stateCookie = "devfinder_oauth_state"

// signInDisabled answers 503; writeError logs it with the request id.
func signInDisabled(c *gin.Context) {
	writeError(c, apperr.Unavailable("sign-in is not configured"))
}

// GoogleLogin godoc
// @Summary Start Google sign-in
// @Tags auth
// @Success 302
// @Failure 503 {object} map[string]string
// @Router /auth/google/login [get]
func (h *Handler) GoogleLogin(c *gin.Context) {
	if h.Google == nil {
		signInDisabled(c)
		return
	}
	state := h.Google.NewState()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, 600, "/auth/google", "", h.CookieSecure, true)
	c.Redirect(http.StatusFound, h.Google.AuthURL(state))
}

// GoogleCallback godoc
// @Summary Finish Google sign-in and start a session
// @Tags auth
// @Produce json
// @Param code query string true "authorization code"
// @Param state query string true "state from the login redirect"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/google/callback [get]
func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.Google == nil {
		signInDisabled(c)
		return
	}
	state, code := c.Query("state"), c.Query("code")
	if code == "" || state == "" {
		writeError(c, apperr.Validation("code and state are required"))
		return
	}
	cookieState, _ := c.Cookie(stateCookie)
	if !h.Google.VerifyState(state) || cookieState != state {
		writeError(c, apperr.Unauthenticated("invalid oauth state"))
		return
	}

	gu, err := h.Google.Exchange(c.Request.Context(), code)
	if err != nil {
		log.Ctx(c.Request.Context()).Warn("google exchange failed", zap.Error(err))
		writeError(c, apperr.Unauthenticated("google sign-in failed"))
		return
	}
	name := strings.TrimSpace(gu.Name)
	if name == "" {
		name, _, _ = strings.Cut(gu.Email, "@")
	}
	u, err := h.Users.UpsertOAuthUser(c.Request.Context(), gu.Email, name, gu.Picture)
	if err != nil {
		writeError(c, apperr.Internal(err))
		return
	}
	tok, err := security.MakeSession(h.JWTSecret, u.ID.Hex(), u.Email, h.SessionTTL)
	if err != nil {
		writeError(c, apperr.Internal(err))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, "", -1, "/auth/google", "", h.CookieSecure, true)
	c.SetCookie(h.CookieName, tok, int(h.SessionTTL.Seconds()), "/", "", h.CookieSecure, true)
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"token": tok, "user": toProfile(u)})
}

// Logout godoc
// @Summary End the session
// @Tags auth
// @Success 204
// @Router /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.CookieName, "", -1, "/", "", h.CookieSecure, true)
	c.Status(http.StatusNoContent)
}
