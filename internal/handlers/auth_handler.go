package handler

import (
	"net/http"

	"lumen-finance-backend/internal/config"
	"lumen-finance-backend/internal/services/auth"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	auth   *auth.Service
	cfg    *config.Config
	logger *logrus.Logger
}

func NewAuthHandler(authService *auth.Service, cfg *config.Config, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, cfg: cfg, logger: logger}
}

// Login redirects to the Google consent page.
func (h *AuthHandler) Login(c *gin.Context) {
	state := auth.NewState()
	if err := auth.SaveState(c, state); err != nil {
		h.logger.WithError(err).Error("auth.Login session save failed")
		fail(c, http.StatusInternalServerError, "could not start login")
		return
	}
	c.Redirect(http.StatusFound, h.auth.AuthURL(state))
}

// Callback completes the OAuth flow and establishes the session.
func (h *AuthHandler) Callback(c *gin.Context) {
	if errMsg := c.Query("error"); errMsg != "" {
		fail(c, http.StatusBadRequest, "google sign-in was cancelled")
		return
	}

	if !auth.ConsumeState(c, c.Query("state")) {
		fail(c, http.StatusBadRequest, "invalid oauth state")
		return
	}

	code := c.Query("code")
	if code == "" {
		fail(c, http.StatusBadRequest, "missing oauth code")
		return
	}

	token, err := h.auth.Exchange(c.Request.Context(), code)
	if err != nil {
		h.logger.WithError(err).Error("auth.Callback exchange failed")
		fail(c, http.StatusBadGateway, "could not complete google sign-in")
		return
	}

	email, name := h.auth.UserInfo(c.Request.Context(), token)

	if err := auth.SaveLogin(c, token, email, name); err != nil {
		h.logger.WithError(err).Error("auth.Callback session save failed")
		fail(c, http.StatusInternalServerError, "could not save session")
		return
	}

	h.logger.WithField("email", email).Info("user signed in")
	c.Redirect(http.StatusFound, h.cfg.FrontendOrigin)
}

// Logout clears the session.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := auth.ClearSession(c); err != nil {
		fail(c, http.StatusInternalServerError, "could not clear session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "logged out"})
}

// Session reports who is signed in, for the frontend's auth guard.
func (h *AuthHandler) Session(c *gin.Context) {
	if _, ok := auth.TokenFromSession(c); !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	email, name := auth.UserFromSession(c)
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"email":         email,
		"name":          name,
	})
}
