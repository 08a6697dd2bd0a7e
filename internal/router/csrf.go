package router

import (
	"errors"
	"net/http"

	"github.com/Subhasishpanda1777/Cipher7/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	csrfTokenSessionKey = "csrf_token"
	csrfTokenContextKey = "csrf_token"
	csrfTokenHeaderKey  = "X-CSRF-Token"
)

// CSRFProtection keeps one token per cookie session and requires it in the
// X-CSRF-Token header of every unsafe request.
func CSRFProtection() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		token, _ := session.Get(csrfTokenSessionKey).(string)
		if token == "" {
			newToken, err := utils.NewToken(32)
			if err != nil {
				c.AbortWithError(http.StatusInternalServerError, errors.New("failed to generate CSRF token"))
				return
			}
			token = newToken
			session.Set(csrfTokenSessionKey, token)
			if err := session.Save(); err != nil {
				c.AbortWithError(http.StatusInternalServerError, errors.New("failed to save session"))
				return
			}
		}
		c.Set(csrfTokenContextKey, token)

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			if !utils.TokensMatch(token, c.GetHeader(csrfTokenHeaderKey)) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid CSRF token"})
				return
			}
		}
		c.Next()
	}
}

// CSRFToken hands the session's token to the client.
func CSRFToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"csrfToken": c.GetString(csrfTokenContextKey)})
}
