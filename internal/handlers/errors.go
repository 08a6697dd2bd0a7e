package handlers

import (
	"errors"
	"net/http"

	"github.com/Subhasishpanda1777/Cipher7/internal/metrics"
	"github.com/Subhasishpanda1777/Cipher7/internal/repository"
	"github.com/Subhasishpanda1777/Cipher7/internal/screening"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, screening.ErrSessionNotFound),
		errors.Is(err, repository.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, screening.ErrInvalidTransition),
		errors.Is(err, screening.ErrIncomplete),
		errors.Is(err, metrics.ErrSequenceComplete):
		return http.StatusConflict
	case errors.Is(err, screening.ErrConsentRequired),
		errors.Is(err, screening.ErrUnknownTest),
		errors.Is(err, metrics.ErrInvalidSample),
		errors.Is(err, metrics.ErrInvalidSegment),
		errors.Is(err, metrics.ErrInvalidTrial):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes the JSON error body; internal failures are logged and
// not echoed to the client.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
