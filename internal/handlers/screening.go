package handlers

import (
	"net/http"

	"github.com/Subhasishpanda1777/Cipher7/internal/metrics"
	"github.com/Subhasishpanda1777/Cipher7/internal/screening"
	"github.com/Subhasishpanda1777/Cipher7/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ScreeningKeySessionKey is the cookie-session entry holding the current screening.
const ScreeningKeySessionKey = "screening_key"

type ScreeningHandler struct {
	log     *zap.Logger
	service *services.ScreeningService
}

func NewScreeningHandler(log *zap.Logger, service *services.ScreeningService) *ScreeningHandler {
	return &ScreeningHandler{log: log, service: service}
}

func (h *ScreeningHandler) session(c *gin.Context) (*screening.Session, bool) {
	s, err := h.service.Sessions.Get(c.Param("key"))
	if err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	return s, true
}

func (h *ScreeningHandler) GetProtocol(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Sessions.Protocol())
}

// Create starts a screening once the guardian has consented.
func (h *ScreeningHandler) Create(c *gin.Context) {
	var consent screening.Consent
	if err := c.ShouldBindJSON(&consent); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}

	s, err := h.service.Sessions.Create(consent)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	cookie := sessions.Default(c)
	cookie.Set(ScreeningKeySessionKey, s.Key)
	if err := cookie.Save(); err != nil {
		h.log.Warn("Failed to save screening key to session", zap.Error(err))
	}

	h.log.Info("Screening started", zap.String("sessionKey", s.Key), zap.String("childID", consent.ChildID))
	c.JSON(http.StatusCreated, gin.H{"sessionKey": s.Key, "status": s.Status()})
}

// Current reports the screening bound to the caller's cookie session.
func (h *ScreeningHandler) Current(c *gin.Context) {
	key, ok := sessions.Default(c).Get(ScreeningKeySessionKey).(string)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no screening in progress"})
		return
	}
	s, err := h.service.Sessions.Get(key)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, s.Status())
}

func (h *ScreeningHandler) Status(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Status())
}

func (h *ScreeningHandler) Start(test metrics.Test) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := h.session(c)
		if !ok {
			return
		}
		if err := s.Start(test); err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, s.Status())
	}
}

type alignmentSamplesRequest struct {
	Samples []metrics.AlignmentSample `json:"samples" binding:"required"`
}

type trackingSamplesRequest struct {
	Samples []metrics.TrackingSample `json:"samples" binding:"required"`
}

type framesRequest struct {
	Frames []metrics.LandmarkFrame `json:"frames" binding:"required"`
}

type contrastTrialsRequest struct {
	Trials []metrics.ContrastTrial `json:"trials" binding:"required"`
}

// ingest binds the request body and feeds it to the session, reporting how
// many entries were accepted.
func ingest[T any](h *ScreeningHandler, add func(*screening.Session, *T) (int, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := h.session(c)
		if !ok {
			return
		}
		var req T
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
			return
		}
		accepted, err := add(s, &req)
		if err != nil {
			status := statusFor(err)
			c.JSON(status, gin.H{"error": err.Error(), "accepted": accepted})
			return
		}
		c.JSON(http.StatusOK, gin.H{"accepted": accepted, "stage": s.Stage()})
	}
}

func (h *ScreeningHandler) AlignmentSamples() gin.HandlerFunc {
	return ingest(h, func(s *screening.Session, r *alignmentSamplesRequest) (int, error) {
		return s.AddAlignmentSamples(r.Samples)
	})
}

func (h *ScreeningHandler) AlignmentFrames() gin.HandlerFunc {
	return ingest(h, func(s *screening.Session, r *framesRequest) (int, error) {
		return s.AddAlignmentFrames(r.Frames)
	})
}

func (h *ScreeningHandler) TrackingSamples() gin.HandlerFunc {
	return ingest(h, func(s *screening.Session, r *trackingSamplesRequest) (int, error) {
		return s.AddTrackingSamples(r.Samples)
	})
}

func (h *ScreeningHandler) TrackingFrames() gin.HandlerFunc {
	return ingest(h, func(s *screening.Session, r *framesRequest) (int, error) {
		return s.AddTrackingFrames(r.Frames)
	})
}

func (h *ScreeningHandler) ContrastTrials() gin.HandlerFunc {
	return ingest(h, func(s *screening.Session, r *contrastTrialsRequest) (int, error) {
		return s.AddContrastTrials(r.Trials)
	})
}

func (h *ScreeningHandler) Complete(test metrics.Test) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := h.session(c)
		if !ok {
			return
		}
		score, err := s.Complete(test)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		h.log.Debug("Screening test completed",
			zap.String("sessionKey", s.Key),
			zap.String("test", string(test)),
			zap.Float64("subScore", score.SubScore()),
		)
		c.JSON(http.StatusOK, gin.H{"test": test, "subScore": score.SubScore(), "detail": score})
	}
}

// Finish aggregates and persists the screening.
func (h *ScreeningHandler) Finish(c *gin.Context) {
	record, err := h.service.Finish(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	result := record.Result()
	c.JSON(http.StatusOK, gin.H{
		"recordId":         record.ID,
		"result":           result,
		"display":          result.Display(),
		"dataCompleteness": record.DataCompleteness,
	})
}
