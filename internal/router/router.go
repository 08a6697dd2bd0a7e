package router

import (
	"net/http"

	"github.com/Subhasishpanda1777/Cipher7/internal/config"
	"github.com/Subhasishpanda1777/Cipher7/internal/handlers"
	"github.com/Subhasishpanda1777/Cipher7/internal/metrics"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Setup(log *zap.Logger, conf config.ServerConfig, screeningHandler *handlers.ScreeningHandler, recordsHandler *handlers.RecordsHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))
	router.Use(SecureHeaders(conf.Mode == gin.DebugMode))

	store := cookie.NewStore([]byte(conf.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   conf.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400,
	})
	router.Use(sessions.Sessions("visionai_session", store))

	limit := conf.CreateRateLimit
	if limit == 0 {
		limit = 10
	}

	api := router.Group("/api")
	api.Use(CSRFProtection())
	{
		api.GET("/csrf", CSRFToken)
		api.GET("/protocol", screeningHandler.GetProtocol)

		screenings := api.Group("/screenings")
		{
			screenings.POST("", RateLimit(limit), screeningHandler.Create)
			screenings.GET("/current", screeningHandler.Current)
			screenings.GET("/:key", screeningHandler.Status)
			screenings.POST("/:key/finish", screeningHandler.Finish)

			for _, test := range []metrics.Test{metrics.TestAlignment, metrics.TestTracking, metrics.TestContrast} {
				screenings.POST("/:key/"+string(test)+"/start", screeningHandler.Start(test))
				screenings.POST("/:key/"+string(test)+"/complete", screeningHandler.Complete(test))
			}
			screenings.POST("/:key/alignment/samples", screeningHandler.AlignmentSamples())
			screenings.POST("/:key/alignment/frames", screeningHandler.AlignmentFrames())
			screenings.POST("/:key/tracking/samples", screeningHandler.TrackingSamples())
			screenings.POST("/:key/tracking/frames", screeningHandler.TrackingFrames())
			screenings.POST("/:key/contrast/trials", screeningHandler.ContrastTrials())
		}

		api.GET("/records", recordsHandler.ListRecent)
		api.GET("/records/:id", recordsHandler.GetRecord)
		api.GET("/parents/:id/records", recordsHandler.ListByParent)
		api.GET("/children/:id/records", recordsHandler.ListByChild)
		api.GET("/children/:id/chart", recordsHandler.ChildChart)
	}

	return router
}
