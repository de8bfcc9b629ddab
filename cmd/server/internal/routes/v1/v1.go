package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/dispatch"
	srverr "github.com/stegosaurus21/minicms-sub001/cmd/server/internal/error"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/judging"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/leaderboard"
	servermiddleware "github.com/stegosaurus21/minicms-sub001/cmd/server/internal/middleware"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/ratelimit"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/store"
	"github.com/stegosaurus21/minicms-sub001/internal/config"
	"github.com/stegosaurus21/minicms-sub001/internal/logger"
)

const name = "github.com/stegosaurus21/minicms-sub001/server/routes/v1"

var tracer = otel.Tracer(name)

type Handler struct {
	store       store.Store
	dispatcher  *dispatch.Dispatcher
	judging     *judging.Service
	leaderboard leaderboard.Provider
	rdb         redis.UniversalClient
	rateLimit   *config.RateLimitConfig
}

func NewRedisLimiter(
	rdb redis.UniversalClient,
	limiterKey string,
	perMinute int64,
	failOpen bool,
	onlyMethod *string,
) middleware.RateLimiterConfig {
	store := ratelimit.NewRedisLimitStore(ratelimit.RedisLimiterConfig{
		PerMinute:   perMinute,
		RedisClient: rdb,
		LimiterKey:  limiterKey,
		FailOpen:    failOpen,
	})

	skipper := middleware.DefaultSkipper
	if onlyMethod != nil {
		skipper = func(c echo.Context) bool {
			return c.Request().Method != *onlyMethod
		}
	}

	return middleware.RateLimiterConfig{
		Skipper: skipper,
		Store:   store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			user, ok := c.Get(servermiddleware.AuthKey).(*models.User)
			if !ok {
				return "", srverr.ErrTypeAssertMismatch
			}
			return user.ID.String(), nil
		},
		ErrorHandler: func(context echo.Context, _ error) error {
			return context.JSON(http.StatusForbidden, nil)
		},
		DenyHandler: func(context echo.Context, _ string, _ error) error {
			return context.JSON(http.StatusTooManyRequests, nil)
		},
	}
}

func NewHandler(
	s store.Store,
	dispatcher *dispatch.Dispatcher,
	judgingService *judging.Service,
	lb leaderboard.Provider,
	rdb redis.UniversalClient,
	rateLimit *config.RateLimitConfig,
) *Handler {
	return &Handler{
		store:       s,
		dispatcher:  dispatcher,
		judging:     judgingService,
		leaderboard: lb,
		rdb:         rdb,
		rateLimit:   rateLimit,
	}
}

func (h *Handler) AddRoutes(e *echo.Echo, middlewareHandler *servermiddleware.Handler) {
	l := logger.Logger

	v1Group := e.Group("/v1", middleware.BasicAuth(middlewareHandler.BasicAuthValidator))

	if h.rateLimit != nil && h.rateLimit.GlobalPerMinute > 0 {
		v1Group.Use(
			middleware.RateLimiterWithConfig(
				NewRedisLimiter(
					h.rdb,
					"global",
					h.rateLimit.GlobalPerMinute,
					h.rateLimit.FailOpen,
					nil,
				),
			),
		)
	} else {
		l.Warn("not configured to have a global rate limit")
	}

	v1Group.GET("/ping/", h.Ping)

	contestGroup := v1Group.Group(
		"/contest/:contest_id",
		servermiddleware.PopulateFromIDParam[models.Contest](middlewareHandler, "contest_id", "contest"),
	)
	contestGroup.GET("/leaderboard/", h.GetLeaderboard)
	contestGroup.POST("/join/", h.JoinContest)

	submitGroup := contestGroup.Group("/challenge/:challenge_id/submission")
	if h.rateLimit != nil && h.rateLimit.SubmitPerMinute > 0 {
		post := http.MethodPost
		submitGroup.Use(
			middleware.RateLimiterWithConfig(
				NewRedisLimiter(
					h.rdb,
					"submit",
					h.rateLimit.SubmitPerMinute,
					h.rateLimit.FailOpen,
					&post,
				),
			),
		)
	} else {
		l.Warn("not configured to have a submit rate limit")
	}
	submitGroup.POST("/", h.Submit)

	submissionGroup := v1Group.Group("/submission/:submission_id")
	submissionGroup.GET("/", h.GetSubmission)
	submissionGroup.GET("/score/", h.GetScore)
	submissionGroup.GET("/test/:task/:test/", h.GetTestResult)
}
