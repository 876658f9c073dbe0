package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-results-api/api/swagger"
	"github.com/noah-isme/sma-results-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-results-api/internal/middleware"
	"github.com/noah-isme/sma-results-api/internal/models"
	"github.com/noah-isme/sma-results-api/internal/repository"
	"github.com/noah-isme/sma-results-api/internal/service"
	"github.com/noah-isme/sma-results-api/pkg/cache"
	"github.com/noah-isme/sma-results-api/pkg/config"
	"github.com/noah-isme/sma-results-api/pkg/database"
	"github.com/noah-isme/sma-results-api/pkg/jobs"
	"github.com/noah-isme/sma-results-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-results-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-results-api/pkg/middleware/requestid"
)

func newServeCmd(port *int) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runServer(ctx, *port)
		},
	}
}

// @title SMA Results API
// @version 1.0.0
// @description Term result statistics and quiz grading
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func runServer(ctx context.Context, portFlag int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if portFlag > 0 {
		cfg.Port = portFlag
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, result caching disabled", zap.Error(err))
		redisClient = nil
	}

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	checks := map[string]handler.Pinger{
		"postgres": handler.PingFunc(db.PingContext),
	}
	if redisClient != nil {
		repo := repository.NewCacheRepository(redisClient, logr)
		defer repo.Close() //nolint:errcheck
		cacheRepo = repo
		checks["redis"] = repo
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Results.CacheTTL, logr, cfg.Results.CacheEnabled)

	resultSvc := service.NewResultService(
		repository.NewScoreRepository(db),
		repository.NewGradeRangeRepository(db),
		cacheSvc,
		metrics,
		validator.New(),
		logr,
		service.ResultServiceConfig{
			SubjectMaxScore: cfg.Results.SubjectMaxScore,
			CacheTTL:        cfg.Results.CacheTTL,
		},
	)

	quizSvc := service.NewQuizService(repository.NewQuizRepository(db), metrics, logr)
	regradeQueue := jobs.NewQueue[string]("quiz-regrade", quizSvc.HandleRegradeJob, jobs.QueueConfig{
		Workers:    cfg.Quizzes.RegradeWorkers,
		MaxRetries: cfg.Quizzes.RegradeRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
	})
	queueCtx, cancelQueue := context.WithCancel(context.Background())
	defer cancelQueue()
	regradeQueue.Start(queueCtx)
	defer regradeQueue.Stop()
	quizSvc.UseQueue(regradeQueue)

	tokens := service.NewTokenService(cfg.JWT.Secret)

	router := newRouter(cfg, logr, routerDeps{
		metrics: metrics,
		checks:  checks,
		results: handler.NewResultHandler(resultSvc),
		quizzes: handler.NewQuizHandler(quizSvc),
		tokens:  tokens,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-stop:
		logr.Info("shutting down server", zap.String("signal", sig.String()))
	case <-ctx.Done():
		logr.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

type routerDeps struct {
	metrics *service.MetricsService
	checks  map[string]handler.Pinger
	results *handler.ResultHandler
	quizzes *handler.QuizHandler
	tokens  *service.TokenService
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(deps.metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(deps.metrics, deps.checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	staff := []string{string(models.RoleSuperAdmin), string(models.RoleAdmin), string(models.RoleTeacher)}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(deps.tokens))

	results := api.Group("/results")
	results.GET("/students/:id", internalmiddleware.RBAC(append(staff, internalmiddleware.Self)...), deps.results.StudentReport)
	results.GET("/broadsheet", internalmiddleware.RBAC(staff...), deps.results.Broadsheet)
	results.GET("/broadsheet/export", internalmiddleware.RBAC(staff...), deps.results.ExportBroadsheet)
	results.POST("/cache/invalidate", internalmiddleware.RBAC(staff...), deps.results.InvalidateCache)

	quizzes := api.Group("/quizzes", internalmiddleware.RBAC(staff...))
	quizzes.POST("/attempts/:id/grade", deps.quizzes.GradeAttempt)
	quizzes.GET("/attempts/:id/result", deps.quizzes.Result)
	quizzes.POST("/:id/regrade", deps.quizzes.RegradeQuiz)

	api.GET("/metrics/summary", internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), metricsHandler.Summary)

	return r
}
