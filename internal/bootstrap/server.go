package bootstrap

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/api"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/logger"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/server"
)

// SetupHTTPServer builds the HTTP server with health, metrics and API routes.
func (a *App) SetupHTTPServer() *server.Server {
	handler := api.NewHandler(a.Service, a.BotAnalysisJob(), a.Ping(), a.Logger)

	builder := server.NewServerBuilder(a.Config.Service.Name, a.Config.Service.Port).
		WithLogger(a.Logger).
		WithDebug(a.Config.Service.Debug).
		WithVersion(a.Config.Service.Version).
		WithHealthCheck("model", server.ModelHealthChecker(a.Service.Sentiment().Trained)).
		WithMetrics(a.Telemetry.Handler()).
		WithRoutes(func(router *gin.Engine) {
			api.SetupRoutes(router, handler)
		})
	if ping := a.Ping(); ping != nil {
		builder = builder.WithDatabaseHealthCheck(ping)
	}

	return builder.Build()
}

// Serve runs the HTTP server until ctx is cancelled or a shutdown signal arrives.
func (a *App) Serve(ctx context.Context) error {
	a.Logger.Info("Starting comment-analyzer",
		logger.String("name", a.Config.Service.Name),
		logger.String("version", a.Config.Service.Version),
		logger.Int("port", a.Config.Service.Port),
		logger.Bool("model_loaded", a.Service.Sentiment().Trained()),
		logger.Bool("database", a.DB != nil),
	)

	srv := a.SetupHTTPServer()
	if runErr := srv.RunWithGracefulShutdown(ctx); runErr != nil {
		a.Logger.Error("Server error", logger.Error(runErr))
		return fmt.Errorf("server: %w", runErr)
	}

	a.Logger.Info("comment-analyzer stopped")
	return nil
}
