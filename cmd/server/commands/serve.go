package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rongwang/finance-server/internal/api"
	"github.com/rongwang/finance-server/internal/auth"
	"github.com/rongwang/finance-server/internal/config"
	"github.com/rongwang/finance-server/internal/repository"
	"github.com/rongwang/finance-server/internal/service"
	"github.com/rongwang/finance-server/internal/utils"
)

var servePort int

// serveCmd starts the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort > 0 {
			cfg.Server.Port = servePort
		}
		return runServe(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Override SERVER_PORT")
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger, err := utils.NewLogger(cfg.Log.Level, cfg.Server.Mode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	if cfg.Auth.JWTSecret == config.DefaultJWTSecret {
		logger.Warn("JWT_SECRET is not set, using the built-in development secret")
	}

	// Set up database connection
	db, err := config.SetupDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	// Create repository
	repo, err := repository.NewSQLRepository(db, logger)
	if err != nil {
		return err
	}

	// Create service
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)
	svc := service.NewDefaultService(repo, tokens, auth.NewPasswordHasher(cfg.Auth.BcryptCost), logger)

	// Set up Gin router
	gin.SetMode(cfg.Server.Mode)
	router := api.NewRouter(api.NewHandler(svc, logger))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("addr", server.Addr), zap.String("driver", cfg.Database.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
