package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rpattn/bookstore/internal/auth"
	"github.com/rpattn/bookstore/internal/booktypes"
	"github.com/rpattn/bookstore/internal/cache"
	"github.com/rpattn/bookstore/internal/config"
	"github.com/rpattn/bookstore/internal/dashboard"
	"github.com/rpattn/bookstore/internal/db"
	"github.com/rpattn/bookstore/internal/events"
	"github.com/rpattn/bookstore/internal/inventory"
	"github.com/rpattn/bookstore/internal/middleware"
	"github.com/rpattn/bookstore/internal/orders"
	"github.com/rpattn/bookstore/internal/repository"
)

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin console HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServer(ctx, cfg, logger)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on start")
}

func runServer(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if !skipMigrations {
		if err := db.RunMigrations(cfg.Database, db.MigrateUp, logger); err != nil {
			return err
		}
	}

	conn, err := db.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	redisClient, err := cache.NewClient(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	publisher, err := events.NewPublisher(cfg.Events, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to message broker: %w", err)
	}
	defer publisher.Close()

	// Create repositories
	bookTypeRepo := cache.WrapBookTypes(repository.NewBookTypeRepository(conn.Pool), redisClient, cfg.Cache.TTL, logger)
	bookRepo := repository.NewBookRepository(conn.Pool)
	orderRepo := repository.NewOrderRepository(conn.Pool)
	dashboardRepo := repository.NewDashboardRepository(conn.Pool, cfg.Dashboard.RecentBooks)

	// Create services
	dashboardService := dashboard.NewService(dashboardRepo, logger,
		dashboard.WithDateWindow(cfg.Dashboard.MinRange, cfg.Dashboard.MaxRange),
		dashboard.WithFetchTimeout(cfg.Dashboard.FetchTimeout),
		dashboard.WithBookTypes(bookTypeRepo),
	)
	pages, err := dashboard.NewHTTPHandler(dashboardService, logger)
	if err != nil {
		return fmt.Errorf("failed to load page templates: %w", err)
	}
	authenticator, err := auth.NewAuthenticator(cfg.Auth, logger)
	if err != nil {
		return err
	}

	typesHandler := booktypes.NewHTTPHandler(booktypes.NewService(bookTypeRepo, logger))
	booksHandler := inventory.NewHTTPHandler(inventory.NewService(bookRepo, bookTypeRepo, logger))
	ordersHandler := orders.NewHTTPHandler(orders.NewService(orderRepo, publisher, logger))

	api := http.NewServeMux()
	api.Handle("/api/types", typesHandler)
	api.Handle("/api/types/", typesHandler)
	api.Handle("/api/books", booksHandler)
	api.Handle("/api/books/", booksHandler)
	api.Handle("/api/orders", ordersHandler)
	api.Handle("/api/orders/", ordersHandler)

	protected := func(h http.Handler) http.Handler {
		return authenticator.Middleware(middleware.DataLoaderMiddleware(bookTypeRepo)(h))
	}

	mux := http.NewServeMux()
	mux.Handle("/", pages)
	mux.Handle("/welcome", protected(pages))
	mux.Handle("/logout", authenticator.Logout(pages))
	mux.HandleFunc("/login", authenticator.Login)
	mux.HandleFunc("/auth/callback", authenticator.Callback)
	mux.Handle("/api/", protected(api))
	mux.Handle("/metrics", promhttp.Handler())

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      corsHandler.Handler(middleware.LoggingMiddleware(logger)(mux)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting bookstore console", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}
