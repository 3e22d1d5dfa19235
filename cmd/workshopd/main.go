// Command workshopd runs the workshop scheduling service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"workshopd/internal/database"
	"workshopd/internal/handler"
	"workshopd/internal/repository"
	"workshopd/internal/service"
	"workshopd/migrations"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "workshopd",
		Usage: "Schedule management service for multi-day workshop events.",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run migrations and start the HTTP API.",
		Action: func(c *cli.Context) error {
			logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
			ctx := c.Context

			pool, err := database.NewPool(ctx)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer pool.Close()
			logger.Info("connected to postgres")

			if err := migrations.Up(ctx, pool); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}

			// Wire up layers.
			eventRepo := repository.NewEventRepository(pool)
			itemRepo := repository.NewScheduleItemRepository(pool)
			outbox := repository.NewOutboxRepository(pool)
			auth := &service.RoleAuthorizer{
				Admins:         splitList(os.Getenv("SCHEDULE_ADMINS")),
				StaffLocations: service.ParsePairs(os.Getenv("STAFF_LOCATIONS")),
			}
			rooms := &service.StaticRooms{
				Rooms:    service.ParsePairs(os.Getenv("ROOM_DEFAULTS")),
				Fallback: getEnv("DEFAULT_ROOM", "Main Hall"),
			}
			notifier := service.NewOutboxNotifier(outbox, logger)
			svc := service.NewScheduleService(eventRepo, itemRepo, auth, notifier, rooms)
			scheduleHandler := handler.NewScheduleHandler(svc)

			r := chi.NewRouter()
			r.Use(chimiddleware.Recoverer)
			r.Use(chimiddleware.RequestID)
			r.Use(chimiddleware.RealIP)
			r.Use(chimiddleware.Logger)

			r.Get("/health", handler.HealthCheck)

			r.Route("/events/{code}/schedule", func(r chi.Router) {
				r.Get("/", scheduleHandler.ListSchedule)
				r.Post("/", scheduleHandler.CreateItem)
				r.Get("/defaults", scheduleHandler.GetDefaults)
				r.Get("/conflicts", scheduleHandler.FindConflicts)
				r.Post("/template", scheduleHandler.ProjectTemplate)
			})
			r.Route("/schedule/{id}", func(r chi.Router) {
				r.Put("/", scheduleHandler.UpdateItem)
				r.Delete("/", scheduleHandler.DeleteItem)
			})

			port := getEnv("PORT", "8080")
			srv := &http.Server{
				Addr:         ":" + port,
				Handler:      r,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			go func() {
				logger.Info("listening", "port", port)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("server error", "error", err)
					os.Exit(1)
				}
			}()

			// Block until SIGINT or SIGTERM.
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("graceful shutdown: %w", err)
			}
			logger.Info("server stopped")
			return nil
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending database migrations and exit.",
		Action: func(c *cli.Context) error {
			pool, err := database.NewPool(c.Context)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer pool.Close()

			if err := migrations.Up(c.Context, pool); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			slog.Info("migrations applied")
			return nil
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
