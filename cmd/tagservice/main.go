package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lyzr/tagservice/cmd/tagservice/container"
	"github.com/lyzr/tagservice/cmd/tagservice/routes"
	"github.com/lyzr/tagservice/common/bootstrap"
	"github.com/lyzr/tagservice/common/db"
	"github.com/lyzr/tagservice/common/logger"
	"github.com/lyzr/tagservice/common/server"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (store, logger, queue, cache, telemetry)
	components, err := bootstrap.Setup(ctx, "tagservice",
		bootstrap.WithDBInitHook(func(d *db.DB) error {
			return db.Migrate(ctx, d)
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap tagservice: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	if serviceContainer.Audit != nil {
		auditCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := serviceContainer.Audit.Start(auditCtx); err != nil {
			components.Logger.Warn("audit subscriber not started", "error", err)
		}
	}

	e := setupEcho()
	setupMiddleware(e, components)

	routes.RegisterHealthRoutes(e, serviceContainer)
	routes.RegisterTagRoutes(e, serviceContainer)

	startServer(e, components)
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo, components *bootstrap.Components) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, requestID string) {
			ctx := context.WithValue(c.Request().Context(), logger.RequestIDKey, requestID)
			c.SetRequest(c.Request().WithContext(ctx))
		},
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			components.Telemetry.RecordDuration(c.Request().Method+" "+c.Path(), start)
			return err
		}
	})
}

// startServer serves until SIGINT/SIGTERM
func startServer(e *echo.Echo, components *bootstrap.Components) {
	port := components.Config.Service.Port
	components.Logger.Info("starting tagservice", "port", port)

	srv := server.New("tagservice", port, e, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("server error", "error", err)
		components.Shutdown(context.Background())
		os.Exit(1)
	}
}
