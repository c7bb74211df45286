package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pgocasting/ipatrollersys-sub002/internal"
	"github.com/pgocasting/ipatrollersys-sub002/internal/config"
	"github.com/pgocasting/ipatrollersys-sub002/internal/container"
	"github.com/pgocasting/ipatrollersys-sub002/ui"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "", "optional config file")
	flag.Parse()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)
	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.Log.Level))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	if err := appContainer.Init(ctx); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer appContainer.Close(context.Background())

	// The first load runs before serving so the dashboard never sees an
	// empty working set.
	if sum, err := appContainer.Service.Reload(ctx); err != nil {
		logger.Error("[Main] initial reload failed: %v", err)
	} else {
		logger.Info("[Main] working set loaded: %d records, %d rejected, %d unreadable locations",
			sum.Records, sum.Rejected, len(sum.Failed))
	}

	server := ui.NewServer(appContainer.Service, logger)
	servers := []*http.Server{{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if appConfig.Admin.Enabled {
		servers = append(servers, &http.Server{
			Addr:              ":" + appConfig.Admin.Port,
			Handler:           ui.NewAdminRouter(appContainer.Metrics.Handler()),
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	for _, srv := range servers {
		go func() {
			logger.Info("[Main] listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("[Main] server on %s failed: %v", srv.Addr, err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("[Main] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("[Main] shutdown of %s: %v", srv.Addr, err)
		}
	}
}
