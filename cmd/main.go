package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tangytongues/WatchTogether/config"
	"github.com/tangytongues/WatchTogether/internal/middleware"
	"github.com/tangytongues/WatchTogether/internal/relay"
	"github.com/tangytongues/WatchTogether/internal/routers"
	"github.com/tangytongues/WatchTogether/state"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appState, err := state.InitAppState(ctx, stop)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application state")
	}
	defer appState.Close()

	reg := relay.NewRegistry()
	router := relay.NewRouter(appState.Store, reg)
	wsHandler := relay.NewHandler(router, reg)
	log.Info().Msg("Relay initialized")

	pingInterval := time.Duration(config.Conf.Relay.PingIntervalSeconds) * time.Second
	monitor := relay.NewMonitor(reg, pingInterval)
	go monitor.Run(ctx)

	rl := middleware.NewRateLimiter(config.Conf.RateLimit.RPS, config.Conf.RateLimit.Burst, 10*time.Minute)
	defer rl.Stop()

	r := routers.NewRouter(appState.Store, reg, wsHandler, rl)

	server := &http.Server{
		Addr:         config.Conf.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Msgf("Starting server on http://localhost%s", config.Conf.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(fmt.Sprintf("ListenAndServe failed: %v", err))
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown initiated...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("Graceful shutdown failed: %v\n", err)
	} else {
		fmt.Println("Server exited gracefully.")
	}
}
