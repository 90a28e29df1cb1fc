package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nimasrn/lead-desk/internal/api"
	"github.com/nimasrn/lead-desk/internal/config"
	"github.com/nimasrn/lead-desk/internal/mockapi"
	"github.com/nimasrn/lead-desk/internal/push"
	"github.com/nimasrn/lead-desk/pkg/redis"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := config.Load(argContainsEnvPath()); err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	cfg := config.Get()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// push events are optional; the REST routes work without redis
	var publisher mockapi.Publisher
	var pub *push.Publisher
	rdb, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{cfg.RedisAddr},
		ClientName: cfg.AppName + "_mockapi",
		DB:         cfg.RedisDatabase,
		Username:   cfg.RedisUsername,
		Password:   cfg.RedisPassword,
	})
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, push events disabled")
	} else {
		defer rdb.Close()
		pub = push.NewPublisher(rdb)
		publisher = pub
	}

	svc := mockapi.NewService(mockapi.DemoLeads(), publisher)
	if pub != nil {
		stop, err := svc.Follow(ctx, pub)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to follow lead subscriptions")
		} else {
			defer stop()
		}
	}

	router := mockapi.SetupRouter(mockapi.NewHandler(svc), cfg.APIEndpoint, api.Routes{
		Leads:           cfg.APIRouteLeads,
		GetLeads:        cfg.APIFuncGetLeads,
		SwitchAttention: cfg.APIFuncSwitchAttention,
	})

	srv := &http.Server{
		Addr:         cfg.MockAPIAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("instance_id", svc.InstanceID()).Msg("Mock lead service started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.HasPrefix(v, "--env=") {
			s := strings.SplitN(v, "=", 2)
			if _, err := os.Stat(s[1]); err != nil {
				log.Error().Err(err).Str("path", s[1]).Msg("Failed to open the passed env file")
				return ""
			}
			return s[1]
		}
	}
	return ""
}
