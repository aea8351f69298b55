package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	indieauth "github.com/cellardoor/indieauth"
	echoapi "github.com/cellardoor/indieauth/api/echo"
	"github.com/cellardoor/indieauth/cache"
	redisstore "github.com/cellardoor/indieauth/cache/redis"
	"github.com/cellardoor/indieauth/config"
	"github.com/cellardoor/indieauth/internal/metrics"
	"github.com/cellardoor/indieauth/internal/session"
)

var rootCmd = &cobra.Command{
	Use:   "cellardoor",
	Short: "IndieAuth authorization and token endpoint server",
	RunE: func(_ *cobra.Command, _ []string) error {
		return run()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	initLogger(cfg)

	codes, err := newCodeStore(cfg)
	if err != nil {
		return err
	}
	defer codes.Close()

	sessions := session.NewStore(cfg.SessionTTL)
	defer sessions.Close()

	signer := indieauth.NewTokenSigner(cfg.JWTSecretKey)
	authorizeSvc := indieauth.NewAuthorizeService(codes)
	tokenSvc := indieauth.NewTokenService(
		codes,
		signer,
		time.Duration(cfg.TokenTTLSeconds)*time.Second,
		cfg.CodesSingleUse,
	)

	metrics.InitCustomMetrics(prometheus.DefaultRegisterer)

	e := echo.New()
	e.HideBanner = true
	e.Renderer = echoapi.NewRenderer()
	e.Use(echomiddleware.Recover())
	e.Use(requestLogger())

	api := echoapi.NewAPI(authorizeSvc, tokenSvc, sessions, cfg.LoginUser, cfg.LoginPasswordHash)
	api.RegisterRoutes(e)

	errCh := make(chan error, 1)
	go func() {
		if serveErr := e.Start(":" + cfg.HTTPPort); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	log.Info().
		Str("port", cfg.HTTPPort).
		Str("code_store", cfg.CodeStore).
		Bool("codes_single_use", cfg.CodesSingleUse).
		Msg("Server started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		return err
	}

	log.Info().Msg("Server stopped")

	return nil
}

func initLogger(cfg *config.ServerConfig) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	if cfg.LogPretty {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = logger

	if err != nil {
		log.Warn().Str("configured_log_level", cfg.LogLevel).Msg("Invalid LOG_LEVEL configured, defaulting to 'info'")
	}
}

//nolint:ireturn
func newCodeStore(cfg *config.ServerConfig) (cache.CodeStore, error) {
	switch cfg.CodeStore {
	case config.CodeStoreRedis:
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			return nil, err
		}

		return redisstore.NewCodeStore(client, "cellardoor", cfg.CodeTTL), nil
	default:
		return cache.NewMemoryCodeStore(cfg.CodeStoreCapacity, cfg.CodeTTL), nil
	}
}

func requestLogger() echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil {
				event = log.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("HTTP request")

			return nil
		},
	})
}
