package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jrsteele09/go-auth-proxy/auth"
	"github.com/jrsteele09/go-auth-proxy/authflow"
	"github.com/jrsteele09/go-auth-proxy/clients"
	"github.com/jrsteele09/go-auth-proxy/internal/config"
	"github.com/jrsteele09/go-auth-proxy/registration"
	"github.com/jrsteele09/go-auth-proxy/server"
	"github.com/jrsteele09/go-auth-proxy/store"
	"github.com/jrsteele09/go-auth-proxy/store/memory"
	"github.com/jrsteele09/go-auth-proxy/store/redis"
	"github.com/jrsteele09/go-auth-proxy/upstream"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the authorization server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			setupLogging(cfg)
			displayAppname(cfg.GetAppName())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := run(ctx, cfg); err != nil {
				log.Err(err).Msg("server stopped with error")
				return err
			}
			log.Info().Msg("Server stopped")
			return nil
		},
	}
}

func run(ctx context.Context, cfg config.Config) error {
	kv, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Err(err).Msg("failed to close store")
		}
	}()

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return err
	}

	clientRepo := clients.NewStoreRepo(kv)
	authService, err := auth.NewAuthorizationService(
		auth.Repos{Flows: authflow.NewStoreRepo(kv), Clients: clientRepo},
		provider,
		auth.WithPolicy(auth.PolicyFromConfig(cfg)),
	)
	if err != nil {
		return errors.Wrap(err, "[run] authorization service")
	}
	registrar, err := registration.NewRegistrar(clientRepo)
	if err != nil {
		return errors.Wrap(err, "[run] registrar")
	}
	handler, err := server.New(cfg, authService, registrar)
	if err != nil {
		return errors.Wrap(err, "[run] server")
	}

	httpServer := &http.Server{
		Addr:              cfg.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", httpServer.Addr).Str("upstream", provider.Name()).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "server.ListenAndServe")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "server.Shutdown")
		}
		return nil
	})
	return g.Wait()
}

func newStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.GetStoreType() {
	case "memory":
		return memory.New(cfg.GetSweepInterval()), nil
	case "redis":
		s, err := redis.New(ctx, redis.Options{
			Addr:      cfg.GetRedisAddr(),
			Password:  cfg.GetRedisPassword(),
			DB:        cfg.GetRedisDB(),
			KeyPrefix: cfg.GetRedisKeyPrefix(),
		})
		if err != nil {
			return nil, errors.Wrap(err, "[newStore] redis")
		}
		return s, nil
	}
	return nil, fmt.Errorf("[newStore] unknown STORE_TYPE %q", cfg.GetStoreType())
}

func newProvider(ctx context.Context, cfg config.Config) (upstream.Provider, error) {
	callbackURL := cfg.GetBaseURL() + server.RouteCallback

	switch cfg.GetUpstreamType() {
	case "hosted":
		var verifier *upstream.JWTVerifier
		if secret := cfg.GetUpstreamJWTSecret(); secret != "" {
			var err error
			if verifier, err = upstream.NewJWTVerifier(secret, cfg.GetUpstreamJWTAudience()); err != nil {
				return nil, err
			}
		}
		return upstream.NewHostedProvider(upstream.HostedConfig{
			BaseURL:       cfg.GetUpstreamURL(),
			APIKey:        cfg.GetUpstreamAPIKey(),
			LoginProvider: cfg.GetUpstreamProvider(),
			CallbackURL:   callbackURL,
			Verifier:      verifier,
		})
	case "oidc":
		return upstream.NewOIDCProvider(ctx, upstream.OIDCConfig{
			Issuer:       cfg.GetOIDCIssuer(),
			ClientID:     cfg.GetOIDCClientID(),
			ClientSecret: cfg.GetOIDCClientSecret(),
			RedirectURL:  callbackURL,
			Scopes:       cfg.GetOIDCScopes(),
		})
	}
	return nil, fmt.Errorf("[newProvider] unknown UPSTREAM_TYPE %q", cfg.GetUpstreamType())
}

func setupLogging(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
