// Command web is the HTTP side of the notification channel: it bootstraps
// anonymous keys, issues sessions, tells clients which identifier and
// endpoint to open their channel with and fronts the payment provider.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/dmitrymomot/lecturefeed/pkg/billing"
	"github.com/dmitrymomot/lecturefeed/pkg/config"
	"github.com/dmitrymomot/lecturefeed/pkg/cookie"
	"github.com/dmitrymomot/lecturefeed/pkg/httpserver"
	"github.com/dmitrymomot/lecturefeed/pkg/identity"
	"github.com/dmitrymomot/lecturefeed/pkg/logger"
	"github.com/dmitrymomot/lecturefeed/pkg/ratelimiter"
	"github.com/dmitrymomot/lecturefeed/pkg/requestid"
	"github.com/dmitrymomot/lecturefeed/pkg/session"
)

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.NewFromConfig(cfg.Logger, logger.WithContextExtractors(requestid.LogExtractor, identity.LogExtractor))
	logger.SetAsDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("web stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	cookies, err := cookie.NewFromConfig(cfg.Cookie)
	if err != nil {
		return err
	}

	backend, err := openSessionStore(ctx, cfg.SessionStore, cfg.Session, log)
	if err != nil {
		return err
	}

	issuer, err := session.NewFromConfig(cfg.sessionConfig(), backend.store, cookies, session.WithLogger(log))
	if err != nil {
		backend.close()
		return err
	}

	users, err := parseUsers(cfg.Users)
	if err != nil {
		backend.close()
		return err
	}
	auth, err := session.NewPasswordAuthenticator(users...)
	if err != nil {
		backend.close()
		return err
	}

	loginLimit, err := ratelimiter.NewBucket(backend.limits, cfg.Login)
	if err != nil {
		backend.close()
		return err
	}

	a := &app{
		log:         log,
		cookies:     cookies,
		resolver:    identity.NewResolverFromConfig(cfg.Identity, nil),
		issuer:      issuer,
		auth:        auth,
		loginLimit:  loginLimit,
		successURL:  cfg.BillingSuccessURL,
		channelBase: cfg.Channel.BaseURL,
	}

	if cfg.Paddle.APIKey != "" {
		p, err := billing.NewPaddleProvider(cfg.Paddle)
		if err != nil {
			backend.close()
			return err
		}
		a.billing = p
	} else {
		log.Info("PADDLE_API_KEY not set, billing routes disabled")
	}

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithShutdownHook(backend.close),
	)
	if err := srv.Run(ctx, a.routes(backend.checks)); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
