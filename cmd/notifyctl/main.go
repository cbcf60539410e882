// Command notifyctl opens the notification channel from a terminal and
// prints every batch it receives.
//
//	notifyctl -user 42
//	notifyctl -anon 3f1c...    # anonymous key
//	notifyctl -web http://localhost:8080 -username ada -password secret
//
// Channel settings come from NOTIFICATIONS_* variables (or a .env file).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/lecturefeed/pkg/channel"
	"github.com/dmitrymomot/lecturefeed/pkg/config"
	"github.com/dmitrymomot/lecturefeed/pkg/feed"
	"github.com/dmitrymomot/lecturefeed/pkg/identity"
	"github.com/dmitrymomot/lecturefeed/pkg/logger"
	"github.com/dmitrymomot/lecturefeed/pkg/store"
)

type cliConfig struct {
	Logger   logger.Config
	Channel  channel.Config
	Identity identity.Config

	AnonymousKey string `env:"NOTIFYCTL_ANON_KEY"`
}

type options struct {
	envFile   string
	user      string
	anon      string
	web       string
	username  string
	password  string
	keepalive time.Duration
	reconnect time.Duration
	raw       bool
	color     bool
}

func main() {
	var o options
	flag.StringVar(&o.envFile, "env-file", "", "dotenv file to load before the environment")
	flag.StringVar(&o.user, "user", "", "authenticated user id")
	flag.StringVar(&o.anon, "anon", "", "anonymous key (default NOTIFYCTL_ANON_KEY)")
	flag.StringVar(&o.web, "web", "", "web front end URL to resolve the identifier from")
	flag.StringVar(&o.username, "username", "", "log in to -web with this username")
	flag.StringVar(&o.password, "password", "", "password for -username")
	flag.DurationVar(&o.keepalive, "keepalive", -1, "periodic keepalive interval, overrides NOTIFICATIONS_KEEPALIVE_INTERVAL")
	flag.DurationVar(&o.reconnect, "reconnect", 0, "reopen the channel this long after a transport error (0 = exit)")
	flag.BoolVar(&o.raw, "raw", false, "print compact JSON, one item per line")
	flag.BoolVar(&o.color, "color", false, "colorize JSON output")
	flag.Parse()

	var cfg cliConfig
	var loadOpts []config.Option
	if o.envFile != "" {
		loadOpts = append(loadOpts, config.WithEnvFiles(o.envFile))
	}
	if err := config.Load(&cfg, loadOpts...); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logger.NewFromConfig(cfg.Logger, logger.WithOutput(os.Stderr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, o, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("notifyctl stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg cliConfig, o options, log *slog.Logger) error {
	if o.keepalive >= 0 {
		cfg.Channel.KeepaliveInterval = o.keepalive
	}
	if o.anon == "" {
		o.anon = cfg.AnonymousKey
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}

	explicit := identity.Authenticated(o.user)
	if o.web != "" && explicit.IsZero() {
		explicit, err = fetchIdentity(ctx, &http.Client{Jar: jar, Timeout: 10 * time.Second}, o.web, o.username, o.password)
		if err != nil {
			return err
		}
	}

	resolver := identity.NewResolverFromConfig(cfg.Identity, identity.MapLookup{cfg.Identity.CookieName: o.anon})

	st := store.New()
	defer st.Close()

	failures := make(chan error, 1)
	manager, err := channel.NewFromConfig(cfg.Channel, st,
		channel.WithLogger(log),
		channel.WithDialer(channel.NewWebsocketDialer(
			channel.WithHandshakeTimeout(cfg.Channel.HandshakeTimeout),
			channel.WithReadTimeout(cfg.Channel.ReadTimeout),
			channel.WithWriteTimeout(cfg.Channel.WriteTimeout),
			channel.WithCookieJar(jar),
		)),
		channel.WithErrorHandler(func(_ identity.Identifier, err error) {
			select {
			case failures <- err:
			default:
			}
		}),
	)
	if err != nil {
		return err
	}

	f, err := feed.New(resolver, manager, st, feed.WithLogger(log))
	if err != nil {
		return err
	}
	defer f.Close()

	id, err := f.Sync(ctx, explicit)
	if err != nil {
		return err
	}
	if id.IsZero() {
		return errors.New("no identifier: pass -user, -anon or -web")
	}
	log.Info("channel opening", logger.Identifier(id), logger.IdentifierKind(id.Kind()))

	p := &printer{out: os.Stdout, raw: o.raw, color: o.color, now: time.Now}
	return watch(ctx, f, st, p, failures, o.reconnect, explicit, log)
}

func watch(ctx context.Context, f *feed.Feed, st *store.Store, p *printer, failures <-chan error, reconnect time.Duration, explicit identity.Identifier, log *slog.Logger) error {
	batches := f.Watch(ctx)

	var retry <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case batch, ok := <-batches:
			if !ok {
				return ctx.Err()
			}
			// Version 0 is the empty batch held before any frame arrives.
			if v := st.Version(); v > 0 {
				p.print(v, batch)
			}

		case err := <-failures:
			if reconnect <= 0 {
				return err
			}
			log.Warn("channel failed, reopening", logger.Error(err), logger.Duration(reconnect))
			retry = time.After(reconnect)

		case <-retry:
			retry = nil
			if _, err := f.Sync(ctx, explicit); err != nil {
				return err
			}
		}
	}
}
