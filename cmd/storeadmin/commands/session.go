package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/storeadmin/internal/auth"
	"github.com/fivetwenty-io/storeadmin/internal/constants"
	"github.com/fivetwenty-io/storeadmin/internal/logger"
	"github.com/fivetwenty-io/storeadmin/pkg/admin"
	"github.com/fivetwenty-io/storeadmin/pkg/storeclient"
)

// session bundles a configured client with the resources it holds open.
type session struct {
	client   admin.Client
	logger   admin.Logger
	location *time.Location
	closers  []func()
}

// Close releases the notification connection, if any.
func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openSession creates a client from the effective configuration. The stored
// token is loaded into a store that writes changes back to the config file,
// so a login persists and a 401 clears the saved token.
func openSession(ctx context.Context) (*session, error) {
	config := loadConfig()
	if config.API == "" {
		return nil, constants.ErrNoAPIEndpoint
	}

	location, err := configLocation(config)
	if err != nil {
		return nil, err
	}

	log := newCLILogger()
	sess := &session{logger: log, location: location}

	tokens := auth.NewPersistentStore(NewConfigPersister(), storedToken(config), log)

	notifier, err := sess.notifier(config)
	if err != nil {
		return nil, err
	}

	var interceptors *admin.InterceptorChain
	if viper.GetBool("verbose") {
		interceptors = admin.NewInterceptorChain()
		interceptors.AddResponseInterceptor(admin.LoggingResponseInterceptor(log))
	}

	client, err := storeclient.New(ctx, &admin.Config{
		APIEndpoint:  config.API,
		TokenStore:   tokens,
		Notifier:     notifier,
		Logger:       log,
		Interceptors: interceptors,
		Debug:        viper.GetBool("verbose"),
		UserAgent:    constants.DefaultUserAgent,
		RetryMax:     config.RetryMax,
		RateLimit:    config.RateLimit,
		OnUnauthorized: func() {
			_, _ = fmt.Fprintln(os.Stderr, "Session expired. Run 'storeadmin login' to sign in again.")
		},
	})
	if err != nil {
		sess.Close()

		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	sess.client = client

	return sess, nil
}

// storedToken rebuilds the saved token. A saved expiry wins over the JWT
// claim; tokens without either never expire client side.
func storedToken(config *Config) *admin.Token {
	if config.Token == "" {
		return nil
	}

	if config.TokenExpiresAt != nil {
		return &admin.Token{AccessToken: config.Token, ExpiresAt: *config.TokenExpiresAt}
	}

	return auth.NewToken(config.Token)
}

func configLocation(config *Config) (*time.Location, error) {
	if config.Timezone == "" {
		return time.Local, nil
	}

	location, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", config.Timezone, err)
	}

	return location, nil
}

// notifier builds the operation outcome sinks. Outcomes are logged in
// verbose mode and published to NATS when a server is configured.
func (s *session) notifier(config *Config) (admin.Notifier, error) {
	notifiers := admin.MultiNotifier{}

	if viper.GetBool("verbose") {
		notifiers = append(notifiers, &admin.LogNotifier{Logger: s.logger})
	}

	if config.NATSURL != "" {
		conn, err := nats.Connect(config.NATSURL, nats.Name("storeadmin"), nats.Timeout(constants.ShortHTTPTimeout))
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS at %s: %w", config.NATSURL, err)
		}

		s.closers = append(s.closers, func() {
			_ = conn.Flush()
			conn.Close()
		})

		notifiers = append(notifiers, admin.NewNATSNotifier(conn, config.NATSSubject, s.logger))
	}

	return notifiers, nil
}

func newCLILogger() admin.Logger {
	cfg := logger.DefaultConfig()
	cfg.Level = logger.WarnLevel

	if viper.GetBool("verbose") {
		cfg.Level = logger.DebugLevel
	}

	return logger.New(cfg)
}
