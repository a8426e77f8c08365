// Package notify delivers "file moved" messages to the desktop and remote services.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/fenilsonani/tidyd/internal/category"
	"github.com/fenilsonani/tidyd/internal/config"
)

// Sink is told about each file that was moved
type Sink interface {
	Notify(ctx context.Context, fileName string, cat category.Category) error
}

// Message is what every channel receives
type Message struct {
	Title     string
	Body      string
	FileName  string
	Category  category.Category
	Timestamp time.Time
}

// MovedMessage builds the message for a completed move
func MovedMessage(fileName string, cat category.Category, now time.Time) Message {
	return Message{
		Title:     "File Organized",
		Body:      fmt.Sprintf("'%s' has been moved to '%s'.", fileName, cat),
		FileName:  fileName,
		Category:  cat,
		Timestamp: now,
	}
}

// channel delivers a message through one transport
type channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Service fans a message out to every configured channel
type Service struct {
	channels []channel
	limiter  *rate.Limiter
	logger   *slog.Logger
	now      func() time.Time
}

// New builds a Service from configuration. When notifications are disabled or no
// channel is configured a no-op sink is returned.
func New(cfg config.NotificationConfig, logger *slog.Logger) Sink {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Enabled {
		return Noop{}
	}

	var channels []channel
	if cfg.Desktop {
		channels = append(channels, newDesktop())
	}
	if strings.TrimSpace(cfg.Webhook.URL) != "" {
		channels = append(channels, newWebhook(cfg.Webhook))
	}
	if strings.TrimSpace(cfg.Ntfy.URL) != "" {
		channels = append(channels, newNtfy(cfg.Ntfy))
	}
	if strings.TrimSpace(cfg.Email.SMTPHost) != "" {
		channels = append(channels, newEmail(cfg.Email))
	}
	if len(channels) == 0 {
		return Noop{}
	}

	return newService(channels, limiterFor(cfg.RatePerMinute, cfg.Burst), logger)
}

func newService(channels []channel, limiter *rate.Limiter, logger *slog.Logger) *Service {
	return &Service{
		channels: channels,
		limiter:  limiter,
		logger:   logger,
		now:      time.Now,
	}
}

// limiterFor returns nil (unlimited) for a non-positive rate
func limiterFor(perMinute float64, burst int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perMinute/60), burst)
}

// Notify sends the moved message through every channel. When the rate limit is
// exhausted the message is dropped instead of stalling the caller.
func (s *Service) Notify(ctx context.Context, fileName string, cat category.Category) error {
	if s.limiter != nil && !s.limiter.Allow() {
		s.logger.Debug("notification rate limited", "file", fileName, "category", cat.String())
		return nil
	}

	msg := MovedMessage(fileName, cat, s.now())

	var errs []error
	for _, ch := range s.channels {
		if err := ch.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
			continue
		}
		s.logger.Debug("notification sent", "channel", ch.Name(), "file", fileName)
	}

	return errors.Join(errs...)
}

// Channels returns the names of the configured channels
func (s *Service) Channels() []string {
	names := make([]string, 0, len(s.channels))
	for _, ch := range s.channels {
		names = append(names, ch.Name())
	}
	return names
}

// Noop discards every notification
type Noop struct{}

// Notify implements Sink
func (Noop) Notify(context.Context, string, category.Category) error { return nil }
