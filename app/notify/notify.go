// Package notify delivers status-change notifications to a set of
// destination URLs (mailto, slack, http/https webhooks). Destinations are
// routed by URL schema to the matching sender and processed concurrently.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/notify"
	"github.com/go-pkgz/syncs"
)

// concurrent sends at a time
const sendConcurrency = 4

// Params configures the notification service
type Params struct {
	Destinations []string // mailto:..., slack:channel, https://hook...
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPTLS      bool
	SlackToken   string
	FromEmail    string
	Timeout      time.Duration
}

// Service routes messages to all configured destinations
type Service struct {
	destinations []string
	senders      []notify.Notifier
	fromEmail    string
}

// NewService creates the service with senders for every schema the
// destinations need. Returns nil when no destinations are configured, a nil
// *Service is safe to leave out of the tracker.
func NewService(p Params) *Service {
	if len(p.Destinations) == 0 {
		return nil
	}

	timeout := p.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	senders := []notify.Notifier{notify.NewWebhook(notify.WebhookParams{Timeout: timeout})}
	if p.SMTPHost != "" {
		senders = append(senders, notify.NewEmail(notify.SMTPParams{
			Host:     p.SMTPHost,
			Port:     p.SMTPPort,
			TLS:      p.SMTPTLS,
			Username: p.SMTPUsername,
			Password: p.SMTPPassword,
			TimeOut:  timeout,
		}))
	}
	if p.SlackToken != "" {
		senders = append(senders, notify.NewSlack(p.SlackToken))
	}

	return &Service{destinations: p.Destinations, senders: senders, fromEmail: p.FromEmail}
}

// Send delivers the message to every destination, concurrently. Partial
// failures are joined into a single error after all sends complete.
func (s *Service) Send(ctx context.Context, subj, text string) error {
	if s == nil {
		return nil
	}

	var mu sync.Mutex
	var errs []error

	gr := syncs.NewSizedGroup(sendConcurrency, syncs.Context(ctx))
	for _, dest := range s.destinations {
		gr.Go(func(ctx context.Context) {
			if err := s.sendOne(ctx, dest, subj, text); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("send to %s failed: %w", dest, err))
				mu.Unlock()
				return
			}
			log.Printf("[DEBUG] notification sent to %s", dest)
		})
	}
	gr.Wait()

	return errors.Join(errs...)
}

// sendOne routes a single destination to the sender matching its schema
func (s *Service) sendOne(ctx context.Context, dest, subj, text string) error {
	for _, sender := range s.senders {
		if !strings.HasPrefix(dest, sender.Schema()) {
			continue
		}
		if sender.Schema() == "mailto" {
			dest = s.withEmailParams(dest, subj)
		}
		return sender.Send(ctx, dest, text)
	}
	return fmt.Errorf("no sender for destination schema")
}

// withEmailParams injects from/subject query parameters into a mailto URL
// the way the email sender expects them
func (s *Service) withEmailParams(dest, subj string) string {
	u, err := url.Parse(dest)
	if err != nil {
		return dest
	}
	q := u.Query()
	if q.Get("subject") == "" {
		q.Set("subject", subj)
	}
	if q.Get("from") == "" && s.fromEmail != "" {
		q.Set("from", s.fromEmail)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
