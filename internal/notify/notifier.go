// Package notify forwards committed pool events to operator channels
// (Telegram, Discord). Delivery is filtered by event kind so operators see
// the distributions, pauses, and rate changes they care about without every
// stake crossing their feed.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stakeline/stakeline/internal/domain"
)

// Sender is one delivery channel.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier fans a pool event out to every configured sender, subject to the
// configured event-kind filter.
type Notifier struct {
	senders []Sender
	kinds   map[domain.EventKind]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier delivering to the given senders. Only events
// whose kind appears in kinds are forwarded; an empty kinds list forwards
// everything.
func NewNotifier(senders []Sender, kinds []string, logger *slog.Logger) *Notifier {
	allowed := make(map[domain.EventKind]bool, len(kinds))
	for _, k := range kinds {
		allowed[domain.EventKind(strings.TrimSpace(k))] = true
	}
	return &Notifier{
		senders: senders,
		kinds:   allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify delivers the event to every sender when its kind passes the filter.
func (n *Notifier) Notify(ctx context.Context, kind domain.EventKind, title, message string) error {
	if len(n.kinds) > 0 && !n.kinds[kind] {
		n.logger.DebugContext(ctx, "event kind filtered out",
			slog.String("kind", string(kind)),
		)
		return nil
	}
	return n.dispatch(ctx, title, message)
}

// dispatch sends to every sender. Individual failures are logged and
// collected; one failing channel never blocks the others.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("title", title),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
