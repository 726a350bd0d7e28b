// Package notify forwards trade intents and run summaries to chat channels
// (Telegram, Discord). Intents are filtered by action so operators only get
// the alerts they asked for.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackleZac/trading-algorithm/internal/domain"
)

// EventRun is the event name of end-of-run summaries.
const EventRun = "run"

// Sender delivers one message to a channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier dispatches to every sender. It satisfies executor.Sink.
type Notifier struct {
	senders []Sender
	events  map[string]bool // allowed events; empty allows all
	logger  *slog.Logger
}

// NewNotifier creates a Notifier. events holds intent actions ("open_long",
// "close", ...) and "run".
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[e] = true
		}
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Enabled reports whether the notifier has any sender.
func (n *Notifier) Enabled() bool { return len(n.senders) > 0 }

func (n *Notifier) Name() string { return "notify" }

// Submit sends intent when its action is an allowed event.
func (n *Notifier) Submit(ctx context.Context, intent domain.TradeIntent) error {
	if !n.allowed(string(intent.Action)) {
		return nil
	}
	title := fmt.Sprintf("%s %s %s", intent.Symbol, intent.Strategy, intent.Action)
	return n.dispatch(ctx, title, FormatIntent(intent))
}

// NotifyRun sends an end-of-run message.
func (n *Notifier) NotifyRun(ctx context.Context, title, message string) error {
	if !n.allowed(EventRun) {
		return nil
	}
	return n.dispatch(ctx, title, message)
}

func (n *Notifier) allowed(event string) bool {
	return len(n.events) == 0 || n.events[event]
}

// dispatch sends to every sender; one failure does not stop the rest.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	var errs []error
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent", slog.String("sender", s.Name()), slog.String("title", title))
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %w", errors.Join(errs...))
	}
	return nil
}

// FormatIntent renders the body of an intent message.
func FormatIntent(in domain.TradeIntent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %g @ %g (layer %d)", in.Side, in.Size, in.Price, in.Layer)
	if in.StopLoss != nil {
		fmt.Fprintf(&b, "\nSL %g", *in.StopLoss)
	}
	if in.TakeProfit != nil {
		fmt.Fprintf(&b, "\nTP %g", *in.TakeProfit)
	}
	if in.Reason != "" {
		fmt.Fprintf(&b, "\n%s", in.Reason)
	}
	fmt.Fprintf(&b, "\nbar %s", in.BarTime.UTC().Format("2006-01-02 15:04"))
	return b.String()
}
