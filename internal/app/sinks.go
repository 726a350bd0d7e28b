package app

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackleZac/trading-algorithm/internal/config"
	"github.com/jackleZac/trading-algorithm/internal/executor"
	"github.com/jackleZac/trading-algorithm/internal/notify"
)

// sinkSet is the fan-out of enabled sinks plus the journal, which is closed and
// possibly uploaded when the run ends.
type sinkSet struct {
	fanout   *executor.Fanout
	journal  *executor.JournalSink
	notifier *notify.Notifier // nil when no channel is configured
}

func (s *sinkSet) close() error {
	if s.journal == nil {
		return nil
	}
	return s.journal.Close()
}

// journalPath expands "{run_id}" in the configured path.
func journalPath(pattern, runID string) string {
	return strings.ReplaceAll(pattern, "{run_id}", runID)
}

func newNotifier(cfg config.NotifyConfig, logger *slog.Logger) *notify.Notifier {
	var senders []notify.Sender
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.TelegramToken, cfg.TelegramChatID))
	}
	if cfg.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.DiscordWebhookURL))
	}
	return notify.NewNotifier(senders, cfg.Events, logger)
}

// buildSinks assembles the sinks for one run. The log sink is always present.
func buildSinks(cfg *config.Config, deps *Dependencies, runID string, logger *slog.Logger) (*sinkSet, error) {
	sinks := []executor.Sink{executor.NewLogSink(logger)}
	set := &sinkSet{}

	if cfg.Sink.Journal != "" {
		j, err := executor.NewJournalSink(journalPath(cfg.Sink.Journal, runID))
		if err != nil {
			return nil, fmt.Errorf("app: journal sink: %w", err)
		}
		set.journal = j
		sinks = append(sinks, j)
	}
	if cfg.Sink.Postgres {
		if deps.IntentStore == nil {
			_ = set.close()
			return nil, fmt.Errorf("app: postgres sink enabled without a database")
		}
		sinks = append(sinks, executor.NewStoreSink(deps.IntentStore))
	}
	if cfg.Sink.Redis {
		if deps.IntentBus == nil {
			_ = set.close()
			return nil, fmt.Errorf("app: redis sink enabled without a redis client")
		}
		sinks = append(sinks, executor.NewBusSink(deps.IntentBus))
	}

	if n := newNotifier(cfg.Notify, logger); n.Enabled() {
		set.notifier = n
		sinks = append(sinks, n)
	}

	set.fanout = executor.NewFanout(sinks...)
	return set, nil
}
