package services

import (
    "context"
    "fmt"
    "strings"

    "github.com/MuhammadMaazA/scrum-master-ai/internal/config"
    "github.com/MuhammadMaazA/scrum-master-ai/internal/domain"
    "github.com/rs/zerolog"
)

// Messenger is the messaging gateway (Slack-like) consumed by the aggregator.
type Messenger interface {
    PostMessage(ctx context.Context, channelID, text string) (string, error)
    FetchRecentMessages(ctx context.Context, channelID string, sinceHours int) ([]domain.ChatMessage, error)
}

// Tracker is the ticket tracker gateway (Jira-like), best-effort enrichment.
type Tracker interface {
    RecentlyUpdatedTickets(ctx context.Context, projectKey string, hoursBack int) ([]domain.TicketUpdate, error)
}

// Aggregator collects standup entries from the configured sources in
// priority order: chat transcript, then tracker updates, then manual
// entries. Source failures are logged and absorbed; the result is never
// empty: with nothing collected it returns the sample dataset.
type Aggregator struct {
    chat    Messenger
    tracker Tracker
    log     zerolog.Logger
    samples []domain.StandupEntry
}

func NewAggregator(cfg config.Config, log zerolog.Logger, chat Messenger, tracker Tracker) *Aggregator {
    return &Aggregator{chat: chat, tracker: tracker, log: log, samples: sampleEntries(cfg)}
}

// Collect merges all sources into one entry list and also returns the raw
// tracker updates so the summarizer can include them without a second fetch.
func (a *Aggregator) Collect(ctx context.Context, channelID, projectKey string, lookbackHours int, manual []domain.StandupEntry) ([]domain.StandupEntry, []domain.TicketUpdate) {
    if lookbackHours <= 0 { lookbackHours = 24 }
    var entries []domain.StandupEntry

    if a.chat != nil && channelID != "" {
        msgs, err := a.chat.FetchRecentMessages(ctx, channelID, lookbackHours)
        if err != nil {
            a.log.Error().Err(err).Str("channel", channelID).Msg("aggregator: chat fetch failed")
        } else {
            for _, m := range msgs {
                if strings.TrimSpace(m.Text) == "" { continue }
                f := ParseStandupMessage(m.Text)
                entries = append(entries, domain.StandupEntry{
                    Author:    m.Author,
                    Yesterday: f.YesterdayWork,
                    Today:     f.TodayPlan,
                    Blockers:  f.Blockers,
                    Notes:     f.Notes,
                    Source:    domain.SourceChat,
                })
            }
        }
    }

    var updates []domain.TicketUpdate
    if a.tracker != nil && projectKey != "" {
        var err error
        updates, err = a.tracker.RecentlyUpdatedTickets(ctx, projectKey, lookbackHours)
        if err != nil {
            a.log.Error().Err(err).Str("project", projectKey).Msg("aggregator: tracker fetch failed")
            updates = nil
        }
        for _, u := range updates {
            entries = append(entries, domain.StandupEntry{
                Author: u.Key,
                Notes:  fmt.Sprintf("%s: %s [%s]", u.Key, u.Summary, u.Status),
                Source: domain.SourceTracker,
            })
        }
    }

    for _, m := range manual {
        m.Source = domain.SourceManual
        entries = append(entries, m)
    }

    if len(entries) == 0 {
        a.log.Warn().Str("channel", channelID).Str("project", projectKey).Msg("aggregator: no entries from any source, using sample data")
        entries = append(entries, a.samples...)
    }
    return entries, updates
}

// sampleEntries builds the fallback dataset, configurable via
// SAMPLE_ENTRIES_FILE and defaulting to the canonical two-entry set.
func sampleEntries(cfg config.Config) []domain.StandupEntry {
    if len(cfg.SampleEntries) > 0 {
        out := make([]domain.StandupEntry, 0, len(cfg.SampleEntries))
        for _, s := range cfg.SampleEntries {
            out = append(out, domain.StandupEntry{
                Author:    s.Author,
                Yesterday: s.Yesterday,
                Today:     s.Today,
                Blockers:  s.Blockers,
                Source:    domain.SourceSample,
            })
        }
        return out
    }
    return []domain.StandupEntry{
        {
            Author:    "Alice Smith",
            Yesterday: "Completed payment integration API, fixed 2 critical bugs",
            Today:     "Working on cart functionality, code review for Bob's PR",
            Blockers:  "Waiting for UX designs for checkout flow",
            Source:    domain.SourceSample,
        },
        {
            Author:    "Bob Johnson",
            Yesterday: "Finished user authentication module, updated documentation",
            Today:     "Starting shopping cart backend, team planning meeting",
            Blockers:  "",
            Source:    domain.SourceSample,
        },
    }
}
