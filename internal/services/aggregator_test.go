package services

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/MuhammadMaazA/scrum-master-ai/internal/config"
    "github.com/MuhammadMaazA/scrum-master-ai/internal/domain"
    "github.com/rs/zerolog"
)

type fakeChat struct {
    msgs   []domain.ChatMessage
    err    error
    posted []string
}

func (f *fakeChat) PostMessage(ctx context.Context, channelID, text string) (string, error) {
    f.posted = append(f.posted, text)
    return "1700000000.000100", nil
}

func (f *fakeChat) FetchRecentMessages(ctx context.Context, channelID string, sinceHours int) ([]domain.ChatMessage, error) {
    return f.msgs, f.err
}

type fakeTracker struct {
    updates []domain.TicketUpdate
    err     error
}

func (f *fakeTracker) RecentlyUpdatedTickets(ctx context.Context, projectKey string, hoursBack int) ([]domain.TicketUpdate, error) {
    return f.updates, f.err
}

func newTestAggregator(chat Messenger, tracker Tracker) *Aggregator {
    return NewAggregator(config.Config{}, zerolog.Nop(), chat, tracker)
}

func TestCollect_NoSources_FallsBackToSamples(t *testing.T) {
    agg := newTestAggregator(&fakeChat{}, &fakeTracker{})
    entries, updates := agg.Collect(context.Background(), "C123", "DEMO", 24, nil)
    if len(entries) != 2 { t.Fatalf("expected 2 sample entries, got %d", len(entries)) }
    if len(updates) != 0 { t.Fatalf("expected no updates, got %d", len(updates)) }
    for _, e := range entries {
        if e.Source != domain.SourceSample { t.Fatalf("expected sample source, got %q", e.Source) }
    }
    if entries[0].Author != "Alice Smith" || entries[1].Author != "Bob Johnson" {
        t.Fatalf("unexpected sample authors: %q, %q", entries[0].Author, entries[1].Author)
    }
}

func TestCollect_SourceFailuresAbsorbed(t *testing.T) {
    agg := newTestAggregator(
        &fakeChat{err: errors.New("slack down")},
        &fakeTracker{err: errors.New("jira down")},
    )
    entries, updates := agg.Collect(context.Background(), "C123", "DEMO", 24, nil)
    if len(entries) != 2 { t.Fatalf("failures should fall back to samples, got %d entries", len(entries)) }
    if updates != nil { t.Fatalf("failed tracker fetch should yield nil updates") }
}

func TestCollect_ParsesChatMessages(t *testing.T) {
    chat := &fakeChat{msgs: []domain.ChatMessage{
        {Author: "Dana", Text: "Yesterday: fixed the login bug\nToday: writing tests", Timestamp: time.Now()},
        {Author: "Eli", Text: "   ", Timestamp: time.Now()},
    }}
    agg := newTestAggregator(chat, &fakeTracker{})
    entries, _ := agg.Collect(context.Background(), "C123", "", 24, nil)
    if len(entries) != 1 { t.Fatalf("blank messages should be skipped, got %d entries", len(entries)) }
    e := entries[0]
    if e.Source != domain.SourceChat { t.Fatalf("source = %q", e.Source) }
    if e.Author != "Dana" { t.Fatalf("author = %q", e.Author) }
    if e.Yesterday != "fixed the login bug" { t.Fatalf("yesterday = %q", e.Yesterday) }
    if e.Today != "writing tests" { t.Fatalf("today = %q", e.Today) }
}

func TestCollect_TrackerEntriesAndUpdates(t *testing.T) {
    tracker := &fakeTracker{updates: []domain.TicketUpdate{
        {Key: "PROJ-1", Summary: "Fix login", Status: "In Progress"},
    }}
    agg := newTestAggregator(&fakeChat{}, tracker)
    entries, updates := agg.Collect(context.Background(), "", "PROJ", 24, nil)
    if len(updates) != 1 { t.Fatalf("expected 1 update, got %d", len(updates)) }
    if len(entries) != 1 { t.Fatalf("expected 1 entry, got %d", len(entries)) }
    e := entries[0]
    if e.Source != domain.SourceTracker { t.Fatalf("source = %q", e.Source) }
    if e.Author != "PROJ-1" { t.Fatalf("author = %q", e.Author) }
    if e.Notes != "PROJ-1: Fix login [In Progress]" { t.Fatalf("notes = %q", e.Notes) }
}

func TestCollect_ManualEntriesTagged(t *testing.T) {
    manual := []domain.StandupEntry{{Author: "Fay", Yesterday: "deploy prep"}}
    agg := newTestAggregator(&fakeChat{}, &fakeTracker{})
    entries, _ := agg.Collect(context.Background(), "", "", 24, manual)
    if len(entries) != 1 { t.Fatalf("expected 1 entry, got %d", len(entries)) }
    if entries[0].Source != domain.SourceManual { t.Fatalf("source = %q", entries[0].Source) }
}

func TestSampleEntries_ConfigOverride(t *testing.T) {
    cfg := config.Config{SampleEntries: []config.SampleEntry{
        {Author: "Gus", Yesterday: "a", Today: "b", Blockers: "c"},
    }}
    agg := NewAggregator(cfg, zerolog.Nop(), &fakeChat{}, &fakeTracker{})
    entries, _ := agg.Collect(context.Background(), "", "", 24, nil)
    if len(entries) != 1 || entries[0].Author != "Gus" {
        t.Fatalf("expected configured sample set, got %#v", entries)
    }
    if entries[0].Source != domain.SourceSample { t.Fatalf("source = %q", entries[0].Source) }
}
