package services

import "testing"

func TestParseStandupMessage_StructuredSections(t *testing.T) {
    msg := "Yesterday: Finished the login page\nToday: Start on payments\nBlockers: Waiting on API keys"
    f := ParseStandupMessage(msg)
    if f.YesterdayWork != "finished the login page" { t.Fatalf("yesterday = %q", f.YesterdayWork) }
    if f.TodayPlan != "start on payments" { t.Fatalf("today = %q", f.TodayPlan) }
    if f.Blockers != "waiting on api keys" { t.Fatalf("blockers = %q", f.Blockers) }
    if f.Notes != "" { t.Fatalf("expected empty notes, got %q", f.Notes) }
}

func TestParseStandupMessage_ContinuationLines(t *testing.T) {
    msg := "Yesterday:\nfixed the flaky test\nrebased the feature branch\nToday: code review"
    f := ParseStandupMessage(msg)
    if f.YesterdayWork != "fixed the flaky test rebased the feature branch" {
        t.Fatalf("continuation lines not joined: %q", f.YesterdayWork)
    }
    if f.TodayPlan != "code review" { t.Fatalf("today = %q", f.TodayPlan) }
}

func TestParseStandupMessage_AlternateKeywords(t *testing.T) {
    f := ParseStandupMessage("Finished: data model migration\nWorking on: the cart flow\nStuck: waiting for staging access")
    if f.YesterdayWork != "data model migration" { t.Fatalf("yesterday = %q", f.YesterdayWork) }
    if f.TodayPlan != "the cart flow" { t.Fatalf("today = %q", f.TodayPlan) }
    if f.Blockers != "waiting for staging access" { t.Fatalf("blockers = %q", f.Blockers) }
}

func TestParseStandupMessage_FreeTextGoesToNotes(t *testing.T) {
    msg := "Shipped the hotfix overnight, nothing else to report"
    f := ParseStandupMessage(msg)
    if f.YesterdayWork != "" || f.TodayPlan != "" || f.Blockers != "" {
        t.Fatalf("expected only notes, got %#v", f)
    }
    if f.Notes != msg { t.Fatalf("notes should carry the verbatim message, got %q", f.Notes) }
}

func TestParseStandupMessage_Empty(t *testing.T) {
    f := ParseStandupMessage("")
    if f.YesterdayWork != "" || f.TodayPlan != "" || f.Blockers != "" || f.Notes != "" {
        t.Fatalf("expected zero fields, got %#v", f)
    }
}
