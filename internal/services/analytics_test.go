package services

import (
    "testing"
    "time"

    "github.com/MuhammadMaazA/scrum-master-ai/internal/domain"
)

func fp(v float64) *float64 { return &v }

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func testSprint() domain.Sprint {
    return domain.Sprint{
        ID:        1,
        Name:      "Sprint 12",
        TeamID:    1,
        StartDate: day(2026, 3, 2),
        EndDate:   day(2026, 3, 15),
        Status:    domain.SprintActive,
    }
}

func testItems() []domain.BacklogItem {
    return []domain.BacklogItem{
        {ID: 1, Title: "Payments API", StoryPoints: fp(10), Status: "done"},
        {ID: 2, Title: "Checkout UI", StoryPoints: fp(15), Status: "Completed"},
        {ID: 3, Title: "Cart backend", StoryPoints: fp(15), Status: "in_progress"},
    }
}

func TestComputeSprintMetrics_CoreNumbers(t *testing.T) {
    m := ComputeSprintMetrics(testSprint(), testItems(), day(2026, 3, 9))
    if m.TotalPoints != 40 { t.Fatalf("total = %v", m.TotalPoints) }
    if m.CompletedPoints != 25 { t.Fatalf("completed = %v", m.CompletedPoints) }
    if m.RemainingPoints != 15 { t.Fatalf("remaining = %v", m.RemainingPoints) }
    if m.CompletionPct != 62.5 { t.Fatalf("completion pct = %v", m.CompletionPct) }
    if m.DaysRemaining != 6 { t.Fatalf("days remaining = %v", m.DaysRemaining) }
    // 25 points over a 14 day sprint
    if got, want := m.Velocity, 25.0/14.0; got != want { t.Fatalf("velocity = %v want %v", got, want) }
    // 8 of 14 days elapsed expects 57.1%, actual 62.5% is inside the band
    if !m.OnTrack { t.Fatalf("expected on track") }
    if m.PredictedDone == nil { t.Fatalf("expected predicted completion date") }
    // 15 remaining at 25/14 per day floors to 8 days out
    if want := day(2026, 3, 17); !m.PredictedDone.Equal(want) {
        t.Fatalf("predicted = %v want %v", m.PredictedDone, want)
    }
}

func TestComputeSprintMetrics_HalfwayAheadOfPlanIsOffTrack(t *testing.T) {
    // 7 of 14 days elapsed expects 50%, actual 62.5% misses the 10 point band
    m := ComputeSprintMetrics(testSprint(), testItems(), day(2026, 3, 8))
    if m.CompletionPct != 62.5 { t.Fatalf("completion pct = %v", m.CompletionPct) }
    if m.OnTrack { t.Fatalf("expected off track at the halfway mark") }
}

func TestComputeSprintMetrics_BehindSchedule(t *testing.T) {
    m := ComputeSprintMetrics(testSprint(), testItems(), day(2026, 3, 13))
    // 12 of 14 days elapsed expects 85.7%, actual 62.5% is outside the band
    if m.OnTrack { t.Fatalf("expected off track") }
    if m.DaysRemaining != 2 { t.Fatalf("days remaining = %v", m.DaysRemaining) }
}

func TestComputeSprintMetrics_PastEndClampsToZeroDays(t *testing.T) {
    m := ComputeSprintMetrics(testSprint(), testItems(), day(2026, 4, 1))
    if m.DaysRemaining != 0 { t.Fatalf("days remaining = %v", m.DaysRemaining) }
}

func TestPredictedCompletion_NilCases(t *testing.T) {
    sprint := testSprint()
    allDone := []domain.BacklogItem{{ID: 1, StoryPoints: fp(20), Status: "done"}}
    if m := ComputeSprintMetrics(sprint, allDone, day(2026, 3, 9)); m.PredictedDone != nil {
        t.Fatalf("nothing remaining should have nil prediction, got %v", m.PredictedDone)
    }
    nothingDone := []domain.BacklogItem{{ID: 1, StoryPoints: fp(20), Status: "todo"}}
    if m := ComputeSprintMetrics(sprint, nothingDone, day(2026, 3, 9)); m.PredictedDone != nil {
        t.Fatalf("zero velocity should have nil prediction, got %v", m.PredictedDone)
    }
}

func TestComputeSprintMetrics_NoEstimates(t *testing.T) {
    items := []domain.BacklogItem{{ID: 1, Status: "done"}, {ID: 2, Status: "todo"}}
    m := ComputeSprintMetrics(testSprint(), items, day(2026, 3, 9))
    if m.TotalPoints != 0 || m.CompletionPct != 0 {
        t.Fatalf("unestimated items should contribute nothing: %#v", m)
    }
}

func TestGenerateBurndown_Shape(t *testing.T) {
    pts := GenerateBurndown(testSprint(), testItems(), day(2026, 3, 9))
    // one point per day from start through today
    if len(pts) != 8 { t.Fatalf("expected 8 points, got %d", len(pts)) }
    if pts[0].IdealRemaining != 40 { t.Fatalf("first ideal = %v", pts[0].IdealRemaining) }
    last := pts[len(pts)-1]
    if last.ActualRemaining != 15 { t.Fatalf("today's actual remaining = %v", last.ActualRemaining) }
    if last.CompletedByDate != 25 { t.Fatalf("today's completed = %v", last.CompletedByDate) }
    for i := 1; i < len(pts); i++ {
        if !pts[i].Date.After(pts[i-1].Date) { t.Fatalf("dates not increasing at %d", i) }
        if pts[i].IdealRemaining > pts[i-1].IdealRemaining { t.Fatalf("ideal not decreasing at %d", i) }
        if pts[i].IdealRemaining < 0 { t.Fatalf("negative ideal at %d", i) }
    }
}

func TestGenerateBurndown_CapsAtSprintEnd(t *testing.T) {
    pts := GenerateBurndown(testSprint(), testItems(), day(2026, 4, 1))
    if len(pts) != 14 { t.Fatalf("expected 14 points, got %d", len(pts)) }
}

func TestVelocityTrend(t *testing.T) {
    rec := func(v float64) domain.VelocityRecord { return domain.VelocityRecord{Velocity: v} }
    // records are most recent first
    if got := VelocityTrend([]domain.VelocityRecord{rec(3.0), rec(2.5), rec(2.0)}); got != TrendImproving {
        t.Fatalf("trend = %q want improving", got)
    }
    if got := VelocityTrend([]domain.VelocityRecord{rec(2.0), rec(2.5), rec(3.0)}); got != TrendDeclining {
        t.Fatalf("trend = %q want declining", got)
    }
    if got := VelocityTrend([]domain.VelocityRecord{rec(2.5), rec(2.5)}); got != TrendStable {
        t.Fatalf("trend = %q want stable", got)
    }
    if got := VelocityTrend([]domain.VelocityRecord{rec(2.5)}); got != TrendStable {
        t.Fatalf("single record trend = %q want stable", got)
    }
}

func TestAverageVelocity(t *testing.T) {
    recs := []domain.VelocityRecord{{Velocity: 2}, {Velocity: 4}}
    if got := AverageVelocity(recs); got != 3 { t.Fatalf("avg = %v", got) }
    if got := AverageVelocity(nil); got != 0 { t.Fatalf("empty avg = %v", got) }
}
