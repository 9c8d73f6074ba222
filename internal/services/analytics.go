package services

import (
    "strings"
    "time"

    "github.com/MuhammadMaazA/scrum-master-ai/internal/domain"
)

// Trend classifications for velocity history.
const (
    TrendImproving = "improving"
    TrendDeclining = "declining"
    TrendStable    = "stable"
)

// onTrackTolerance is the allowed gap, in percentage points, between actual
// completion and the time-proportional expectation.
const onTrackTolerance = 10.0

var doneStatuses = map[string]bool{"done": true, "completed": true, "closed": true}

func isDone(status string) bool { return doneStatuses[strings.ToLower(strings.TrimSpace(status))] }

func points(it domain.BacklogItem) float64 {
    if it.StoryPoints == nil { return 0 }
    return *it.StoryPoints
}

// sumPoints returns (total, completed) story points for the item set.
func sumPoints(items []domain.BacklogItem) (float64, float64) {
    var total, completed float64
    for _, it := range items {
        p := points(it)
        total += p
        if isDone(it.Status) { completed += p }
    }
    return total, completed
}

// sprintDurationDays counts calendar days inclusively: a one-day sprint has
// duration 1.
func sprintDurationDays(s domain.Sprint) int {
    return daysBetween(s.StartDate, s.EndDate) + 1
}

func daysBetween(a, b time.Time) int {
    return int(dateOnly(b).Sub(dateOnly(a)).Hours() / 24)
}

func dateOnly(t time.Time) time.Time {
    return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ComputeSprintMetrics derives the full metrics set for one sprint from its
// backlog item snapshot. today is injected so computations stay pure.
func ComputeSprintMetrics(sprint domain.Sprint, items []domain.BacklogItem, today time.Time) domain.SprintMetrics {
    total, completed := sumPoints(items)
    remaining := total - completed
    if remaining < 0 { remaining = 0 }

    duration := sprintDurationDays(sprint)
    velocity := 0.0
    if duration > 0 { velocity = completed / float64(duration) }

    completionPct := 0.0
    if total > 0 { completionPct = completed / total * 100 }

    daysRemaining := daysBetween(today, sprint.EndDate)
    if daysRemaining < 0 { daysRemaining = 0 }

    m := domain.SprintMetrics{
        SprintID:        sprint.ID,
        SprintName:      sprint.Name,
        TotalPoints:     total,
        CompletedPoints: completed,
        RemainingPoints: remaining,
        Velocity:        velocity,
        CompletionPct:   completionPct,
        DaysRemaining:   daysRemaining,
        PredictedDone:   predictCompletionDate(remaining, velocity, today),
        OnTrack:         isOnTrack(sprint, completionPct, daysRemaining),
        Burndown:        GenerateBurndown(sprint, items, today),
    }
    return m
}

// predictCompletionDate projects the finish date from the current per-day
// velocity. Whole days, floored. Nil when there is nothing left or no
// velocity to extrapolate from.
func predictCompletionDate(remaining, velocity float64, today time.Time) *time.Time {
    if velocity <= 0 || remaining <= 0 { return nil }
    d := dateOnly(today).AddDate(0, 0, int(remaining/velocity))
    return &d
}

// isOnTrack compares actual completion against the time-elapsed proportion
// of the sprint, within a fixed tolerance band.
func isOnTrack(sprint domain.Sprint, completionPct float64, daysRemaining int) bool {
    totalDays := sprintDurationDays(sprint)
    if totalDays <= 0 { return false }
    daysElapsed := totalDays - daysRemaining
    expected := float64(daysElapsed) / float64(totalDays) * 100
    diff := completionPct - expected
    if diff < 0 { diff = -diff }
    return diff <= onTrackTolerance
}

// GenerateBurndown produces one point per calendar day from the sprint start
// through min(sprint end, today). Ideal remaining is a straight line to
// zero; actual remaining interpolates the current completed total across
// elapsed days, since no daily snapshots exist. The interpolation is a known
// approximation, not a faithful historical record.
func GenerateBurndown(sprint domain.Sprint, items []domain.BacklogItem, today time.Time) []domain.BurndownPoint {
    total, completed := sumPoints(items)
    duration := sprintDurationDays(sprint)
    if duration <= 0 { return []domain.BurndownPoint{} }

    end := dateOnly(sprint.EndDate)
    if t := dateOnly(today); t.Before(end) { end = t }

    elapsedToday := daysBetween(sprint.StartDate, today)

    pts := []domain.BurndownPoint{}
    for d := dateOnly(sprint.StartDate); !d.After(end); d = d.AddDate(0, 0, 1) {
        elapsed := daysBetween(sprint.StartDate, d)

        ideal := total - total*float64(elapsed)/float64(duration)
        if ideal < 0 { ideal = 0 }

        var completedByDate float64
        if d.Equal(dateOnly(today)) {
            completedByDate = completed
        } else if elapsedToday > 0 {
            ratio := float64(elapsed) / float64(elapsedToday)
            if ratio > 1 { ratio = 1 }
            completedByDate = float64(int(completed * ratio))
        }

        pts = append(pts, domain.BurndownPoint{
            Date:            d,
            IdealRemaining:  ideal,
            ActualRemaining: total - completedByDate,
            CompletedByDate: completedByDate,
        })
    }
    return pts
}

// VelocityRecordFor summarizes one completed sprint for the history series.
func VelocityRecordFor(sprint domain.Sprint, items []domain.BacklogItem) domain.VelocityRecord {
    planned, completed := sumPoints(items)
    duration := sprintDurationDays(sprint)
    velocity := 0.0
    if duration > 0 { velocity = completed / float64(duration) }
    return domain.VelocityRecord{
        SprintName:      sprint.Name,
        PlannedPoints:   planned,
        CompletedPoints: completed,
        SpilloverPoints: planned - completed,
        Velocity:        velocity,
        StartDate:       sprint.StartDate,
        EndDate:         sprint.EndDate,
    }
}

// VelocityTrend classifies a most-recent-first record list by comparing the
// newest velocity with the oldest in the window. Fewer than two records is
// stable by definition.
func VelocityTrend(records []domain.VelocityRecord) string {
    if len(records) < 2 { return TrendStable }
    newest := records[0].Velocity
    oldest := records[len(records)-1].Velocity
    switch {
    case newest > oldest:
        return TrendImproving
    case newest < oldest:
        return TrendDeclining
    default:
        return TrendStable
    }
}

// AverageVelocity over a record window; zero when empty.
func AverageVelocity(records []domain.VelocityRecord) float64 {
    if len(records) == 0 { return 0 }
    var sum float64
    for _, r := range records { sum += r.Velocity }
    return sum / float64(len(records))
}
