/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "fmt"
    "strings"
    "time"

    "github.com/MuhammadMaazA/scrum-master-ai/internal/config"
    "github.com/MuhammadMaazA/scrum-master-ai/internal/domain"
    "github.com/MuhammadMaazA/scrum-master-ai/internal/repo"
    "github.com/rs/zerolog"
)

// Service wires the analytics computations and the standup pipeline to the
// persistence layer and the outbound gateways.
type Service struct {
    cfg  config.Config
    log  zerolog.Logger
    repo *repo.Repository
    chat Messenger
    agg  *Aggregator
    sum  *Summarizer
}

func New(cfg config.Config, log zerolog.Logger, r *repo.Repository, chat Messenger, agg *Aggregator, sum *Summarizer) *Service {
    return &Service{cfg: cfg, log: log, repo: r, chat: chat, agg: agg, sum: sum}
}

// ---- sprint analytics ----

func (s *Service) SprintMetrics(ctx context.Context, sprintID int64) (domain.SprintMetrics, error) {
    sprint, err := s.repo.GetSprint(ctx, sprintID)
    if err != nil { return domain.SprintMetrics{}, err }
    items, err := s.repo.ListSprintItems(ctx, sprintID)
    if err != nil { return domain.SprintMetrics{}, err }
    return ComputeSprintMetrics(sprint, items, time.Now()), nil
}

// BurndownChart returns the chart-ready payload the frontend plots: ISO date
// labels plus ideal and actual series.
func (s *Service) BurndownChart(ctx context.Context, sprintID int64) (map[string]any, error) {
    m, err := s.SprintMetrics(ctx, sprintID)
    if err != nil { return nil, err }

    labels := make([]string, 0, len(m.Burndown))
    actual := make([]float64, 0, len(m.Burndown))
    ideal := make([]float64, 0, len(m.Burndown))
    for _, p := range m.Burndown {
        labels = append(labels, p.Date.Format("2006-01-02"))
        actual = append(actual, p.ActualRemaining)
        ideal = append(ideal, p.IdealRemaining)
    }

    var predicted any
    if m.PredictedDone != nil { predicted = m.PredictedDone.Format("2006-01-02") }

    return map[string]any{
        "sprint_name": m.SprintName,
        "labels":      labels,
        "datasets": []map[string]any{
            {"label": "Remaining Work", "data": actual},
            {"label": "Ideal Burndown", "data": ideal},
        },
        "metrics": map[string]any{
            "total_points":          m.TotalPoints,
            "completed_points":      m.CompletedPoints,
            "completion_percentage": m.CompletionPct,
            "days_remaining":        m.DaysRemaining,
            "is_on_track":           m.OnTrack,
            "predicted_completion":  predicted,
        },
    }, nil
}

// VelocityHistory aggregates the team's most recent completed sprints into a
// most-recent-first record series plus a trend classification.
func (s *Service) VelocityHistory(ctx context.Context, teamID int64, sprintCount int) ([]domain.VelocityRecord, string, error) {
    if sprintCount <= 0 { sprintCount = 5 }
    sprints, err := s.repo.ListCompletedSprints(ctx, teamID, sprintCount)
    if err != nil { return nil, "", err }

    records := make([]domain.VelocityRecord, 0, len(sprints))
    for _, sp := range sprints {
        items, err := s.repo.ListSprintItems(ctx, sp.ID)
        if err != nil {
            s.log.Error().Err(err).Int64("sprint", sp.ID).Msg("velocity: item load failed")
            continue
        }
        records = append(records, VelocityRecordFor(sp, items))
    }
    return records, VelocityTrend(records), nil
}

// SprintReport composes metrics, trailing velocity and heuristic insight
// lines into one report payload.
func (s *Service) SprintReport(ctx context.Context, sprintID int64) (map[string]any, error) {
    sprint, err := s.repo.GetSprint(ctx, sprintID)
    if err != nil { return nil, err }
    items, err := s.repo.ListSprintItems(ctx, sprintID)
    if err != nil { return nil, err }
    m := ComputeSprintMetrics(sprint, items, time.Now())

    history, _, err := s.VelocityHistory(ctx, sprint.TeamID, 3)
    if err != nil {
        s.log.Error().Err(err).Int64("team", sprint.TeamID).Msg("report: velocity history failed")
        history = nil
    }

    status := "Completed"
    if m.DaysRemaining > 0 { status = "In Progress" }
    var predicted any
    if m.PredictedDone != nil { predicted = m.PredictedDone.Format("2006-01-02") }

    return map[string]any{
        "sprint_overview": map[string]any{
            "name":     sprint.Name,
            "duration": fmt.Sprintf("%s to %s", sprint.StartDate.Format("2006-01-02"), sprint.EndDate.Format("2006-01-02")),
            "status":   status,
        },
        "story_points": map[string]any{
            "planned":         m.TotalPoints,
            "completed":       m.CompletedPoints,
            "remaining":       m.RemainingPoints,
            "completion_rate": fmt.Sprintf("%.1f%%", m.CompletionPct),
        },
        "velocity": map[string]any{
            "current_sprint":         m.Velocity,
            "average_last_3_sprints": AverageVelocity(history),
        },
        "timeline": map[string]any{
            "days_remaining":       m.DaysRemaining,
            "on_track":             m.OnTrack,
            "predicted_completion": predicted,
        },
        "insights": sprintInsights(m, history),
    }, nil
}

// sprintInsights derives short observations from the metric thresholds.
func sprintInsights(m domain.SprintMetrics, history []domain.VelocityRecord) []string {
    insights := []string{}
    if m.CompletionPct > 80 {
        insights = append(insights, "Sprint is performing well with high completion rate")
    } else if m.CompletionPct < 50 {
        insights = append(insights, "Sprint completion rate is below expectations")
    }
    if !m.OnTrack && m.DaysRemaining > 0 {
        insights = append(insights, "Sprint may miss deadline based on current progress")
    } else if m.OnTrack {
        insights = append(insights, "Sprint is on track to meet its goals")
    }
    if len(history) >= 2 {
        avg := AverageVelocity(history)
        if m.Velocity > avg*1.2 {
            insights = append(insights, "Team velocity is above historical average")
        } else if m.Velocity < avg*0.8 {
            insights = append(insights, "Team velocity is below historical average")
        }
    }
    if m.DaysRemaining > 0 {
        dailyRequired := m.RemainingPoints / float64(m.DaysRemaining)
        if dailyRequired > m.Velocity*1.5 {
            insights = append(insights, "Remaining work requires increased daily velocity")
        }
    }
    return insights
}

// ---- standup pipeline ----

// GenerateStandupSummary runs the full pipeline for one team: aggregate from
// all sources, summarize, persist, then post and index in the background.
func (s *Service) GenerateStandupSummary(ctx context.Context, teamID int64, channelID string, includeTracker bool) (domain.StoredSummary, error) {
    team, err := s.repo.GetTeam(ctx, teamID)
    if err != nil { return domain.StoredSummary{}, err }

    if channelID == "" { channelID = team.SlackChannelID }
    if channelID == "" { channelID = s.cfg.SlackChannelID }
    projectKey := ""
    if includeTracker {
        projectKey = team.JiraProjectKey
        if projectKey == "" { projectKey = s.cfg.JiraProjectKey }
    }

    manual, err := s.repo.ListRecentEntries(ctx, teamID, s.cfg.LookbackHours)
    if err != nil {
        s.log.Error().Err(err).Int64("team", teamID).Msg("standup: stored entry load failed")
        manual = nil
    }

    entries, updates := s.agg.Collect(ctx, channelID, projectKey, s.cfg.LookbackHours, manual)
    summary := s.sum.Summarize(ctx, entries, team, updates)

    stored := domain.StoredSummary{
        TeamID:       teamID,
        Summary:      summary,
        Participants: len(entries),
        CreatedAt:    time.Now(),
    }
    stored.ID, err = s.repo.InsertSummary(ctx, stored)
    if err != nil { s.log.Error().Err(err).Int64("team", teamID).Msg("standup: summary persist failed") }

    // Deliver and index off the request path.
    if channelID != "" && s.chat != nil {
        go func(id int64) {
            ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
            defer cancel()
            if _, err := s.chat.PostMessage(ctx, channelID, formatSummaryMessage(team, summary)); err != nil {
                s.log.Error().Err(err).Str("channel", channelID).Msg("standup: slack post failed")
                return
            }
            if id != 0 { _ = s.repo.MarkSummaryPosted(context.Background(), id) }
        }(stored.ID)
        stored.PostedToSlack = true
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
        defer cancel()
        s.sum.IndexSummary(ctx, team, summary)
    }()

    return stored, nil
}

// CreateStandupEntry stores a manual entry. At least one content field must
// be present.
func (s *Service) CreateStandupEntry(ctx context.Context, teamID int64, e domain.StandupEntry) (int64, error) {
    if strings.TrimSpace(e.Yesterday) == "" && strings.TrimSpace(e.Today) == "" &&
        strings.TrimSpace(e.Blockers) == "" && strings.TrimSpace(e.Notes) == "" {
        return 0, fmt.Errorf("%w: at least one standup field must be provided", domain.ErrInvalidInput)
    }
    if _, err := s.repo.GetTeam(ctx, teamID); err != nil { return 0, err }
    e.Source = domain.SourceManual
    return s.repo.InsertEntry(ctx, teamID, e)
}

func (s *Service) ListSummaries(ctx context.Context, teamID int64, limit int) ([]domain.StoredSummary, error) {
    if limit <= 0 { limit = 10 }
    if _, err := s.repo.GetTeam(ctx, teamID); err != nil { return nil, err }
    return s.repo.ListSummaries(ctx, teamID, limit)
}

// SendStandupReminder posts the standup prompt to the team channel.
func (s *Service) SendStandupReminder(ctx context.Context, teamID int64, custom string) (string, error) {
    team, err := s.repo.GetTeam(ctx, teamID)
    if err != nil { return "", err }
    channelID := team.SlackChannelID
    if channelID == "" { channelID = s.cfg.SlackChannelID }
    if channelID == "" || s.chat == nil {
        return "", fmt.Errorf("%w: no channel configured for team %d", domain.ErrInvalidInput, teamID)
    }
    msg := custom
    if msg == "" {
        msg = "Good morning team! Time for our daily standup. Please share:\n• What you completed yesterday\n• What you're planning today\n• Any blockers or help needed"
    }
    return s.chat.PostMessage(ctx, channelID, msg)
}

// ---- AI assists ----

func (s *Service) AnalyzeBacklogItem(ctx context.Context, itemID int64) (domain.BacklogAnalysis, error) {
    item, err := s.repo.GetBacklogItem(ctx, itemID)
    if err != nil { return domain.BacklogAnalysis{}, err }
    var similar []domain.BacklogItem
    if item.SprintID != nil {
        if peers, err := s.repo.ListSprintItems(ctx, *item.SprintID); err == nil {
            for _, p := range peers {
                if p.ID != item.ID { similar = append(similar, p) }
            }
        }
    }
    return s.sum.AnalyzeBacklogItem(ctx, item, similar), nil
}

func (s *Service) SuggestSprintPlan(ctx context.Context, teamID int64, capacityDays float64, goalContext string) (domain.SprintPlanSuggestion, error) {
    if _, err := s.repo.GetTeam(ctx, teamID); err != nil {
        return domain.SprintPlanSuggestion{}, err
    }
    history, _, err := s.VelocityHistory(ctx, teamID, 3)
    if err != nil { return domain.SprintPlanSuggestion{}, err }
    items, err := s.repo.ListBacklogCandidates(ctx, teamID, 30)
    if err != nil { return domain.SprintPlanSuggestion{}, err }
    return s.sum.SuggestSprintPlan(ctx, items, AverageVelocity(history), capacityDays, goalContext)
}

// ---- scheduled run ----

// RunDailyStandup generates and delivers a summary for every team. Invoked
// by the cron job; per-team failures are logged and do not stop the run.
func (s *Service) RunDailyStandup(ctx context.Context) error {
    teams, err := s.repo.ListTeams(ctx)
    if err != nil { return err }
    s.log.Info().Int("teams", len(teams)).Msg("DailyStandup: start")
    for _, t := range teams {
        if _, err := s.GenerateStandupSummary(ctx, t.ID, t.SlackChannelID, true); err != nil {
            s.log.Error().Err(err).Int64("team", t.ID).Msg("DailyStandup: team failed")
        }
    }
    s.log.Info().Msg("DailyStandup: done")
    return nil
}

// formatSummaryMessage renders the structured summary for the channel post.
func formatSummaryMessage(team domain.TeamContext, sum domain.StandupSummary) string {
    b := &strings.Builder{}
    fmt.Fprintf(b, "*Daily Standup Summary: %s*\n\n", team.Name)
    fmt.Fprintf(b, "%s\n", sum.Narrative)
    if len(sum.Achievements) > 0 {
        b.WriteString("\n*Key achievements:*\n")
        for _, a := range sum.Achievements { fmt.Fprintf(b, "• %s\n", a) }
    }
    if len(sum.FocusAreas) > 0 {
        b.WriteString("\n*Today's focus:*\n")
        for _, f := range sum.FocusAreas { fmt.Fprintf(b, "• %s\n", f) }
    }
    if len(sum.Blockers) > 0 {
        b.WriteString("\n*Blockers:*\n")
        for _, bl := range sum.Blockers {
            if bl.Owner != "" {
                fmt.Fprintf(b, "• %s (%s)\n", bl.Description, bl.Owner)
            } else {
                fmt.Fprintf(b, "• %s\n", bl.Description)
            }
        }
    }
    if len(sum.ActionItems) > 0 {
        b.WriteString("\n*Action items:*\n")
        for _, ai := range sum.ActionItems {
            if ai.Assignee != "" {
                fmt.Fprintf(b, "• %s (%s)\n", ai.Action, ai.Assignee)
            } else {
                fmt.Fprintf(b, "• %s\n", ai.Action)
            }
        }
    }
    return b.String()
}
