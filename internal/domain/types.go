package domain

import (
    "errors"
    "time"
)

// Caller-visible failures. Everything else (upstream outages, malformed
// model output) is absorbed into fallback values by the services layer.
var (
    ErrNotFound     = errors.New("not found")
    ErrInvalidInput = errors.New("invalid input")
)

// Sprint statuses as stored.
const (
    SprintPlanned   = "planned"
    SprintActive    = "active"
    SprintCompleted = "completed"
    SprintCancelled = "cancelled"
)

// Standup entry sources, in aggregation priority order.
const (
    SourceChat    = "chat"
    SourceTracker = "tracker"
    SourceManual  = "manual"
    SourceSample  = "sample"
)

type Sprint struct {
    ID        int64     `json:"id"`
    Name      string    `json:"name"`
    TeamID    int64     `json:"team_id"`
    StartDate time.Time `json:"start_date"`
    EndDate   time.Time `json:"end_date"`
    Status    string    `json:"status"`
}

type BacklogItem struct {
    ID          int64    `json:"id"`
    Title       string   `json:"title"`
    Description string   `json:"description,omitempty"`
    StoryPoints *float64 `json:"story_points"`
    Status      string   `json:"status"`
    Priority    string   `json:"priority,omitempty"`
    SprintID    *int64   `json:"sprint_id"`
}

type StandupEntry struct {
    Author    string `json:"author"`
    Yesterday string `json:"yesterday_work"`
    Today     string `json:"today_plan"`
    Blockers  string `json:"blockers"`
    Notes     string `json:"additional_notes,omitempty"`
    Source    string `json:"source"`
}

type Blocker struct {
    Description string `json:"description"`
    Owner       string `json:"owner,omitempty"`
}

type ActionItem struct {
    Action   string `json:"action"`
    Assignee string `json:"assignee,omitempty"`
}

// StandupSummary is the structured output of the summarization engine.
// List fields are always non-nil, possibly empty.
type StandupSummary struct {
    Narrative    string       `json:"summary"`
    Achievements []string     `json:"key_achievements"`
    FocusAreas   []string     `json:"today_focus"`
    Blockers     []Blocker    `json:"blockers"`
    ActionItems  []ActionItem `json:"action_items"`
    Sentiment    string       `json:"team_sentiment"`
}

type BurndownPoint struct {
    Date            time.Time `json:"date"`
    IdealRemaining  float64   `json:"ideal_remaining"`
    ActualRemaining float64   `json:"actual_remaining"`
    CompletedByDate float64   `json:"completed_by_date"`
}

type SprintMetrics struct {
    SprintID        int64           `json:"sprint_id"`
    SprintName      string          `json:"sprint_name"`
    TotalPoints     float64         `json:"total_points"`
    CompletedPoints float64         `json:"completed_points"`
    RemainingPoints float64         `json:"remaining_points"`
    Velocity        float64         `json:"velocity"` // points per day
    CompletionPct   float64         `json:"completion_percentage"`
    DaysRemaining   int             `json:"days_remaining"`
    PredictedDone   *time.Time      `json:"predicted_completion_date"`
    OnTrack         bool            `json:"is_on_track"`
    Burndown        []BurndownPoint `json:"burndown"`
}

type VelocityRecord struct {
    SprintName      string    `json:"sprint_name"`
    PlannedPoints   float64   `json:"planned_points"`
    CompletedPoints float64   `json:"completed_points"`
    SpilloverPoints float64   `json:"spillover_points"`
    Velocity        float64   `json:"velocity"`
    StartDate       time.Time `json:"start_date"`
    EndDate         time.Time `json:"end_date"`
}

// TeamContext carries per-team configuration into the summarizer prompt.
type TeamContext struct {
    ID             int64  `json:"id"`
    Name           string `json:"name"`
    Tone           string `json:"ai_tone"` // professional, casual, formal
    SlackChannelID string `json:"slack_channel_id,omitempty"`
    JiraProjectKey string `json:"jira_project_key,omitempty"`
}

// TicketUpdate is a recently-updated ticket from the tracker gateway.
type TicketUpdate struct {
    Key     string `json:"key"`
    Summary string `json:"summary"`
    Status  string `json:"status"`
}

// ChatMessage is a raw message from the messaging gateway.
type ChatMessage struct {
    Author    string    `json:"author"`
    Text      string    `json:"text"`
    Timestamp time.Time `json:"timestamp"`
}

type BacklogAnalysis struct {
    ClarityScore        float64  `json:"clarity_score"`
    Improvements        []string `json:"suggested_improvements"`
    EstimatedComplexity string   `json:"estimated_complexity"` // XS, S, M, L, XL
    PotentialRisks      []string `json:"potential_risks"`
    AcceptanceCriteria  []string `json:"acceptance_criteria_suggestions"`
}

type SprintPlanSuggestion struct {
    RecommendedItems    []int64  `json:"recommended_items"`
    TotalStoryPoints    float64  `json:"total_story_points"`
    SprintGoal          string   `json:"sprint_goal"`
    Risks               []string `json:"risks"`
    CapacityUtilization float64  `json:"capacity_utilization"`
}

// StoredSummary is a persisted standup summary row.
type StoredSummary struct {
    ID            int64          `json:"id"`
    TeamID        int64          `json:"team_id"`
    Summary       StandupSummary `json:"summary"`
    Participants  int            `json:"participants_count"`
    PostedToSlack bool           `json:"posted_to_slack"`
    CreatedAt     time.Time      `json:"created_at"`
}
