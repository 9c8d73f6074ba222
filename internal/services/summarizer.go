/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "encoding/json"
    "fmt"
    "strings"
    "time"

    "github.com/MuhammadMaazA/scrum-master-ai/internal/config"
    "github.com/MuhammadMaazA/scrum-master-ai/internal/domain"
    "github.com/rs/zerolog"
)

// Hard ceiling on one generation round trip when no timeout is configured.
const defaultGenerateTimeout = 30 * time.Second

// LLM is the text-generation backend.
type LLM interface {
    Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Retriever is the semantic context store consumed for retrieval-augmented
// prompts and written to after each generated summary.
type Retriever interface {
    Query(ctx context.Context, text string, limit int, typeFilter string) ([]string, error)
    Store(ctx context.Context, text, docType string) error
}

// Summarizer turns aggregated standup entries into a structured summary.
// It never returns an error: any upstream or parse failure degrades to a
// fixed fallback value so callers always get a well-formed result.
type Summarizer struct {
    cfg       config.Config
    log       zerolog.Logger
    llm       LLM
    retriever Retriever
}

func NewSummarizer(cfg config.Config, log zerolog.Logger, llm LLM, retriever Retriever) *Summarizer {
    return &Summarizer{cfg: cfg, log: log, llm: llm, retriever: retriever}
}

// FallbackStandupSummary is the deterministic result used whenever the
// generation backend is unavailable or its output cannot be parsed.
func FallbackStandupSummary() domain.StandupSummary {
    return domain.StandupSummary{
        Narrative:    "Failed to generate AI summary. Please review standup entries manually.",
        Achievements: []string{},
        FocusAreas:   []string{},
        Blockers:     []domain.Blocker{},
        ActionItems:  []domain.ActionItem{},
        Sentiment:    "neutral",
    }
}

func (s *Summarizer) Summarize(ctx context.Context, entries []domain.StandupEntry, team domain.TeamContext, updates []domain.TicketUpdate) domain.StandupSummary {
    if s.llm == nil {
        s.log.Warn().Msg("summarizer: no generation backend configured")
        return FallbackStandupSummary()
    }

    contextDocs := s.relatedContext(ctx, fmt.Sprintf("standup team %s blockers progress", team.Name), "standup")

    system := standupSystemPrompt(team)
    user := standupUserPrompt(entries, updates, contextDocs) + "\n\n" + formatInstructions(standupSchema)

    raw, ok := s.generate(ctx, system, user)
    if !ok { return FallbackStandupSummary() }

    sum, err := parseStandupSummary(raw)
    if err == nil { return sum }
    s.log.Warn().Err(err).Msg("summarizer: malformed output, attempting repair")

    raw, ok = s.repair(ctx, raw, standupSchema)
    if !ok { return FallbackStandupSummary() }
    sum, err = parseStandupSummary(raw)
    if err != nil {
        s.log.Error().Err(err).Msg("summarizer: repair failed, using fallback")
        return FallbackStandupSummary()
    }
    return sum
}

// AnalyzeBacklogItem scores a backlog item for clarity and risk. Same
// degradation contract as Summarize.
func (s *Summarizer) AnalyzeBacklogItem(ctx context.Context, item domain.BacklogItem, similar []domain.BacklogItem) domain.BacklogAnalysis {
    if s.llm == nil { return fallbackBacklogAnalysis() }

    contextDocs := s.relatedContext(ctx, fmt.Sprintf("user story %s %s", item.Title, item.Description), "backlog")

    user := backlogUserPrompt(item, similar, contextDocs) + "\n\n" + formatInstructions(backlogSchema)
    raw, ok := s.generate(ctx, backlogSystemPrompt, user)
    if !ok { return fallbackBacklogAnalysis() }

    an, err := parseBacklogAnalysis(raw)
    if err == nil { return an }
    raw, ok = s.repair(ctx, raw, backlogSchema)
    if !ok { return fallbackBacklogAnalysis() }
    an, err = parseBacklogAnalysis(raw)
    if err != nil { return fallbackBacklogAnalysis() }
    return an
}

// SuggestSprintPlan recommends backlog items for the next sprint given
// velocity and capacity. Non-positive capacity or an empty backlog is the
// caller's mistake and surfaces as ErrInvalidInput.
func (s *Summarizer) SuggestSprintPlan(ctx context.Context, items []domain.BacklogItem, velocity, capacityDays float64, goalContext string) (domain.SprintPlanSuggestion, error) {
    if capacityDays <= 0 {
        return domain.SprintPlanSuggestion{}, fmt.Errorf("%w: capacity must be positive", domain.ErrInvalidInput)
    }
    if len(items) == 0 {
        return domain.SprintPlanSuggestion{}, fmt.Errorf("%w: no backlog items to plan from", domain.ErrInvalidInput)
    }
    if s.llm == nil { return fallbackSprintPlan(), nil }

    contextDocs := s.relatedContext(ctx, fmt.Sprintf("sprint planning velocity %.1f capacity", velocity), "sprint")

    user := sprintPlanUserPrompt(items, velocity, capacityDays, goalContext, contextDocs) + "\n\n" + formatInstructions(sprintPlanSchema)
    raw, ok := s.generate(ctx, sprintPlanSystemPrompt, user)
    if !ok { return fallbackSprintPlan(), nil }

    plan, err := parseSprintPlan(raw)
    if err == nil { return plan, nil }
    raw, ok = s.repair(ctx, raw, sprintPlanSchema)
    if !ok { return fallbackSprintPlan(), nil }
    plan, err = parseSprintPlan(raw)
    if err != nil { return fallbackSprintPlan(), nil }
    return plan, nil
}

// IndexSummary pushes a generated summary into the retrieval store so future
// prompts can reference it. Best effort.
func (s *Summarizer) IndexSummary(ctx context.Context, team domain.TeamContext, sum domain.StandupSummary) {
    if s.retriever == nil { return }
    text := fmt.Sprintf("Standup summary for %s: %s", team.Name, sum.Narrative)
    if err := s.retriever.Store(ctx, text, "standup"); err != nil {
        s.log.Error().Err(err).Msg("summarizer: context store failed")
    }
}

// generate runs one bounded backend call. Network/API failure goes straight
// to the fallback path, no retry, to bound latency.
func (s *Summarizer) generate(ctx context.Context, system, user string) (string, bool) {
    timeout := s.cfg.OpenAITimeout
    if timeout <= 0 { timeout = defaultGenerateTimeout }
    ctx, cancel := context.WithTimeout(ctx, timeout)
    defer cancel()
    raw, err := s.llm.Generate(ctx, system, user)
    if err != nil {
        s.log.Error().Err(err).Msg("summarizer: generation backend failed")
        return "", false
    }
    return raw, true
}

// repair is the single schema-repair round: re-prompt the backend with its
// own output and the target schema.
func (s *Summarizer) repair(ctx context.Context, raw, schema string) (string, bool) {
    system := "You fix malformed JSON. Return only a corrected JSON object matching the required schema, nothing else."
    user := fmt.Sprintf("The following output does not conform to the required schema.\n\nOutput:\n%s\n\nRequired schema:\n%s\n\nReturn the corrected JSON object only.", raw, schema)
    return s.generate(ctx, system, user)
}

func (s *Summarizer) relatedContext(ctx context.Context, query, typeFilter string) []string {
    if s.retriever == nil { return nil }
    limit := s.cfg.RetrieverTopK
    if limit <= 0 { limit = 3 }
    docs, err := s.retriever.Query(ctx, query, limit, typeFilter)
    if err != nil {
        s.log.Error().Err(err).Msg("summarizer: context retrieval failed")
        return nil
    }
    return docs
}

// ---- prompts ----

func standupSystemPrompt(team domain.TeamContext) string {
    tone := team.Tone
    if tone == "" { tone = "professional" }
    name := team.Name
    if name == "" { name = "the team" }
    return fmt.Sprintf(`You are an AI Scrum Master assistant helping %s.
Your role is to create concise, actionable daily standup summaries.

Guidelines:
- Use a %s tone
- Focus on progress, blockers, and next steps
- Identify potential risks or dependencies
- Suggest concrete action items where helpful
- Maintain team anonymity unless specifically needed
- Be objective and supportive

The summary will be shared with the team and stakeholders, so ensure it's clear and actionable.`, name, tone)
}

func standupUserPrompt(entries []domain.StandupEntry, updates []domain.TicketUpdate, contextDocs []string) string {
    b := &strings.Builder{}
    if len(contextDocs) > 0 {
        b.WriteString("Relevant context from previous standups:\n")
        for _, c := range contextDocs { fmt.Fprintf(b, "- %s\n", c) }
        b.WriteString("\n")
    }
    b.WriteString("Today's standup entries:\n")
    for _, e := range entries {
        author := e.Author
        if author == "" { author = "Team member" }
        fmt.Fprintf(b, "\n%s:\n", author)
        if e.Yesterday != "" { fmt.Fprintf(b, "Yesterday: %s\n", e.Yesterday) }
        if e.Today != "" { fmt.Fprintf(b, "Today: %s\n", e.Today) }
        if e.Blockers != "" { fmt.Fprintf(b, "Blockers: %s\n", e.Blockers) }
        if e.Notes != "" { fmt.Fprintf(b, "Notes: %s\n", e.Notes) }
    }
    if len(updates) > 0 {
        b.WriteString("\nTicket updates from yesterday:\n")
        for _, u := range updates { fmt.Fprintf(b, "- %s: %s (%s)\n", u.Key, u.Summary, u.Status) }
    }
    b.WriteString("\nGenerate a comprehensive standup summary following the specified format.")
    return b.String()
}

const backlogSystemPrompt = `You are an expert agile coach analyzing user stories and backlog items.
Your role is to assess clarity, identify improvements, and estimate complexity.

Guidelines:
- Evaluate description clarity and completeness
- Suggest specific improvements for unclear items
- Estimate complexity based on scope and technical requirements
- Identify potential risks or dependencies
- Suggest concrete acceptance criteria
- Use standard estimation scale: XS, S, M, L, XL

Be constructive and specific in your feedback.`

func backlogUserPrompt(item domain.BacklogItem, similar []domain.BacklogItem, contextDocs []string) string {
    b := &strings.Builder{}
    if len(contextDocs) > 0 {
        b.WriteString("Relevant context from similar items:\n")
        for _, c := range contextDocs { fmt.Fprintf(b, "- %s\n", c) }
        b.WriteString("\n")
    }
    b.WriteString("Backlog item to analyze:\n")
    fmt.Fprintf(b, "Title: %s\n", item.Title)
    fmt.Fprintf(b, "Description: %s\n", item.Description)
    if item.StoryPoints != nil { fmt.Fprintf(b, "Current Story Points: %g\n", *item.StoryPoints) }
    if len(similar) > 0 {
        b.WriteString("\nSimilar items for reference:\n")
        limit := similar
        if len(limit) > 3 { limit = limit[:3] }
        for _, sim := range limit {
            pts := "no estimate"
            if sim.StoryPoints != nil { pts = fmt.Sprintf("%g points", *sim.StoryPoints) }
            fmt.Fprintf(b, "- %s: %s\n", sim.Title, pts)
        }
    }
    b.WriteString("\nAnalyze this item following the specified format.")
    return b.String()
}

const sprintPlanSystemPrompt = `You are an expert Scrum Master helping with sprint planning.
Your role is to recommend optimal backlog items for the sprint based on capacity and priorities.

Guidelines:
- Consider team velocity and capacity constraints
- Prioritize high-value, well-defined items
- Ensure sprint goal coherence
- Identify risks and dependencies
- Aim for 80-90% capacity utilization for sustainable pace
- Consider item complexity and team skills

Provide realistic recommendations that promote team success.`

func sprintPlanUserPrompt(items []domain.BacklogItem, velocity, capacityDays float64, goalContext string, contextDocs []string) string {
    b := &strings.Builder{}
    if len(contextDocs) > 0 {
        b.WriteString("Context from previous sprints:\n")
        for _, c := range contextDocs { fmt.Fprintf(b, "- %s\n", c) }
        b.WriteString("\n")
    }
    b.WriteString("Team capacity information:\n")
    fmt.Fprintf(b, "- Average velocity: %.1f story points\n", velocity)
    fmt.Fprintf(b, "- Available capacity: %.1f person-days\n", capacityDays)
    if goalContext != "" { fmt.Fprintf(b, "- Sprint goal context: %s\n", goalContext) }
    b.WriteString("\nAvailable backlog items (ordered by priority):\n")
    for i, it := range items {
        pts := "no estimate"
        if it.StoryPoints != nil { pts = fmt.Sprintf("%g points", *it.StoryPoints) }
        pri := it.Priority
        if pri == "" { pri = "medium" }
        fmt.Fprintf(b, "%d. [%d] %s (%s, %s priority)\n", i+1, it.ID, it.Title, pts, pri)
        if it.Description != "" {
            desc := it.Description
            if len(desc) > 100 { desc = desc[:100] + "..." }
            fmt.Fprintf(b, "   Description: %s\n", desc)
        }
    }
    b.WriteString("\nRecommend items for the sprint following the specified format.")
    return b.String()
}

// ---- structured output schemas ----

const (
    standupSchema = `{"summary": string, "key_achievements": [string], "today_focus": [string], "blockers": [{"description": string, "owner": string}], "action_items": [{"action": string, "assignee": string}], "team_sentiment": "positive"|"neutral"|"concerned"}`

    backlogSchema = `{"clarity_score": number 0.0-1.0, "suggested_improvements": [string], "estimated_complexity": "XS"|"S"|"M"|"L"|"XL", "potential_risks": [string], "acceptance_criteria_suggestions": [string]}`

    sprintPlanSchema = `{"recommended_items": [integer], "total_story_points": number, "sprint_goal": string, "risks": [string], "capacity_utilization": number 0-100}`
)

func formatInstructions(schema string) string {
    return "Respond with a single JSON object, no markdown, matching exactly this schema:\n" + schema
}

// ---- parse boundary ----

// extractJSON tolerates model output wrapped in code fences or prose by
// slicing from the first '{' to the last '}'.
func extractJSON(raw string) (string, error) {
    s := strings.TrimSpace(raw)
    start := strings.Index(s, "{")
    end := strings.LastIndex(s, "}")
    if start == -1 || end == -1 || end < start {
        return "", fmt.Errorf("no JSON object in output")
    }
    return s[start : end+1], nil
}

func parseStandupSummary(raw string) (domain.StandupSummary, error) {
    js, err := extractJSON(raw)
    if err != nil { return domain.StandupSummary{}, err }
    var sum domain.StandupSummary
    if err := json.Unmarshal([]byte(js), &sum); err != nil {
        return domain.StandupSummary{}, fmt.Errorf("unmarshal summary: %w", err)
    }
    if strings.TrimSpace(sum.Narrative) == "" {
        return domain.StandupSummary{}, fmt.Errorf("summary field missing or empty")
    }
    if sum.Achievements == nil { sum.Achievements = []string{} }
    if sum.FocusAreas == nil { sum.FocusAreas = []string{} }
    if sum.Blockers == nil { sum.Blockers = []domain.Blocker{} }
    if sum.ActionItems == nil { sum.ActionItems = []domain.ActionItem{} }
    switch sum.Sentiment {
    case "positive", "neutral", "concerned":
    default:
        sum.Sentiment = "neutral"
    }
    return sum, nil
}

func parseBacklogAnalysis(raw string) (domain.BacklogAnalysis, error) {
    js, err := extractJSON(raw)
    if err != nil { return domain.BacklogAnalysis{}, err }
    var an domain.BacklogAnalysis
    if err := json.Unmarshal([]byte(js), &an); err != nil {
        return domain.BacklogAnalysis{}, fmt.Errorf("unmarshal analysis: %w", err)
    }
    if an.ClarityScore < 0 { an.ClarityScore = 0 }
    if an.ClarityScore > 1 { an.ClarityScore = 1 }
    switch an.EstimatedComplexity {
    case "XS", "S", "M", "L", "XL":
    default:
        an.EstimatedComplexity = "M"
    }
    if an.Improvements == nil { an.Improvements = []string{} }
    if an.PotentialRisks == nil { an.PotentialRisks = []string{} }
    if an.AcceptanceCriteria == nil { an.AcceptanceCriteria = []string{} }
    return an, nil
}

func parseSprintPlan(raw string) (domain.SprintPlanSuggestion, error) {
    js, err := extractJSON(raw)
    if err != nil { return domain.SprintPlanSuggestion{}, err }
    var plan domain.SprintPlanSuggestion
    if err := json.Unmarshal([]byte(js), &plan); err != nil {
        return domain.SprintPlanSuggestion{}, fmt.Errorf("unmarshal plan: %w", err)
    }
    if plan.RecommendedItems == nil { plan.RecommendedItems = []int64{} }
    if plan.Risks == nil { plan.Risks = []string{} }
    return plan, nil
}

// ---- fallbacks ----

func fallbackBacklogAnalysis() domain.BacklogAnalysis {
    return domain.BacklogAnalysis{
        ClarityScore:        0.5,
        Improvements:        []string{"Unable to analyze - please review manually"},
        EstimatedComplexity: "M",
        PotentialRisks:      []string{"Analysis failed"},
        AcceptanceCriteria:  []string{},
    }
}

func fallbackSprintPlan() domain.SprintPlanSuggestion {
    return domain.SprintPlanSuggestion{
        RecommendedItems:    []int64{},
        TotalStoryPoints:    0,
        SprintGoal:          "Unable to generate sprint goal",
        Risks:               []string{"Planning analysis failed"},
        CapacityUtilization: 0,
    }
}
