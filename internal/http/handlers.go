/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "context"
    "errors"
    "net/http"
    "strconv"

    "github.com/gin-gonic/gin"
    "github.com/MuhammadMaazA/scrum-master-ai/internal/config"
    "github.com/MuhammadMaazA/scrum-master-ai/internal/domain"
    "github.com/rs/zerolog"
)

type service interface {
    SprintMetrics(ctx context.Context, sprintID int64) (domain.SprintMetrics, error)
    BurndownChart(ctx context.Context, sprintID int64) (map[string]any, error)
    SprintReport(ctx context.Context, sprintID int64) (map[string]any, error)
    VelocityHistory(ctx context.Context, teamID int64, sprintCount int) ([]domain.VelocityRecord, string, error)
    GenerateStandupSummary(ctx context.Context, teamID int64, channelID string, includeTracker bool) (domain.StoredSummary, error)
    CreateStandupEntry(ctx context.Context, teamID int64, e domain.StandupEntry) (int64, error)
    ListSummaries(ctx context.Context, teamID int64, limit int) ([]domain.StoredSummary, error)
    SendStandupReminder(ctx context.Context, teamID int64, custom string) (string, error)
    AnalyzeBacklogItem(ctx context.Context, itemID int64) (domain.BacklogAnalysis, error)
    SuggestSprintPlan(ctx context.Context, teamID int64, capacityDays float64, goalContext string) (domain.SprintPlanSuggestion, error)
    RunDailyStandup(ctx context.Context) error
}

type Handlers struct {
    cfg config.Config
    log zerolog.Logger
    svc service
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc any) *Handlers {
    return &Handlers{cfg: cfg, log: log, svc: svc.(service)}
}

func (h *Handlers) Healthz(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{"ok": true})
}

// fail maps the domain error taxonomy to HTTP statuses.
func fail(c *gin.Context, err error) {
    switch {
    case errors.Is(err, domain.ErrNotFound):
        c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
    case errors.Is(err, domain.ErrInvalidInput):
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    default:
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
    }
}

func pathID(c *gin.Context) (int64, bool) {
    id, err := strconv.ParseInt(c.Param("id"), 10, 64)
    if err != nil || id <= 0 {
        c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
        return 0, false
    }
    return id, true
}

// ---- sprint analytics ----

func (h *Handlers) SprintMetrics(c *gin.Context) {
    id, ok := pathID(c)
    if !ok { return }
    m, err := h.svc.SprintMetrics(c.Request.Context(), id)
    if err != nil { fail(c, err); return }
    c.JSON(http.StatusOK, m)
}

func (h *Handlers) BurndownChart(c *gin.Context) {
    id, ok := pathID(c)
    if !ok { return }
    chart, err := h.svc.BurndownChart(c.Request.Context(), id)
    if err != nil { fail(c, err); return }
    c.JSON(http.StatusOK, chart)
}

func (h *Handlers) SprintReport(c *gin.Context) {
    id, ok := pathID(c)
    if !ok { return }
    report, err := h.svc.SprintReport(c.Request.Context(), id)
    if err != nil { fail(c, err); return }
    c.JSON(http.StatusOK, report)
}

func (h *Handlers) VelocityHistory(c *gin.Context) {
    id, ok := pathID(c)
    if !ok { return }
    count, _ := strconv.Atoi(c.DefaultQuery("sprints", "5"))
    records, trend, err := h.svc.VelocityHistory(c.Request.Context(), id, count)
    if err != nil { fail(c, err); return }
    if records == nil { records = []domain.VelocityRecord{} }
    c.JSON(http.StatusOK, gin.H{"records": records, "trend": trend})
}

// ---- standup pipeline ----

func (h *Handlers) CreateStandupEntry(c *gin.Context) {
    id, ok := pathID(c)
    if !ok { return }
    var e domain.StandupEntry
    if err := c.ShouldBindJSON(&e); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
        return
    }
    entryID, err := h.svc.CreateStandupEntry(c.Request.Context(), id, e)
    if err != nil { fail(c, err); return }
    c.JSON(http.StatusCreated, gin.H{"id": entryID})
}

func (h *Handlers) GenerateStandupSummary(c *gin.Context) {
    id, ok := pathID(c)
    if !ok { return }
    var req struct {
        ChannelID      string `json:"channel_id"`
        IncludeTracker *bool  `json:"include_tracker"`
    }
    _ = c.ShouldBindJSON(&req)
    includeTracker := true
    if req.IncludeTracker != nil { includeTracker = *req.IncludeTracker }
    stored, err := h.svc.GenerateStandupSummary(c.Request.Context(), id, req.ChannelID, includeTracker)
    if err != nil { fail(c, err); return }
    c.JSON(http.StatusOK, stored)
}

func (h *Handlers) ListSummaries(c *gin.Context) {
    id, ok := pathID(c)
    if !ok { return }
    limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
    summaries, err := h.svc.ListSummaries(c.Request.Context(), id, limit)
    if err != nil { fail(c, err); return }
    if summaries == nil { summaries = []domain.StoredSummary{} }
    c.JSON(http.StatusOK, gin.H{"summaries": summaries})
}

func (h *Handlers) SendStandupReminder(c *gin.Context) {
    id, ok := pathID(c)
    if !ok { return }
    var req struct {
        Message string `json:"message"`
    }
    _ = c.ShouldBindJSON(&req)
    ts, err := h.svc.SendStandupReminder(c.Request.Context(), id, req.Message)
    if err != nil { fail(c, err); return }
    c.JSON(http.StatusOK, gin.H{"status": "sent", "ts": ts})
}

// ---- AI assists ----

func (h *Handlers) AnalyzeBacklogItem(c *gin.Context) {
    id, ok := pathID(c)
    if !ok { return }
    analysis, err := h.svc.AnalyzeBacklogItem(c.Request.Context(), id)
    if err != nil { fail(c, err); return }
    c.JSON(http.StatusOK, analysis)
}

func (h *Handlers) SuggestSprintPlan(c *gin.Context) {
    id, ok := pathID(c)
    if !ok { return }
    var req struct {
        CapacityDays float64 `json:"capacity_days"`
        GoalContext  string  `json:"goal_context"`
    }
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
        return
    }
    plan, err := h.svc.SuggestSprintPlan(c.Request.Context(), id, req.CapacityDays, req.GoalContext)
    if err != nil { fail(c, err); return }
    c.JSON(http.StatusOK, plan)
}

// ---- admin ----

func (h *Handlers) RunNow(c *gin.Context) {
    // Run in background detached from the HTTP request to avoid context cancellation
    go func(){ _ = h.svc.RunDailyStandup(context.Background()) }()
    c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
