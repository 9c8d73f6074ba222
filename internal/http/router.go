/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "github.com/gin-gonic/gin"
    "github.com/MuhammadMaazA/scrum-master-ai/internal/config"
    "github.com/rs/zerolog"
)

func NewRouter(cfg config.Config, log zerolog.Logger, svc any) *gin.Engine {
    if cfg.AppEnv != "dev" { gin.SetMode(gin.ReleaseMode) }
    r := gin.New()
    r.Use(gin.Recovery())
    r.Use(func(c *gin.Context){
        c.Next()
        log.Info().Str("m", c.Request.Method).Str("p", c.FullPath()).Int("s", c.Writer.Status()).Msg("http")
    })

    h := NewHandlers(cfg, log, svc)

    r.GET("/healthz", h.Healthz)

    v1 := r.Group("/api/v1")
    {
        v1.GET("/sprints/:id/metrics", h.SprintMetrics)
        v1.GET("/sprints/:id/burndown", h.BurndownChart)
        v1.GET("/sprints/:id/report", h.SprintReport)
        v1.GET("/teams/:id/velocity", h.VelocityHistory)

        v1.POST("/teams/:id/standup/entries", h.CreateStandupEntry)
        v1.POST("/teams/:id/standup/generate", h.GenerateStandupSummary)
        v1.GET("/teams/:id/standup/summaries", h.ListSummaries)
        v1.POST("/teams/:id/standup/reminder", h.SendStandupReminder)

        v1.POST("/backlog/:id/analyze", h.AnalyzeBacklogItem)
        v1.POST("/teams/:id/sprint-plan", h.SuggestSprintPlan)
    }

    r.POST("/admin/run", h.RunNow)

    return r
}
