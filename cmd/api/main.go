/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
    "context"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/MuhammadMaazA/scrum-master-ai/internal/adapters/jira"
    "github.com/MuhammadMaazA/scrum-master-ai/internal/adapters/openai"
    "github.com/MuhammadMaazA/scrum-master-ai/internal/adapters/retriever"
    "github.com/MuhammadMaazA/scrum-master-ai/internal/adapters/slack"
    "github.com/MuhammadMaazA/scrum-master-ai/internal/config"
    apihttp "github.com/MuhammadMaazA/scrum-master-ai/internal/http"
    "github.com/MuhammadMaazA/scrum-master-ai/internal/jobs"
    "github.com/MuhammadMaazA/scrum-master-ai/internal/logger"
    "github.com/MuhammadMaazA/scrum-master-ai/internal/repo"
    "github.com/MuhammadMaazA/scrum-master-ai/internal/services"
)

func main() {
    cfg := config.Load()
    log := logger.New(cfg)
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    // DB
    db := repo.MustOpen(ctx, cfg, log)
    defer db.Close()

    // Adapters
    chat := slack.NewClient(cfg, log)
    tracker := jira.NewClient(cfg, log)
    llm := openai.NewClient(cfg, log)
    rt := retriever.NewClient(cfg, log)

    // Services
    repository := repo.NewRepository(db, log)
    agg := services.NewAggregator(cfg, log, chat, tracker)
    sum := services.NewSummarizer(cfg, log, llm, rt)
    svc := services.New(cfg, log, repository, chat, agg, sum)

    // HTTP server (Gin)
    router := apihttp.NewRouter(cfg, log, svc)

    // Cron
    cron := jobs.NewCron(cfg, log, svc, repository)
    cron.Start()
    defer cron.Stop()

    // graceful shutdown
    errCh := make(chan error, 1)
    go func() { errCh <- router.Run(cfg.HTTPAddr) }()

    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

    select {
    case <-sigCh:
        log.Info().Msg("shutting down...")
    case err := <-errCh:
        if err != nil { log.Error().Err(err).Msg("http server error") }
    }

    time.Sleep(500 * time.Millisecond)
}
