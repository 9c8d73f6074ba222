package repo

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    "github.com/MuhammadMaazA/scrum-master-ai/internal/config"
    "github.com/MuhammadMaazA/scrum-master-ai/internal/domain"
    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/rs/zerolog"
)

type DB struct {
    Pool *pgxpool.Pool
    log  zerolog.Logger
}

func MustOpen(ctx context.Context, cfg config.Config, log zerolog.Logger) *DB {
    pool, err := pgxpool.New(ctx, cfg.DBDSN)
    if err != nil { log.Fatal().Err(err).Msg("db connect failed") }
    ctx2, cancel := context.WithTimeout(ctx, 10*time.Second); defer cancel()
    if err := pool.Ping(ctx2); err != nil { log.Fatal().Err(err).Msg("db ping failed") }
    return &DB{Pool: pool, log: log}
}

func (d *DB) Close() { d.Pool.Close() }

type Repository struct {
    db  *DB
    log zerolog.Logger
}

func NewRepository(d *DB, log zerolog.Logger) *Repository { return &Repository{db: d, log: log} }

func (r *Repository) TryAdvisoryLock(ctx context.Context, key int64) (bool, error) {
    var ok bool
    err := r.db.Pool.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok)
    return ok, err
}

func (r *Repository) AdvisoryUnlock(ctx context.Context, key int64) error {
    var ok bool
    err := r.db.Pool.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", key).Scan(&ok)
    if !ok && err == nil { return errors.New("advisory unlock returned false") }
    return err
}

// ---- teams ----

func (r *Repository) GetTeam(ctx context.Context, id int64) (domain.TeamContext, error) {
    const q = `SELECT id, name, COALESCE(tone,''), COALESCE(slack_channel_id,''), COALESCE(jira_project_key,'')
        FROM teams WHERE id=$1`
    var t domain.TeamContext
    err := r.db.Pool.QueryRow(ctx, q, id).Scan(&t.ID, &t.Name, &t.Tone, &t.SlackChannelID, &t.JiraProjectKey)
    if errors.Is(err, pgx.ErrNoRows) { return t, fmt.Errorf("team %d: %w", id, domain.ErrNotFound) }
    return t, err
}

func (r *Repository) ListTeams(ctx context.Context) ([]domain.TeamContext, error) {
    const q = `SELECT id, name, COALESCE(tone,''), COALESCE(slack_channel_id,''), COALESCE(jira_project_key,'')
        FROM teams ORDER BY id`
    rows, err := r.db.Pool.Query(ctx, q)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []domain.TeamContext
    for rows.Next() {
        var t domain.TeamContext
        if err := rows.Scan(&t.ID, &t.Name, &t.Tone, &t.SlackChannelID, &t.JiraProjectKey); err != nil { return nil, err }
        out = append(out, t)
    }
    return out, rows.Err()
}

// ---- sprints and backlog ----

func (r *Repository) GetSprint(ctx context.Context, id int64) (domain.Sprint, error) {
    const q = `SELECT id, name, team_id, start_date, end_date, status FROM sprints WHERE id=$1`
    var s domain.Sprint
    err := r.db.Pool.QueryRow(ctx, q, id).Scan(&s.ID, &s.Name, &s.TeamID, &s.StartDate, &s.EndDate, &s.Status)
    if errors.Is(err, pgx.ErrNoRows) { return s, fmt.Errorf("sprint %d: %w", id, domain.ErrNotFound) }
    return s, err
}

func (r *Repository) ListCompletedSprints(ctx context.Context, teamID int64, limit int) ([]domain.Sprint, error) {
    const q = `SELECT id, name, team_id, start_date, end_date, status FROM sprints
        WHERE team_id=$1 AND status IN ('completed','closed')
        ORDER BY end_date DESC LIMIT $2`
    rows, err := r.db.Pool.Query(ctx, q, teamID, limit)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []domain.Sprint
    for rows.Next() {
        var s domain.Sprint
        if err := rows.Scan(&s.ID, &s.Name, &s.TeamID, &s.StartDate, &s.EndDate, &s.Status); err != nil { return nil, err }
        out = append(out, s)
    }
    return out, rows.Err()
}

func (r *Repository) GetBacklogItem(ctx context.Context, id int64) (domain.BacklogItem, error) {
    const q = `SELECT id, title, COALESCE(description,''), story_points, status, COALESCE(priority,''), sprint_id
        FROM backlog_items WHERE id=$1`
    var it domain.BacklogItem
    err := r.db.Pool.QueryRow(ctx, q, id).Scan(&it.ID, &it.Title, &it.Description, &it.StoryPoints, &it.Status, &it.Priority, &it.SprintID)
    if errors.Is(err, pgx.ErrNoRows) { return it, fmt.Errorf("backlog item %d: %w", id, domain.ErrNotFound) }
    return it, err
}

func (r *Repository) ListSprintItems(ctx context.Context, sprintID int64) ([]domain.BacklogItem, error) {
    const q = `SELECT id, title, COALESCE(description,''), story_points, status, COALESCE(priority,''), sprint_id
        FROM backlog_items WHERE sprint_id=$1 ORDER BY id`
    return r.queryItems(ctx, q, sprintID)
}

// ListBacklogCandidates returns unscheduled, unfinished items for sprint
// planning, highest priority first.
func (r *Repository) ListBacklogCandidates(ctx context.Context, teamID int64, limit int) ([]domain.BacklogItem, error) {
    const q = `SELECT b.id, b.title, COALESCE(b.description,''), b.story_points, b.status, COALESCE(b.priority,''), b.sprint_id
        FROM backlog_items b
        WHERE b.team_id=$1 AND b.sprint_id IS NULL AND b.status NOT IN ('done','completed','closed')
        ORDER BY CASE b.priority WHEN 'critical' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END, b.id
        LIMIT $2`
    return r.queryItems(ctx, q, teamID, limit)
}

func (r *Repository) queryItems(ctx context.Context, q string, args ...any) ([]domain.BacklogItem, error) {
    rows, err := r.db.Pool.Query(ctx, q, args...)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []domain.BacklogItem
    for rows.Next() {
        var it domain.BacklogItem
        if err := rows.Scan(&it.ID, &it.Title, &it.Description, &it.StoryPoints, &it.Status, &it.Priority, &it.SprintID); err != nil { return nil, err }
        out = append(out, it)
    }
    return out, rows.Err()
}

// ---- standup entries ----

func (r *Repository) InsertEntry(ctx context.Context, teamID int64, e domain.StandupEntry) (int64, error) {
    const q = `INSERT INTO standup_entries(team_id, author, yesterday, today, blockers, notes, source, created_at)
        VALUES($1,$2,$3,$4,$5,$6,$7,now()) RETURNING id`
    var id int64
    err := r.db.Pool.QueryRow(ctx, q, teamID, e.Author, e.Yesterday, e.Today, e.Blockers, e.Notes, e.Source).Scan(&id)
    return id, err
}

// ListRecentEntries returns manual entries recorded within the lookback
// window, oldest first.
func (r *Repository) ListRecentEntries(ctx context.Context, teamID int64, lookbackHours int) ([]domain.StandupEntry, error) {
    const q = `SELECT author, yesterday, today, blockers, notes, source FROM standup_entries
        WHERE team_id=$1 AND created_at >= now() - make_interval(hours => $2)
        ORDER BY created_at`
    rows, err := r.db.Pool.Query(ctx, q, teamID, lookbackHours)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []domain.StandupEntry
    for rows.Next() {
        var e domain.StandupEntry
        if err := rows.Scan(&e.Author, &e.Yesterday, &e.Today, &e.Blockers, &e.Notes, &e.Source); err != nil { return nil, err }
        out = append(out, e)
    }
    return out, rows.Err()
}

// ---- summaries ----

// Summaries persist the structured fields as jsonb columns so the API can
// return them without reprocessing.
func (r *Repository) InsertSummary(ctx context.Context, s domain.StoredSummary) (int64, error) {
    achievements, _ := json.Marshal(s.Summary.Achievements)
    focus, _ := json.Marshal(s.Summary.FocusAreas)
    blockers, _ := json.Marshal(s.Summary.Blockers)
    actions, _ := json.Marshal(s.Summary.ActionItems)
    const q = `INSERT INTO standup_summaries(team_id, summary_text, key_achievements, today_focus, blockers,
            action_items, team_sentiment, participants, posted_to_slack, created_at)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,now()) RETURNING id`
    var id int64
    err := r.db.Pool.QueryRow(ctx, q, s.TeamID, s.Summary.Narrative, achievements, focus, blockers,
        actions, s.Summary.Sentiment, s.Participants, s.PostedToSlack).Scan(&id)
    return id, err
}

func (r *Repository) MarkSummaryPosted(ctx context.Context, id int64) error {
    _, err := r.db.Pool.Exec(ctx, `UPDATE standup_summaries SET posted_to_slack=true WHERE id=$1`, id)
    return err
}

func (r *Repository) ListSummaries(ctx context.Context, teamID int64, limit int) ([]domain.StoredSummary, error) {
    const q = `SELECT id, team_id, summary_text, key_achievements, today_focus, blockers, action_items,
            team_sentiment, participants, posted_to_slack, created_at
        FROM standup_summaries WHERE team_id=$1 ORDER BY created_at DESC LIMIT $2`
    rows, err := r.db.Pool.Query(ctx, q, teamID, limit)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []domain.StoredSummary
    for rows.Next() {
        var s domain.StoredSummary
        var achievements, focus, blockers, actions []byte
        if err := rows.Scan(&s.ID, &s.TeamID, &s.Summary.Narrative, &achievements, &focus, &blockers, &actions,
            &s.Summary.Sentiment, &s.Participants, &s.PostedToSlack, &s.CreatedAt); err != nil { return nil, err }
        _ = json.Unmarshal(achievements, &s.Summary.Achievements)
        _ = json.Unmarshal(focus, &s.Summary.FocusAreas)
        _ = json.Unmarshal(blockers, &s.Summary.Blockers)
        _ = json.Unmarshal(actions, &s.Summary.ActionItems)
        if s.Summary.Achievements == nil { s.Summary.Achievements = []string{} }
        if s.Summary.FocusAreas == nil { s.Summary.FocusAreas = []string{} }
        if s.Summary.Blockers == nil { s.Summary.Blockers = []domain.Blocker{} }
        if s.Summary.ActionItems == nil { s.Summary.ActionItems = []domain.ActionItem{} }
        out = append(out, s)
    }
    return out, rows.Err()
}
