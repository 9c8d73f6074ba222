/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "os"
    "strings"
    "time"

    "github.com/MuhammadMaazA/scrum-master-ai/internal/config"
    "github.com/MuhammadMaazA/scrum-master-ai/internal/domain"
    "github.com/rs/zerolog"
)

type Client struct {
    baseURL string
    token   string
    basic   string
    user    string
    pass    string
    http    *http.Client
    log     zerolog.Logger
    apiVer  string
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    return &Client{
        baseURL: cfg.JiraBaseURL,
        token:   cfg.JiraPAT,
        basic:   getenvBasic(),
        user:    cfg.JiraUsername,
        pass:    cfg.JiraPassword,
        http:    &http.Client{ Timeout: cfg.HTTPTimeout },
        log:     log,
        apiVer:  cfg.JiraAPIVersion,
    }
}

// getenvBasic reads JIRA_BASIC_AUTH from environment if present (format: user:pass base64), optional
func getenvBasic() string {
    v := ""
    if s := strings.TrimSpace(os.Getenv("JIRA_BASIC_AUTH")); s != "" { v = s }
    return v
}

func (c *Client) apiURL(path string, q url.Values) string {
    base := strings.TrimRight(c.baseURL, "/")
    if !strings.HasPrefix(path, "/") { path = "/" + path }
    u := base + path
    if q != nil && len(q) > 0 { u = u + "?" + q.Encode() }
    return u
}

func (c *Client) doJSON(ctx context.Context, method, u string, body any) (map[string]any, error) {
    if c.baseURL == "" { return nil, errors.New("jira: empty baseURL") }
    var r io.Reader
    if body != nil {
        b, err := json.Marshal(body)
        if err != nil { return nil, err }
        r = strings.NewReader(string(b))
    }
    var lastErr error
    for attempt := 0; attempt < 3; attempt++ {
        req, err := http.NewRequestWithContext(ctx, method, u, r)
        if err != nil { return nil, err }
        if body != nil { req.Header.Set("Content-Type", "application/json") }
        if c.token != "" {
            req.Header.Set("Authorization", "Bearer "+c.token)
        } else if c.user != "" && c.pass != "" {
            req.SetBasicAuth(c.user, c.pass)
        } else if c.basic != "" {
            req.Header.Set("Authorization", "Basic "+c.basic)
        }
        resp, err := c.http.Do(req)
        if err != nil { lastErr = err } else {
            defer resp.Body.Close()
            if resp.StatusCode >= 300 {
                b, _ := io.ReadAll(resp.Body)
                // retry on 429/5xx
                if resp.StatusCode == 429 || resp.StatusCode >= 500 {
                    lastErr = fmt.Errorf("jira api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
                } else {
                    return nil, fmt.Errorf("jira api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
                }
            } else {
                var out map[string]any
                if err := json.NewDecoder(resp.Body).Decode(&out); err != nil { return nil, err }
                return out, nil
            }
        }
        // backoff
        time.Sleep(time.Duration(300*(1<<attempt)) * time.Millisecond)
    }
    return nil, lastErr
}

// RecentlyUpdatedTickets searches for issues in the project touched within
// the lookback window.
func (c *Client) RecentlyUpdatedTickets(ctx context.Context, projectKey string, hoursBack int) ([]domain.TicketUpdate, error) {
    if projectKey == "" { return nil, errors.New("jira: empty project key") }
    if hoursBack <= 0 { hoursBack = 24 }
    jql := fmt.Sprintf("project = %s AND updated >= -%dh ORDER BY updated DESC", projectKey, hoursBack)

    q := url.Values{}
    q.Set("jql", jql)
    q.Set("maxResults", "50")
    q.Set("fields", "summary,status,assignee")
    path := "/rest/api/3/search"
    if c.apiVer == "2" { path = "/rest/api/2/search" }
    out, err := c.doJSON(ctx, http.MethodGet, c.apiURL(path, q), nil)
    if err != nil { return nil, err }
    return parseSearchIssues(out), nil
}

func parseSearchIssues(out map[string]any) []domain.TicketUpdate {
    issues, _ := out["issues"].([]any)
    updates := make([]domain.TicketUpdate, 0, len(issues))
    for _, raw := range issues {
        issue, ok := raw.(map[string]any)
        if !ok { continue }
        u := domain.TicketUpdate{ Key: toStr(issue["key"]) }
        if fields, ok := issue["fields"].(map[string]any); ok {
            u.Summary = toStr(fields["summary"])
            if st, ok := fields["status"].(map[string]any); ok { u.Status = toStr(st["name"]) }
        }
        if u.Key != "" { updates = append(updates, u) }
    }
    return updates
}

func toStr(v any) string {
    if v == nil { return "" }
    if s, ok := v.(string); ok { return s }
    return fmt.Sprintf("%v", v)
}
