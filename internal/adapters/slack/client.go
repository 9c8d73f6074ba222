/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package slack

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "net/url"
    "strconv"
    "time"

    "github.com/MuhammadMaazA/scrum-master-ai/internal/config"
    "github.com/MuhammadMaazA/scrum-master-ai/internal/domain"
    "github.com/rs/zerolog"
)

const apiBase = "https://slack.com/api"

type Client struct {
    token string
    http  *http.Client
    log   zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    return &Client{ token: cfg.SlackToken, http: &http.Client{ Timeout: 10 * time.Second }, log: log }
}

// PostMessage posts markdown text to a channel and returns the message ts.
func (c *Client) PostMessage(ctx context.Context, channelID, text string) (string, error) {
    if c.token == "" || channelID == "" { return "", fmt.Errorf("slack: missing token or channel id") }
    body := map[string]any{"channel": channelID, "text": text, "mrkdwn": true}
    b, _ := json.Marshal(body)
    req, _ := http.NewRequestWithContext(ctx, "POST", apiBase+"/chat.postMessage", bytes.NewReader(b))
    req.Header.Set("Authorization", "Bearer "+c.token)
    req.Header.Set("Content-Type", "application/json")
    resp, err := c.http.Do(req)
    if err != nil { return "", err }
    defer resp.Body.Close()
    if resp.StatusCode >= 300 { return "", fmt.Errorf("slack chat.postMessage status=%d", resp.StatusCode) }
    var r struct {
        OK    bool   `json:"ok"`
        Error string `json:"error"`
        TS    string `json:"ts"`
    }
    if err := json.NewDecoder(resp.Body).Decode(&r); err != nil { return "", err }
    if !r.OK { return "", fmt.Errorf("slack chat.postMessage error=%s", r.Error) }
    return r.TS, nil
}

// FetchRecentMessages reads channel history back to the lookback horizon.
// Bot and app messages are skipped so only human standup posts come back.
func (c *Client) FetchRecentMessages(ctx context.Context, channelID string, lookbackHours int) ([]domain.ChatMessage, error) {
    if c.token == "" || channelID == "" { return nil, fmt.Errorf("slack: missing token or channel id") }
    oldest := time.Now().Add(-time.Duration(lookbackHours) * time.Hour).Unix()
    q := url.Values{}
    q.Set("channel", channelID)
    q.Set("oldest", strconv.FormatInt(oldest, 10))
    q.Set("limit", "200")
    req, _ := http.NewRequestWithContext(ctx, "GET", apiBase+"/conversations.history?"+q.Encode(), nil)
    req.Header.Set("Authorization", "Bearer "+c.token)
    resp, err := c.http.Do(req)
    if err != nil { return nil, err }
    defer resp.Body.Close()
    if resp.StatusCode >= 300 { return nil, fmt.Errorf("slack conversations.history status=%d", resp.StatusCode) }
    var r struct {
        OK       bool   `json:"ok"`
        Error    string `json:"error"`
        Messages []struct {
            Type    string `json:"type"`
            Subtype string `json:"subtype"`
            User    string `json:"user"`
            BotID   string `json:"bot_id"`
            Text    string `json:"text"`
            TS      string `json:"ts"`
        } `json:"messages"`
    }
    if err := json.NewDecoder(resp.Body).Decode(&r); err != nil { return nil, err }
    if !r.OK { return nil, fmt.Errorf("slack conversations.history error=%s", r.Error) }

    out := make([]domain.ChatMessage, 0, len(r.Messages))
    // History comes newest first; reverse to chronological order.
    for i := len(r.Messages) - 1; i >= 0; i-- {
        m := r.Messages[i]
        if m.Type != "message" || m.Subtype != "" || m.BotID != "" { continue }
        author := m.User
        if name, err := c.userName(ctx, m.User); err == nil && name != "" { author = name }
        out = append(out, domain.ChatMessage{ Author: author, Text: m.Text, Timestamp: parseTS(m.TS) })
    }
    return out, nil
}

// userName resolves a user id to a display name. Failures fall back to the
// raw id at the call site.
func (c *Client) userName(ctx context.Context, userID string) (string, error) {
    if userID == "" { return "", fmt.Errorf("slack: empty user id") }
    q := url.Values{}
    q.Set("user", userID)
    req, _ := http.NewRequestWithContext(ctx, "GET", apiBase+"/users.info?"+q.Encode(), nil)
    req.Header.Set("Authorization", "Bearer "+c.token)
    resp, err := c.http.Do(req)
    if err != nil { return "", err }
    defer resp.Body.Close()
    if resp.StatusCode >= 300 { return "", fmt.Errorf("slack users.info status=%d", resp.StatusCode) }
    var r struct {
        OK   bool `json:"ok"`
        User struct {
            RealName string `json:"real_name"`
            Name     string `json:"name"`
        } `json:"user"`
    }
    if err := json.NewDecoder(resp.Body).Decode(&r); err != nil { return "", err }
    if !r.OK { return "", fmt.Errorf("slack users.info not ok") }
    if r.User.RealName != "" { return r.User.RealName, nil }
    return r.User.Name, nil
}

func parseTS(ts string) time.Time {
    f, err := strconv.ParseFloat(ts, 64)
    if err != nil { return time.Time{} }
    sec := int64(f)
    return time.Unix(sec, int64((f-float64(sec))*1e9))
}
