package retriever

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/MuhammadMaazA/scrum-master-ai/internal/config"
    "github.com/rs/zerolog"
)

// Client talks to the vector retrieval sidecar that stores standup and
// sprint documents for similarity search.
type Client struct {
    baseURL string
    apiKey  string
    topK    int
    http    *http.Client
    log     zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    return &Client{
        baseURL: strings.TrimRight(cfg.RetrieverBaseURL, "/"),
        apiKey:  cfg.RetrieverAPIKey,
        topK:    cfg.RetrieverTopK,
        http:    &http.Client{ Timeout: 10 * time.Second },
        log:     log,
    }
}

type queryRequest struct {
    Text   string `json:"text"`
    Limit  int    `json:"limit"`
    Filter string `json:"type,omitempty"`
}

type queryResponse struct {
    Documents []struct {
        Text string `json:"text"`
    } `json:"documents"`
}

type storeRequest struct {
    Text string `json:"text"`
    Type string `json:"type"`
}

// Query returns the texts of the most similar stored documents.
func (c *Client) Query(ctx context.Context, text string, limit int, typeFilter string) ([]string, error) {
    if c.baseURL == "" { return nil, errors.New("retriever: empty baseURL") }
    if limit <= 0 { limit = c.topK }
    body, _ := json.Marshal(queryRequest{ Text: text, Limit: limit, Filter: typeFilter })
    req, _ := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/query", bytes.NewReader(body))
    c.setHeaders(req)
    resp, err := c.http.Do(req)
    if err != nil { return nil, err }
    defer resp.Body.Close()
    if resp.StatusCode >= 300 { return nil, fmt.Errorf("retriever query status=%d", resp.StatusCode) }
    var out queryResponse
    if err := json.NewDecoder(resp.Body).Decode(&out); err != nil { return nil, err }
    texts := make([]string, 0, len(out.Documents))
    for _, d := range out.Documents {
        if d.Text != "" { texts = append(texts, d.Text) }
    }
    return texts, nil
}

// Store indexes one document under the given type.
func (c *Client) Store(ctx context.Context, text, docType string) error {
    if c.baseURL == "" { return errors.New("retriever: empty baseURL") }
    body, _ := json.Marshal(storeRequest{ Text: text, Type: docType })
    req, _ := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/documents", bytes.NewReader(body))
    c.setHeaders(req)
    resp, err := c.http.Do(req)
    if err != nil { return err }
    defer resp.Body.Close()
    if resp.StatusCode >= 300 { return fmt.Errorf("retriever store status=%d", resp.StatusCode) }
    return nil
}

func (c *Client) setHeaders(req *http.Request) {
    req.Header.Set("Content-Type", "application/json")
    if c.apiKey != "" { req.Header.Set("Authorization", "Bearer "+c.apiKey) }
}
