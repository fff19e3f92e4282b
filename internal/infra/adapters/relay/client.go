package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"assistant-relay/internal/domain"
	"assistant-relay/internal/domain/model"
	"assistant-relay/internal/domain/ports/adapter"
)

var _ adapter.RelayClient = (*Client)(nil)

// Client is the worker's HTTP client for the relay API. Status codes map
// onto the domain taxonomy: 404 -> ErrNotFound, 409 -> ErrConflict,
// 400 -> ErrInvalidArgument. Anything else non-2xx is a transport error the
// caller retries on its own cadence.
type Client struct {
	base   string
	apiKey string
	userID string
	http   *http.Client
}

func NewClient(base, apiKey, userID string) *Client {
	return &Client{
		base:   base,
		apiKey: apiKey,
		userID: userID,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) FetchNext(ctx context.Context) (*model.Job, error) {
	u := fmt.Sprintf("%s/jobs/next?userId=%s", c.base, url.QueryEscape(c.userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := statusError(resp); err != nil {
		return nil, err
	}

	// The empty-queue answer is {"job":null}; a claimed job comes back as
	// the job object itself.
	var peek struct {
		ID  string           `json:"id"`
		Job *json.RawMessage `json:"job"`
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &peek); err != nil {
		return nil, fmt.Errorf("decode fetch next: %w", err)
	}
	if peek.ID == "" {
		return nil, nil
	}
	var job model.Job
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}

func (c *Client) Complete(ctx context.Context, jobID, reply string) error {
	return c.post(ctx, fmt.Sprintf("/jobs/%s/complete", url.PathEscape(jobID)), map[string]string{"reply": reply})
}

func (c *Client) Fail(ctx context.Context, jobID, message string) error {
	return c.post(ctx, fmt.Sprintf("/jobs/%s/error", url.PathEscape(jobID)), map[string]string{"error": message})
}

func (c *Client) StreamChunk(ctx context.Context, jobID, delta string) error {
	return c.post(ctx, fmt.Sprintf("/jobs/%s/chunk", url.PathEscape(jobID)), map[string]string{"delta": delta})
}

func (c *Client) Heartbeat(ctx context.Context, status string) error {
	return c.post(ctx, "/worker/heartbeat", map[string]string{"userId": c.userID, "status": status})
}

func (c *Client) UpdateTasks(ctx context.Context, tasks []string) error {
	return c.post(ctx, "/tasks", map[string]any{"userId": c.userID, "tasks": tasks})
}

func (c *Client) UpdatePersonal(ctx context.Context, items []model.PersonalItem) error {
	return c.post(ctx, "/personal", map[string]any{"userId": c.userID, "items": items})
}

func (c *Client) UpdateWeather(ctx context.Context, summary model.WeatherSummary) error {
	return c.post(ctx, "/weather", map[string]any{"userId": c.userID, "summary": summary})
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return statusError(resp)
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return domain.ErrConflict
	case resp.StatusCode == http.StatusBadRequest:
		return domain.ErrInvalidArgument
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("relay http %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
}
