package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/minatori/shotseek/internal/config"
	"github.com/minatori/shotseek/internal/models"
	"go.uber.org/zap"
)

const maxResponseBytes = 4096

// Request is an answer to submit: which video and where in it. Query records
// the search text that surfaced the shot; it stays in the local log and is
// not sent to the evaluation server.
type Request struct {
	VideoID   string  `json:"video_id"`
	Timestamp float64 `json:"timestamp"`
	Query     string  `json:"query,omitempty"`
}

// wirePayload is the body the evaluation server expects.
type wirePayload struct {
	VideoID   string  `json:"video_id"`
	Timestamp float64 `json:"timestamp"`
}

// Client submits answers and records every attempt in the log.
type Client struct {
	endpoint string
	http     *http.Client
	log      *Log
	logger   *zap.Logger // optional; when set, logs submission outcomes
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets a logger for submission outcomes.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client from config. log may be nil, in which case
// attempts are not recorded.
func NewClient(cfg *config.SubmitConfig, log *Log, opts ...ClientOption) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		endpoint: cfg.EndpointURL,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit validates and sends an answer. Without a configured endpoint the
// answer is only logged, which keeps the workflow usable in practice
// sessions. The returned submission carries the outcome status; a rejected
// answer is not an error, only an undeliverable one is.
func (c *Client) Submit(ctx context.Context, req *Request) (*Submission, error) {
	if req.VideoID == "" {
		return nil, fmt.Errorf("%w: video_id is required", models.ErrInvalidArgument)
	}
	if req.Timestamp < 0 {
		return nil, fmt.Errorf("%w: timestamp must not be negative", models.ErrInvalidArgument)
	}
	sub := &Submission{
		ID:        uuid.New().String(),
		VideoID:   req.VideoID,
		Timestamp: req.Timestamp,
		Query:     req.Query,
		CreatedAt: time.Now(),
	}

	if c.endpoint == "" {
		sub.Status = StatusLogged
		c.record(ctx, sub)
		return sub, nil
	}

	status, body, err := c.post(ctx, req)
	if err != nil {
		sub.Status = StatusFailed
		sub.Response = err.Error()
		c.record(ctx, sub)
		return sub, fmt.Errorf("submit to %s: %w", c.endpoint, err)
	}
	sub.Response = body
	if status >= 200 && status < 300 {
		sub.Status = StatusAccepted
	} else {
		sub.Status = StatusRejected
	}
	c.record(ctx, sub)
	if c.logger != nil {
		c.logger.Info("submission sent",
			zap.String("video_id", sub.VideoID),
			zap.Float64("timestamp", sub.Timestamp),
			zap.String("status", sub.Status),
			zap.Int("http_status", status))
	}
	return sub, nil
}

func (c *Client) post(ctx context.Context, req *Request) (int, string, error) {
	payload, err := json.Marshal(wirePayload{VideoID: req.VideoID, Timestamp: req.Timestamp})
	if err != nil {
		return 0, "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	return resp.StatusCode, string(body), nil
}

func (c *Client) record(ctx context.Context, sub *Submission) {
	if c.log == nil {
		return
	}
	if err := c.log.Record(ctx, sub); err != nil && c.logger != nil {
		c.logger.Warn("failed to record submission", zap.Error(err))
	}
}
