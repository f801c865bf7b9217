package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/psycho-baller/audora/internal/logger"
	"github.com/psycho-baller/audora/internal/types"
)

type PublishResponse struct {
	Code   int    `json:"Code"`
	Status string `json:"Status"`
	Data   struct {
		JobID     string `json:"JobId"`
		Status    string `json:"Status"`
		ResultURL string `json:"ResultURL"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

type StatusResponse struct {
	Code   int    `json:"Code"`
	Status string `json:"Status"`
	Data   struct {
		Status    string `json:"Status"` // Success, Queued, Processing, Failed
		ResultURL string `json:"ResultURL"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

// Client talks to the speech service over HTTP. Supports mock mode via env
// USE_MOCK_TRANSCRIBE=true for offline demos.
type Client struct {
	host       string
	httpClient *http.Client
	log        *logger.Logger
	pollEvery  time.Duration
	pollMax    int
}

func NewClient(host string, log *logger.Logger) (*Client, error) {
	if host == "" && os.Getenv("USE_MOCK_TRANSCRIBE") != "true" {
		return nil, errors.New("TRANSCRIBE_URL not set")
	}
	return &Client{
		host:       strings.TrimRight(host, "/"),
		httpClient: &http.Client{Timeout: 12 * time.Second},
		log:        log.WithComponent("speech"),
		pollEvery:  1500 * time.Millisecond,
		pollMax:    40,
	}, nil
}

func (c *Client) BatchTranscribe(ctx context.Context, req BatchRequest) error {
	if os.Getenv("USE_MOCK_TRANSCRIBE") == "true" {
		return nil
	}
	fields := map[string]string{
		"storageRef":      req.StorageRef,
		"conversationId":  req.ConversationID,
		"initiatorName":   req.InitiatorName,
		"participantName": req.ParticipantName,
		"userEmail":       req.UserEmail,
		"userName":        req.UserName,
	}
	jobID, doneURL, err := c.publish(ctx, "/batch", fields)
	if err != nil {
		return err
	}
	if doneURL != "" {
		return nil
	}
	_, err = c.poll(ctx, jobID)
	return err
}

func (c *Client) TranscribeChunk(ctx context.Context, storageRef string) (types.ChunkResult, error) {
	if os.Getenv("USE_MOCK_TRANSCRIBE") == "true" {
		return mockChunkResult(), nil
	}
	jobID, resultURL, err := c.publish(ctx, "/chunk", map[string]string{"storageRef": storageRef})
	if err != nil {
		return types.ChunkResult{}, err
	}
	if resultURL == "" {
		resultURL, err = c.poll(ctx, jobID)
		if err != nil {
			return types.ChunkResult{}, err
		}
	}
	c.log.WithField("result_url", resultURL).Info("downloading chunk result")
	return c.download(ctx, resultURL)
}

func (c *Client) publish(ctx context.Context, path string, fields map[string]string) (string, string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	for k, v := range fields {
		w.WriteField(k, v)
	}
	_ = w.Close()
	req, err := http.NewRequestWithContext(ctx, "POST", c.host+path, &b)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	var resp PublishResponse
	if err := c.doJSON(req, &resp); err != nil {
		return "", "", err
	}
	if resp.Code != 200 {
		return "", "", fmt.Errorf("speech publish error: code=%d reason=%s", resp.Code, resp.Reason)
	}
	// job may already be complete for previously seen audio
	if resp.Data.ResultURL != "" && strings.ToLower(resp.Data.Status) == "success" {
		return "", resp.Data.ResultURL, nil
	}
	return resp.Data.JobID, "", nil
}

func (c *Client) poll(ctx context.Context, jobID string) (string, error) {
	base := c.host + "/getstatus"
	for i := 0; i < c.pollMax; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollEvery):
		}
		u, _ := url.Parse(base)
		q := u.Query()
		q.Set("jobId", jobID)
		u.RawQuery = q.Encode()
		req, _ := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
		var s StatusResponse
		if err := c.doJSON(req, &s); err != nil {
			continue
		}
		switch s.Data.Status {
		case "Success":
			return s.Data.ResultURL, nil
		case "Queued", "Processing":
			continue
		case "Failed":
			return "", fmt.Errorf("transcription failed: %s", s.Reason)
		}
	}
	return "", fmt.Errorf("transcription timeout")
}

func (c *Client) download(ctx context.Context, resultURL string) (types.ChunkResult, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", resultURL, nil)
	if err != nil {
		return types.ChunkResult{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.ChunkResult{}, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return types.ChunkResult{}, fmt.Errorf("download failed: %s", string(body))
	}
	var out types.ChunkResult
	if err := json.Unmarshal(body, &out); err != nil {
		return types.ChunkResult{}, fmt.Errorf("chunk result decode error: %v body=%s", err, string(body))
	}
	return out, nil
}

func (c *Client) doJSON(req *http.Request, target interface{}) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 12 * time.Second
	var lastErr error
	op := func() error {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %s", string(body))
			return lastErr
		}
		if len(body) == 0 {
			lastErr = fmt.Errorf("empty body")
			return lastErr
		}
		if err := json.Unmarshal(body, target); err != nil {
			lastErr = fmt.Errorf("json decode error: %v body=%s", err, string(body))
			return lastErr
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, req.Context())); err != nil {
		return lastErr
	}
	return nil
}

func mockChunkResult() types.ChunkResult {
	return types.ChunkResult{
		Transcript: []types.RawTurn{
			{Speaker: types.LabelS1, Text: "Hey, good to see you again."},
			{Speaker: types.LabelS2, Text: "Likewise, it has been a while."},
		},
		S1Facts: []string{"Recently moved apartments"},
		S2Facts: []string{"Started a new job"},
		Summary: "Two friends catch up after a long gap.",
	}
}
