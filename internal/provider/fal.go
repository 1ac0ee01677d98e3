package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	falQueueBaseURL    = "https://queue.fal.run"
	falDefaultEndpoint = "fal-ai/kling-video/v1/standard/image-to-video"

	falPollInterval    = 5 * time.Second
	falMaxPollAttempts = 60
)

// FalVideoResult 是视频任务完成后的结果子集。
type FalVideoResult struct {
	VideoURL string
	Seed     any
}

// FalClient 通过 fal.ai 队列接口提交异步视频任务并轮询结果。
type FalClient struct {
	httpClient *http.Client
	endpoint   string
}

// NewFalClient 创建 fal.ai 客户端。
func NewFalClient(endpoint string) *FalClient {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = falDefaultEndpoint
	}
	return &FalClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		endpoint:   strings.Trim(endpoint, "/"),
	}
}

type falSubmitResponse struct {
	RequestID string `json:"request_id"`
}

type falStatusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

type falResultResponse struct {
	Video struct {
		URL string `json:"url"`
	} `json:"video"`
	Seed any `json:"seed"`
}

// Submit enqueues a video generation job and returns the provider request id.
// webhookURL may be empty, in which case the caller is expected to poll.
func (f *FalClient) Submit(ctx context.Context, apiKey string, input map[string]any, webhookURL string) (string, error) {
	if f == nil {
		return "", errors.New("fal client not initialised")
	}
	if strings.TrimSpace(apiKey) == "" {
		return "", errors.New("fal api key missing")
	}

	url := fmt.Sprintf("%s/%s", falQueueBaseURL, f.endpoint)
	if trimmed := strings.TrimSpace(webhookURL); trimmed != "" {
		url = fmt.Sprintf("%s?fal_webhook=%s", url, trimmed)
	}

	body, err := json.Marshal(input)
	if err != nil {
		return "", err
	}

	var requestID string
	err = withRetry(ctx, "fal_submit", func() error {
		var parsed falSubmitResponse
		if callErr := f.doJSON(ctx, http.MethodPost, url, apiKey, body, &parsed); callErr != nil {
			return callErr
		}
		if strings.TrimSpace(parsed.RequestID) == "" {
			return errors.New("fal submit returned no request id")
		}
		requestID = parsed.RequestID
		return nil
	})
	return requestID, err
}

// AwaitResult polls the queue status at a fixed interval until the job
// leaves the queue, then fetches the result payload.
func (f *FalClient) AwaitResult(ctx context.Context, apiKey, requestID string) (*FalVideoResult, error) {
	if f == nil {
		return nil, errors.New("fal client not initialised")
	}
	if strings.TrimSpace(requestID) == "" {
		return nil, errors.New("fal request id missing")
	}

	statusURL := fmt.Sprintf("%s/%s/requests/%s/status", falQueueBaseURL, f.endpoint, requestID)
	for attempt := 0; attempt < falMaxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(falPollInterval):
		}

		var status falStatusResponse
		if err := f.doJSON(ctx, http.MethodGet, statusURL, apiKey, nil, &status); err != nil {
			continue
		}
		switch strings.ToUpper(status.Status) {
		case "COMPLETED":
			return f.fetchResult(ctx, apiKey, requestID)
		case "FAILED", "CANCELLED":
			message := status.Error
			if message == "" {
				message = strings.ToLower(status.Status)
			}
			return nil, fmt.Errorf("fal job %s: %s", requestID, message)
		}
	}
	return nil, fmt.Errorf("fal job %s did not finish in time", requestID)
}

func (f *FalClient) fetchResult(ctx context.Context, apiKey, requestID string) (*FalVideoResult, error) {
	resultURL := fmt.Sprintf("%s/%s/requests/%s", falQueueBaseURL, f.endpoint, requestID)
	var parsed falResultResponse
	if err := f.doJSON(ctx, http.MethodGet, resultURL, apiKey, nil, &parsed); err != nil {
		return nil, err
	}
	if strings.TrimSpace(parsed.Video.URL) == "" {
		return nil, errors.New("fal result contained no video url")
	}
	return &FalVideoResult{VideoURL: parsed.Video.URL, Seed: parsed.Seed}, nil
}

func (f *FalClient) doJSON(ctx context.Context, method, url, apiKey string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Key "+apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fal http %d: %s", resp.StatusCode, truncateForLog(string(raw), 256))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
