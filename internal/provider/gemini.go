package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	geminiEndpoint     = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"
	geminiDefaultModel = "gemini-2.0-flash-exp"
)

// Request payload pieces ----------------------------------------------------
type (
	geminiInlineData struct {
		MimeType string `json:"mimeType,omitempty"`
		Data     string `json:"data,omitempty"`
	}
	geminiPart struct {
		Text       string            `json:"text,omitempty"`
		InlineData *geminiInlineData `json:"inlineData,omitempty"`
	}
	geminiContent struct {
		Role  string       `json:"role,omitempty"`
		Parts []geminiPart `json:"parts"`
	}
	geminiRequest struct {
		Contents []geminiContent `json:"contents"`
	}
)

// Response payload pieces ---------------------------------------------------
type (
	geminiCandidate struct {
		FinishReason string        `json:"finishReason,omitempty"`
		Content      geminiContent `json:"content"`
	}
	geminiError struct {
		Message string `json:"message"`
	}
	geminiResponse struct {
		Candidates []geminiCandidate `json:"candidates"`
		Error      *geminiError      `json:"error,omitempty"`
	}
)

// GeminiClient 调用 Gemini 图像生成端点。对核心而言它是不透明的外部服务，
// 只负责提交 prompt 加参考图并取回图片 data URL。
type GeminiClient struct {
	httpClient *http.Client
	model      string
}

// NewGeminiClient 创建 Gemini 客户端。
func NewGeminiClient(model string) *GeminiClient {
	if strings.TrimSpace(model) == "" {
		model = geminiDefaultModel
	}
	return &GeminiClient{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		model:      model,
	}
}

// GenerateImage submits the prompt plus reference images and returns the
// first generated image as a data URL.
func (g *GeminiClient) GenerateImage(ctx context.Context, apiKey, prompt string, refs []string) (string, error) {
	if g == nil {
		return "", errors.New("gemini client not initialised")
	}
	if strings.TrimSpace(apiKey) == "" {
		return "", errors.New("gemini api key missing")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt is empty")
	}

	parts := []geminiPart{{Text: prompt}}
	for _, ref := range refs {
		mimeType, payload := splitDataURL(ref)
		if payload == "" {
			continue
		}
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: mimeType,
			Data:     payload,
		}})
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
	})
	if err != nil {
		return "", err
	}

	var imageURL string
	err = withRetry(ctx, "gemini_generate_image", func() error {
		url, callErr := g.callOnce(ctx, apiKey, body)
		if callErr != nil {
			return callErr
		}
		imageURL = url
		return nil
	})
	return imageURL, err
}

func (g *GeminiClient) callOnce(ctx context.Context, apiKey string, body []byte) (string, error) {
	endpoint := fmt.Sprintf(geminiEndpoint, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		logrus.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   truncateForLog(string(raw), 256),
		}).Warn("gemini_generate_image_http_error")
		return "", fmt.Errorf("gemini http %d", resp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("gemini: %s", parsed.Error.Message)
	}

	for _, candidate := range parsed.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				mimeType := part.InlineData.MimeType
				if mimeType == "" {
					mimeType = "image/png"
				}
				return fmt.Sprintf("data:%s;base64,%s", mimeType, part.InlineData.Data), nil
			}
		}
	}
	return "", errors.New("gemini response contained no image")
}

// splitDataURL 拆出 data URL 的 mime 类型与 base64 载荷；
// 普通字符串被当作裸 base64，按 image/png 处理。
func splitDataURL(value string) (string, string) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", ""
	}
	if !strings.HasPrefix(trimmed, "data:") {
		if _, err := base64.StdEncoding.DecodeString(trimmed); err != nil {
			return "", ""
		}
		return "image/png", trimmed
	}
	rest := strings.TrimPrefix(trimmed, "data:")
	sep := strings.Index(rest, ",")
	if sep < 0 {
		return "", ""
	}
	meta := strings.SplitN(rest[:sep], ";", 2)[0]
	if meta == "" {
		meta = "image/png"
	}
	return meta, rest[sep+1:]
}

func truncateForLog(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}
