package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

const downloadTimeout = 30 * time.Second

// Download 拉取生成服务返回的媒体载荷，支持 http(s) 地址与 data: URL，
// 返回字节内容和推测的扩展名（不含前导点）。
func Download(ctx context.Context, rawURL string) ([]byte, string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, "", errors.New("empty media url")
	}

	if strings.HasPrefix(trimmed, "data:") {
		return decodeDataURL(trimmed)
	}

	reqCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, trimmed, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create media request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download media http %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read media body: %w", err)
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty media payload")
	}
	return data, extensionForMime(resp.Header.Get("Content-Type")), nil
}

func decodeDataURL(dataURL string) ([]byte, string, error) {
	rest := strings.TrimPrefix(dataURL, "data:")
	sep := strings.Index(rest, ",")
	if sep < 0 {
		return nil, "", errors.New("malformed data url")
	}
	meta, payload := rest[:sep], rest[sep+1:]
	if !strings.Contains(meta, "base64") {
		return nil, "", errors.New("unsupported data url encoding")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data url: %w", err)
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty data url payload")
	}
	mimeType := strings.SplitN(meta, ";", 2)[0]
	return data, extensionForMime(mimeType), nil
}

func extensionForMime(mimeType string) string {
	mimeType = strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	switch mimeType {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "video/mp4":
		return "mp4"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return "bin"
}
