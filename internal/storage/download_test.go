package storage

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDownloadDataURL(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)

	data, ext, err := Download(context.Background(), dataURL)
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("payload mismatch: %v", data)
	}
	if ext != "png" {
		t.Errorf("expected png extension, got %q", ext)
	}
}

func TestDownloadDataURLErrors(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "空地址", url: ""},
		{name: "缺少逗号", url: "data:image/png;base64"},
		{name: "非 base64 编码", url: "data:image/png,rawpayload"},
		{name: "损坏的 base64", url: "data:image/png;base64,!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Download(context.Background(), tt.url); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDownloadHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write([]byte("video-bytes"))
	}))
	defer server.Close()

	data, ext, err := Download(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	if string(data) != "video-bytes" {
		t.Errorf("payload mismatch: %q", data)
	}
	if ext != "mp4" {
		t.Errorf("expected mp4 extension, got %q", ext)
	}
}

func TestDownloadHTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if _, _, err := Download(context.Background(), server.URL); err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestExtensionForMime(t *testing.T) {
	tests := []struct {
		mime     string
		expected string
	}{
		{mime: "image/jpeg", expected: "jpg"},
		{mime: "image/png; charset=binary", expected: "png"},
		{mime: "video/mp4", expected: "mp4"},
		{mime: "application/x-unknown-thing", expected: "bin"},
	}

	for _, tt := range tests {
		if got := extensionForMime(tt.mime); got != tt.expected {
			t.Errorf("mime %q: expected %q, got %q", tt.mime, tt.expected, got)
		}
	}
}
