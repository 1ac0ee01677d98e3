package storage

import (
	"strings"
	"testing"
)

func TestSanitizePathSegment(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "小写保留", input: "images", expected: "images"},
		{name: "大写转小写", input: "Images", expected: "images"},
		{name: "非法字符剔除", input: "a/b\\c..d", expected: "abcd"},
		{name: "保留连字符下划线", input: "my-file_1", expected: "my-file_1"},
		{name: "空串", input: "  ", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizePathSegment(tt.input); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestNormalizeExtension(t *testing.T) {
	if got := normalizeExtension(".PNG"); got != "png" {
		t.Errorf("expected png, got %q", got)
	}
	if got := normalizeExtension(""); got != "bin" {
		t.Errorf("expected bin fallback, got %q", got)
	}
}

func TestBuildObjectPath(t *testing.T) {
	p := buildObjectPath("Images", "My Photo", "PNG")
	if !strings.HasPrefix(p, "images/") {
		t.Errorf("expected category prefix, got %q", p)
	}
	if !strings.HasSuffix(p, "/my-photo.png") {
		t.Errorf("expected sanitised filename, got %q", p)
	}
	// category/yyyy/mm/dd/file.ext 共五段
	if parts := strings.Split(p, "/"); len(parts) != 5 {
		t.Errorf("expected dated layout, got %q", p)
	}

	p = buildObjectPath("", "", "")
	if !strings.HasPrefix(p, "misc/") || !strings.HasSuffix(p, ".bin") {
		t.Errorf("expected misc fallback with bin extension, got %q", p)
	}
}

func TestJoinPrefix(t *testing.T) {
	if got := joinPrefix("uploads/", "/images/a.png"); got != "uploads/images/a.png" {
		t.Errorf("unexpected join: %q", got)
	}
	if got := joinPrefix("", "images/a.png"); got != "images/a.png" {
		t.Errorf("unexpected join without prefix: %q", got)
	}
}

func TestDetectContentType(t *testing.T) {
	if got := detectContentType("png"); got != "image/png" {
		t.Errorf("expected image/png, got %q", got)
	}
	if got := detectContentType("unknownext"); got != "application/octet-stream" {
		t.Errorf("expected octet-stream fallback, got %q", got)
	}
}
