package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
)

func TestBuildJSON(t *testing.T) {
	req, err := BuildJSON(context.Background(), "https://hooks.example/abc", map[string]string{"content": "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Method != http.MethodPost {
		t.Fatalf("expected POST, got %s", req.Method)
	}
	if ct := req.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json content type, got %s", ct)
	}

	body, _ := io.ReadAll(req.Body)
	var decoded map[string]string
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("expected valid json body: %v", err)
	}
	if decoded["content"] != "hi" {
		t.Fatalf("unexpected payload %v", decoded)
	}
}

func TestBuildJSONRequiresURL(t *testing.T) {
	_, err := BuildJSON(context.Background(), "  ", nil)
	if !domain.IsKind(err, domain.KindInvalidConfig) {
		t.Fatalf("expected invalid_config, got %v", err)
	}
}

func TestBuildMultipart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new_subdomains.txt")
	if err := os.WriteFile(path, []byte("c.example.com\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	req, err := BuildMultipart(context.Background(), "https://hooks.example/abc", map[string]string{"content": "list"}, "file", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mediaType, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("unexpected content type %q (%v)", req.Header.Get("Content-Type"), err)
	}

	mr := multipart.NewReader(req.Body, params["boundary"])
	form, err := mr.ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	if got := form.Value["content"]; len(got) != 1 || got[0] != "list" {
		t.Fatalf("unexpected content field %v", got)
	}
	files := form.File["file"]
	if len(files) != 1 || files[0].Filename != "new_subdomains.txt" {
		t.Fatalf("unexpected file part %v", files)
	}
	f, _ := files[0].Open()
	defer f.Close()
	b, _ := io.ReadAll(f)
	if strings.TrimSpace(string(b)) != "c.example.com" {
		t.Fatalf("unexpected file content %q", string(b))
	}
}

func TestBuildMultipartMissingFile(t *testing.T) {
	_, err := BuildMultipart(context.Background(), "https://hooks.example/abc", nil, "file", filepath.Join(t.TempDir(), "nope"))
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}
