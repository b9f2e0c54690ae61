package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
)

// BuildJSON builds a POST request carrying payload as JSON.
func BuildJSON(ctx context.Context, url string, payload any) (*http.Request, error) {
	if strings.TrimSpace(url) == "" {
		return nil, &domain.OpError{
			Op:   "httpclient.build",
			Kind: domain.KindInvalidConfig,
			Err:  domain.ErrInvalidConfig,
		}
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, &domain.OpError{Op: "httpclient.build", Kind: domain.KindExecution, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, &domain.OpError{Op: "httpclient.build", Kind: domain.KindInvalidConfig, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// BuildMultipart builds a multipart/form-data POST with plain fields plus one
// file part read from filePath.
func BuildMultipart(ctx context.Context, url string, fields map[string]string, fileField, filePath string) (*http.Request, error) {
	if strings.TrimSpace(url) == "" {
		return nil, &domain.OpError{
			Op:   "httpclient.build",
			Kind: domain.KindInvalidConfig,
			Err:  domain.ErrInvalidConfig,
		}
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, &domain.OpError{Op: "httpclient.build", Kind: domain.KindNotFound, Path: filePath, Err: err}
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, &domain.OpError{Op: "httpclient.build", Kind: domain.KindExecution, Err: err}
		}
	}

	part, err := mw.CreateFormFile(fileField, filepath.Base(filePath))
	if err != nil {
		return nil, &domain.OpError{Op: "httpclient.build", Kind: domain.KindExecution, Err: err}
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, &domain.OpError{Op: "httpclient.build", Kind: domain.KindExecution, Path: filePath, Err: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &domain.OpError{Op: "httpclient.build", Kind: domain.KindExecution, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, &domain.OpError{Op: "httpclient.build", Kind: domain.KindInvalidConfig, Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}
