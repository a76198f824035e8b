package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UploadPath is the backend endpoint that ingests raw lead spreadsheets.
const UploadPath = "/Clients/upload-excel"

var ErrNoToken = errors.New("no API token configured")

var contentTypes = map[string]string{
	".csv":  "text/csv",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// TokenProvider supplies the bearer token for each request.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed token, typically read from configuration.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// StatusError is returned when the backend answers outside 2xx.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upload failed: status=%d body=%s", e.Status, e.Body)
}

type Result struct {
	Status    int
	RequestID string
}

type Client struct {
	baseURL string
	tokens  TokenProvider
	client  *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, tokens TokenProvider, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// UploadFile sends the original, unparsed file as multipart field "file".
// The parsed preview is never sent; the backend does its own parsing.
func (c *Client) UploadFile(ctx context.Context, path string) (*Result, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	body, contentType, err := multipartBody(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+UploadPath, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Request-ID", requestID)

	log := c.logger.With(zap.String("request_id", requestID), zap.String("file", filepath.Base(path)))
	start := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		log.Error("upload request failed", zap.Error(err))
		return nil, fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	log = log.With(zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(start)))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Warn("upload rejected", zap.ByteString("body", respBody))
		return nil, &StatusError{Status: resp.StatusCode, Body: string(respBody)}
	}
	log.Info("upload accepted")

	return &Result{Status: resp.StatusCode, RequestID: requestID}, nil
}

func multipartBody(path string) (*bytes.Buffer, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	ct, ok := contentTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		ct = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(path)))
	h.Set("Content-Type", ct)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
