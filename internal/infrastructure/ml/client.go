package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sethvargo/go-retry"

	"TruthPost/internal/config"
	"TruthPost/internal/domain"
	"TruthPost/internal/logging"
)

const (
	errorBodyLimit = 1024
	defaultBackoff = 500 * time.Millisecond
)

// client is the HTTP plumbing shared by the per-modality analyzers.
type client struct {
	endpoint string
	timeout  time.Duration
	retries  int
	backoff  time.Duration
	http     *http.Client
	logger   *slog.Logger
}

func newClient(cfg config.ServiceConfig, httpClient *http.Client, logger *slog.Logger) client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return client{
		endpoint: cfg.Endpoint,
		timeout:  cfg.Timeout,
		retries:  retries,
		backoff:  backoff,
		http:     httpClient,
		logger:   logger,
	}
}

type requestBuilder func(ctx context.Context) (*http.Request, error)

// do runs one attempt plus the configured extra attempts with a constant
// backoff between them. Each attempt gets its own timeout.
func (c client) do(ctx context.Context, build requestBuilder, v any) error {
	if c.endpoint == "" {
		return fmt.Errorf("analysis endpoint is not configured")
	}

	attempt := 0
	backoff := retry.WithMaxRetries(uint64(c.retries), retry.NewConstant(c.backoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := c.once(ctx, build, v)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if attempt <= c.retries {
			c.logger.Debug("analysis attempt failed, will retry", "attempt", attempt, "error", err)
		}
		return retry.RetryableError(err)
	})
}

func (c client) once(ctx context.Context, build requestBuilder, v any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := build(ctx)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		if msg := strings.TrimSpace(string(payload)); msg != "" {
			return fmt.Errorf("unexpected status %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}

func (c client) postJSON(ctx context.Context, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	return c.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, v)
}

// postFile uploads the file under the given form field. The file is read from
// disk once, whatever the number of attempts.
func (c client) postFile(ctx context.Context, field string, upload domain.MediaUpload, v any) error {
	data, err := os.ReadFile(upload.Path)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	filename := upload.OriginalName
	if filename == "" {
		filename = filepath.Base(upload.Path)
	}

	body, contentType, err := multipartBody(field, filename, data)
	if err != nil {
		return err
	}

	return c.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	}, v)
}

func multipartBody(field, filename string, data []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", mimetype.Detect(data).String())

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("write form part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}
