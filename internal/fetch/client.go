package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Failure classes surfaced to the orchestrator.
var (
	ErrNotFound      = errors.New("source file not found")
	ErrUnauthorized  = errors.New("source repository access denied")
	ErrInvalidFormat = errors.New("downloaded file is empty")
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Artifact is the locally fetched source file. Path points at a
// run-scoped temp file the caller is responsible for removing on every
// exit path.
type Artifact struct {
	Path string
	Name string
	Data []byte
}

// Client downloads one raw file from a version-control host.
type Client struct {
	rawBase  string
	orgRepo  string
	filePath string
	branch   string
	token    string
	http     *http.Client
	logger   *zap.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithRawBaseURL overrides the raw-file host, for tests and self-hosted
// forges.
func WithRawBaseURL(base string) Option {
	return func(c *Client) {
		if strings.TrimSpace(base) != "" {
			c.rawBase = strings.TrimRight(base, "/")
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// NewClient creates a downloader for filePath on branch of repoURL.
func NewClient(repoURL, filePath, branch, token string, logger *zap.Logger, opts ...Option) (*Client, error) {
	if !strings.HasPrefix(repoURL, "https://github.com/") {
		return nil, fmt.Errorf("repository url must start with https://github.com/, got %q", repoURL)
	}
	parts := strings.Split(strings.TrimRight(repoURL, "/"), "/")
	if len(parts) < 2 {
		return nil, fmt.Errorf("repository url %q has no org/repo segments", repoURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := &Client{
		rawBase:  "https://raw.githubusercontent.com",
		orgRepo:  parts[len(parts)-2] + "/" + parts[len(parts)-1],
		filePath: strings.TrimLeft(filePath, "/"),
		branch:   branch,
		token:    token,
		http:     &http.Client{Timeout: 60 * time.Second},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Fetch downloads the file and writes it to a run-scoped temp file.
func (c *Client) Fetch(ctx context.Context) (Artifact, error) {
	url := fmt.Sprintf("%s/%s/%s/%s", c.rawBase, c.orgRepo, c.branch, c.filePath)
	c.logger.Info("downloading source artifact", zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to build download request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to download source artifact: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Artifact{}, fmt.Errorf("%w: %s", ErrNotFound, url)
	case http.StatusUnauthorized, http.StatusForbidden:
		return Artifact{}, fmt.Errorf("%w: %s", ErrUnauthorized, url)
	default:
		return Artifact{}, fmt.Errorf("unexpected status %d downloading %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to read download body: %w", err)
	}
	if len(data) == 0 {
		return Artifact{}, fmt.Errorf("%w: %s", ErrInvalidFormat, url)
	}

	ext := strings.ToLower(filepath.Ext(c.filePath))
	if (ext == ".xlsx" || ext == ".xlsm") && !strings.Contains(resp.Header.Get("Content-Type"), xlsxContentType) {
		c.logger.Warn("downloaded file does not look like a spreadsheet",
			zap.String("content_type", resp.Header.Get("Content-Type")))
	}

	tmp, err := os.CreateTemp("", "rulesync-*"+ext)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return Artifact{}, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return Artifact{}, fmt.Errorf("failed to close temp file: %w", err)
	}

	c.logger.Info("source artifact saved",
		zap.String("path", tmp.Name()),
		zap.Int("size_bytes", len(data)))

	return Artifact{Path: tmp.Name(), Name: filepath.Base(c.filePath), Data: data}, nil
}
