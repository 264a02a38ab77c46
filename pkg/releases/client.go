// Package releases retrieves .NET release metadata: the official release
// feed of a channel and the product commit records of daily builds.
package releases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/types"
)

const (
	DefaultReleasesBaseURL = "https://builds.dotnet.microsoft.com/dotnet/release-metadata"
	DefaultDailyBaseURL    = "https://aka.ms/dotnet"
	DefaultBuildsBaseURL   = "https://ci.dot.net/public"

	userAgent = "update-dotnet-sdk"
)

type documentKind int

const (
	jsonDocument documentKind = iota
	textDocument
)

// StatusError is returned when an upstream document is served with a non-2xx status code.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned %d %s", types.ErrUnexpectedStatus, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Unwrap() error {
	return types.ErrUnexpectedStatus
}

// IsNotFound reports whether err is a StatusError for an HTTP 404 response.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

// Client fetches release metadata. Requests are made one at a time and are not retried.
type Client struct {
	HTTPClient      *http.Client
	ReleasesBaseURL string
	DailyBaseURL    string
	BuildsBaseURL   string
}

// NewClient returns a Client for the public .NET release endpoints.
func NewClient() *Client {
	return &Client{
		HTTPClient:      &http.Client{},
		ReleasesBaseURL: DefaultReleasesBaseURL,
		DailyBaseURL:    DefaultDailyBaseURL,
		BuildsBaseURL:   DefaultBuildsBaseURL,
	}
}

// GetReleaseChannel downloads the release feed for a channel such as "8.0".
func (c *Client) GetReleaseChannel(ctx context.Context, channel string) (*ReleaseChannel, error) {
	url := fmt.Sprintf("%s/%s/releases.json", strings.TrimSuffix(c.ReleasesBaseURL, "/"), channel)
	log.Debugf("Downloading .NET %s release notes JSON from %s...", channel, url)

	body, err := c.get(ctx, url, jsonDocument)
	if err != nil {
		return nil, fmt.Errorf("failed to get releases for channel %s: %w", channel, err)
	}

	var releaseChannel ReleaseChannel
	if err := json.Unmarshal(body, &releaseChannel); err != nil {
		return nil, fmt.Errorf("failed to unmarshal releases for channel %s: %w", channel, err)
	}
	if err := releaseChannel.validate(); err != nil {
		return nil, fmt.Errorf("invalid releases for channel %s: %w", channel, err)
	}

	return &releaseChannel, nil
}

// GetLatestDaily returns the most recent build of a channel with the given quality.
func (c *Client) GetLatestDaily(ctx context.Context, channel, quality string) (*types.ReleaseInfo, error) {
	if !types.IsValidQuality(quality) {
		return nil, fmt.Errorf("%w %q specified, must be one of: %s", types.ErrInvalidQuality, quality, strings.Join(types.Qualities, ", "))
	}

	base := fmt.Sprintf("%s/%s/%s/productCommit-win-x64", strings.TrimSuffix(c.DailyBaseURL, "/"), channel, quality)
	commit, err := c.getProductCommit(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest %s build for channel %s: %w", quality, channel, err)
	}
	return commit.ToReleaseInfo(), nil
}

// GetDailyRelease returns release information for a specific unreleased SDK build.
func (c *Client) GetDailyRelease(ctx context.Context, sdkVersion string) (*types.ReleaseInfo, error) {
	base := fmt.Sprintf("%s/Sdk/%s/productCommit-win-x64", strings.TrimSuffix(c.BuildsBaseURL, "/"), sdkVersion)
	commit, err := c.getProductCommit(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("failed to get build information for .NET SDK version %s: %w", sdkVersion, err)
	}
	return commit.ToReleaseInfo(), nil
}

// getProductCommit tries the JSON record first and only falls back to the
// legacy text record when the JSON one does not exist.
func (c *Client) getProductCommit(ctx context.Context, base string) (*ProductCommit, error) {
	var record ProductCommitRecord

	body, err := c.get(ctx, base+".json", jsonDocument)
	switch {
	case err == nil:
		var structured ProductCommitJSON
		if err := json.Unmarshal(body, &structured); err != nil {
			return nil, fmt.Errorf("failed to unmarshal product commit JSON: %w", err)
		}
		record = &structured
	case IsNotFound(err):
		log.Debugf("No product commit JSON found at %s.json, falling back to text.", base)
		body, err = c.get(ctx, base+".txt", textDocument)
		if err != nil {
			return nil, err
		}
		record = ParseProductCommitText(string(body))
	default:
		return nil, err
	}

	return record.ToProductCommit()
}

func (c *Client) get(ctx context.Context, url string, kind documentKind) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	if kind == jsonDocument {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	if err := checkContentType(resp.Header.Get("Content-Type"), kind); err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", url, err)
	}
	return body, nil
}

func checkContentType(contentType string, kind documentKind) error {
	if contentType == "" {
		return nil
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("%w %q: %w", types.ErrUnexpectedContentType, contentType, err)
	}

	// Blob storage commonly serves both record shapes as text/plain or octet-stream.
	if mediaType == "application/octet-stream" || mediaType == "text/plain" {
		return nil
	}

	if kind == jsonDocument {
		if mediaType == "application/json" || mediaType == "text/json" || strings.HasSuffix(mediaType, "+json") {
			return nil
		}
	}

	return fmt.Errorf("%w %q", types.ErrUnexpectedContentType, mediaType)
}
