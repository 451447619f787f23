package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yasarefe-official/igxdown/pkg/errors"
	"github.com/yasarefe-official/igxdown/pkg/instaurl"
	"github.com/yasarefe-official/igxdown/pkg/logger"
)

// Snapgrab resolves posts through a third-party "unlocker" HTTP API of
// the snapsave family: a form POST with the post URL answered by a JSON
// document listing direct media URLs.
type Snapgrab struct {
	httpClient *http.Client
	endpoint   string
	logger     logger.Logger
}

type snapgrabResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Description string `json:"description,omitempty"`
		Media       []struct {
			URL        string `json:"url"`
			Type       string `json:"type"`
			Resolution string `json:"resolution,omitempty"`
		} `json:"media"`
	} `json:"data"`
	Message string `json:"message,omitempty"`
}

// NewSnapgrab creates the unlocker API adapter
func NewSnapgrab(endpoint string, timeout time.Duration, log logger.Logger) *Snapgrab {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Snapgrab{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		logger:     log,
	}
}

func (s *Snapgrab) Name() string { return "snapgrab" }

// Resolve posts the canonical URL to the unlocker API and picks the
// first video entry from the answer
func (s *Snapgrab) Resolve(ctx context.Context, post *instaurl.Post) (*MediaRef, error) {
	form := url.Values{"url": {post.URL()}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.FromBackend(s.Name(), errors.KindUnknown, 0, "failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.FromBackend(s.Name(), errors.KindTimeout, 0, "request aborted: %v", err)
		}
		return nil, errors.FromBackend(s.Name(), errors.KindUnknown, 0, "network error: %v", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.FromBackend(s.Name(), errors.KindRateLimited, resp.StatusCode, "unlocker service throttled the request")
	case resp.StatusCode != http.StatusOK:
		return nil, errors.FromBackend(s.Name(), errors.KindUnknown, resp.StatusCode, "unlocker returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.FromBackend(s.Name(), errors.KindUnknown, resp.StatusCode, "failed to read response: %v", err)
	}

	var parsed snapgrabResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.FromBackend(s.Name(), errors.KindUnknown, resp.StatusCode, "unparseable unlocker payload: %v", err)
	}

	if !parsed.Success {
		msg := parsed.Message
		if msg == "" {
			msg = "unlocker reported failure"
		}
		lower := strings.ToLower(msg)
		switch {
		case strings.Contains(lower, "private"):
			return nil, errors.FromBackend(s.Name(), errors.KindPrivateContent, resp.StatusCode, "%s", msg)
		case strings.Contains(lower, "login"):
			return nil, errors.FromBackend(s.Name(), errors.KindLoginRequired, resp.StatusCode, "%s", msg)
		default:
			return nil, errors.FromBackend(s.Name(), errors.KindUnsupported, resp.StatusCode, "%s", msg)
		}
	}

	for _, media := range parsed.Data.Media {
		if media.Type == "video" && media.URL != "" {
			s.logger.WithFields(map[string]interface{}{
				"shortcode":  post.Shortcode,
				"resolution": media.Resolution,
			}).Debug("unlocker resolved video")
			return &MediaRef{URL: media.URL}, nil
		}
	}

	return nil, errors.FromBackend(s.Name(), errors.KindUnsupported, resp.StatusCode, "unlocker answer carries no video media")
}
