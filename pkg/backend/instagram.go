package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yasarefe-official/igxdown/pkg/errors"
	"github.com/yasarefe-official/igxdown/pkg/instaurl"
	"github.com/yasarefe-official/igxdown/pkg/logger"
	"github.com/yasarefe-official/igxdown/pkg/session"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// Instagram resolves posts through Instagram's own post-info JSON
// endpoint, authenticated with the stored session cookies. Without a
// session it still works for public posts, the way anonymous
// instaloader runs did.
type Instagram struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	logger     logger.Logger
}

// postInfo is the subset of the post-info payload the adapter reads.
// Newer responses carry items[].video_versions, older ones nest the
// video URL under graphql.shortcode_media.
type postInfo struct {
	RequiresToLogin bool `json:"requires_to_login"`
	Items           []struct {
		MediaType     int `json:"media_type"`
		VideoVersions []struct {
			URL    string `json:"url"`
			Width  int    `json:"width"`
			Height int    `json:"height"`
		} `json:"video_versions"`
		VideoDuration float64 `json:"video_duration"`
	} `json:"items"`
	Graphql struct {
		ShortcodeMedia struct {
			IsVideo  bool   `json:"is_video"`
			VideoURL string `json:"video_url"`
		} `json:"shortcode_media"`
	} `json:"graphql"`
}

// NewInstagram creates the authenticated scrape adapter. account may be
// nil for anonymous access.
func NewInstagram(timeout time.Duration, account *session.Account, log logger.Logger) *Instagram {
	if log == nil {
		log = logger.GetLogger()
	}

	headers := map[string]string{
		"User-Agent":      defaultUserAgent,
		"Accept":          "*/*",
		"Accept-Language": "en-US,en;q=0.9",
		"X-IG-App-ID":     "936619743392459",
	}

	if account != nil {
		var cookies []string
		if account.SessionID != "" {
			cookies = append(cookies, "sessionid="+account.SessionID)
		}
		if account.CSRFToken != "" {
			cookies = append(cookies, "csrftoken="+account.CSRFToken)
			headers["X-CSRFToken"] = account.CSRFToken
		}
		if len(cookies) > 0 {
			headers["Cookie"] = strings.Join(cookies, "; ")
		}
		if account.UserAgent != "" {
			headers["User-Agent"] = account.UserAgent
		}
	}

	return &Instagram{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://www.instagram.com",
		headers:    headers,
		logger:     log,
	}
}

// SetBaseURL overrides the endpoint base. Used by tests.
func (ig *Instagram) SetBaseURL(base string) {
	ig.baseURL = strings.TrimSuffix(base, "/")
}

func (ig *Instagram) Name() string { return "instagram" }

// Resolve fetches the post-info JSON and extracts the direct video URL
func (ig *Instagram) Resolve(ctx context.Context, post *instaurl.Post) (*MediaRef, error) {
	url := fmt.Sprintf("%s/%s/%s/?__a=1&__d=dis", ig.baseURL, post.Kind, post.Shortcode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.FromBackend(ig.Name(), errors.KindUnknown, 0, "failed to create request: %v", err)
	}
	for key, value := range ig.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := ig.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.FromBackend(ig.Name(), errors.KindTimeout, 0, "request aborted: %v", err)
		}
		return nil, errors.FromBackend(ig.Name(), errors.KindUnknown, 0, "network error: %v", err)
	}
	defer resp.Body.Close()

	ig.logger.WithFields(map[string]interface{}{
		"shortcode": post.Shortcode,
		"status":    resp.StatusCode,
		"duration":  time.Since(start),
	}).Debug("instagram post-info request completed")

	if resp.StatusCode != http.StatusOK {
		kind := errors.KindForStatus(resp.StatusCode)
		return nil, errors.FromBackend(ig.Name(), kind, resp.StatusCode, "post-info returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, errors.FromBackend(ig.Name(), errors.KindUnknown, resp.StatusCode, "failed to read response: %v", err)
	}

	var info postInfo
	if err := json.Unmarshal(body, &info); err != nil {
		// Instagram answers the login wall with an HTML page
		if strings.Contains(string(body[:min(len(body), 512)]), "<html") {
			return nil, errors.FromBackend(ig.Name(), errors.KindLoginRequired, resp.StatusCode, "login wall instead of JSON")
		}
		return nil, errors.FromBackend(ig.Name(), errors.KindUnsupported, resp.StatusCode, "unparseable post-info payload: %v", err)
	}

	if info.RequiresToLogin {
		return nil, errors.FromBackend(ig.Name(), errors.KindLoginRequired, resp.StatusCode, "post requires authentication")
	}

	if len(info.Items) > 0 {
		item := info.Items[0]
		if len(item.VideoVersions) == 0 {
			return nil, errors.FromBackend(ig.Name(), errors.KindUnsupported, resp.StatusCode, "post has no video versions")
		}
		// video_versions come highest quality first
		return &MediaRef{URL: item.VideoVersions[0].URL}, nil
	}

	if media := info.Graphql.ShortcodeMedia; media.VideoURL != "" {
		if !media.IsVideo {
			return nil, errors.FromBackend(ig.Name(), errors.KindUnsupported, resp.StatusCode, "post is not a video")
		}
		return &MediaRef{URL: media.VideoURL}, nil
	}

	return nil, errors.FromBackend(ig.Name(), errors.KindPrivateContent, resp.StatusCode, "empty post-info payload, post likely private")
}
