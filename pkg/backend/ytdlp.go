package backend

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/yasarefe-official/igxdown/pkg/errors"
	"github.com/yasarefe-official/igxdown/pkg/instaurl"
	"github.com/yasarefe-official/igxdown/pkg/logger"
)

// YtDlp resolves posts by shelling out to the yt-dlp binary in URL-print
// mode. The subprocess inherits the attempt context, so a per-backend
// timeout kills a hung extractor.
type YtDlp struct {
	binPath string
	logger  logger.Logger
}

// NewYtDlp creates the subprocess adapter. It fails when the binary is
// not on PATH so the backend can be skipped at startup instead of
// failing every request.
func NewYtDlp(binPath string, log logger.Logger) (*YtDlp, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if binPath == "" {
		binPath = "yt-dlp"
	}
	resolved, err := exec.LookPath(binPath)
	if err != nil {
		return nil, err
	}
	return &YtDlp{binPath: resolved, logger: log}, nil
}

func (y *YtDlp) Name() string { return "ytdlp" }

// Resolve asks yt-dlp for the direct media URL without downloading
func (y *YtDlp) Resolve(ctx context.Context, post *instaurl.Post) (*MediaRef, error) {
	cmd := exec.CommandContext(ctx, y.binPath,
		"--no-playlist",
		"--no-warnings",
		"-f", "mp4/best",
		"-g", post.URL(),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.FromBackend(y.Name(), errors.KindTimeout, 0, "yt-dlp killed by timeout")
		}
		return nil, y.classify(stderr.String(), err)
	}

	mediaURL := firstLine(stdout.String())
	if mediaURL == "" {
		return nil, errors.FromBackend(y.Name(), errors.KindUnsupported, 0, "yt-dlp printed no media url")
	}
	return &MediaRef{URL: mediaURL}, nil
}

// classify converts yt-dlp's stderr into typed failure kinds. This is
// the adapter boundary: the string inspection never leaks past it.
func (y *YtDlp) classify(stderr string, err error) error {
	y.logger.WithFields(map[string]interface{}{
		"stderr": truncate(stderr, 400),
	}).Debug("yt-dlp failed")

	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "login required"), strings.Contains(lower, "--cookies"):
		return errors.FromBackend(y.Name(), errors.KindLoginRequired, 0, "yt-dlp requires authentication")
	case strings.Contains(lower, "private"):
		return errors.FromBackend(y.Name(), errors.KindPrivateContent, 0, "yt-dlp reports private content")
	case strings.Contains(lower, "rate-limit"), strings.Contains(lower, "429"):
		return errors.FromBackend(y.Name(), errors.KindRateLimited, 0, "yt-dlp throttled by upstream")
	case strings.Contains(lower, "unsupported url"), strings.Contains(lower, "unable to extract"), strings.Contains(lower, "404"):
		return errors.FromBackend(y.Name(), errors.KindUnsupported, 0, "yt-dlp cannot extract this url")
	default:
		return errors.FromBackend(y.Name(), errors.KindUnknown, 0, "yt-dlp failed: %v", err)
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
