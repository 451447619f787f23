package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yasarefe-official/igxdown/pkg/errors"
	"github.com/yasarefe-official/igxdown/pkg/logger"
)

// Fetcher validates resolved media URLs and streams them to temporary
// files under a configurable size ceiling. A backend answer is only
// trusted after the probe confirms it actually serves video bytes.
type Fetcher struct {
	httpClient *http.Client
	tempDir    string
	maxSize    int64
	minProbe   int64
	logger     logger.Logger
}

// ProbeResult describes what the remote endpoint claims about the media
type ProbeResult struct {
	ContentLength int64
	ContentType   string
}

// New creates a Fetcher. tempDir empty means os.TempDir(), maxSize and
// minProbe of zero fall back to sensible defaults.
func New(tempDir string, maxSize, minProbe int64, timeout time.Duration, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if maxSize <= 0 {
		maxSize = 50 << 20
	}
	if minProbe <= 0 {
		minProbe = 1024
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		tempDir:    tempDir,
		maxSize:    maxSize,
		minProbe:   minProbe,
		logger:     log,
	}
}

// MaxSize reports the configured size ceiling in bytes
func (f *Fetcher) MaxSize() int64 { return f.maxSize }

// Probe checks that url serves video content without downloading it.
// It tries HEAD first and falls back to a small ranged GET, since many
// CDNs answer HEAD with 403 or strip the headers the check needs.
func (f *Fetcher) Probe(ctx context.Context, url string) (*ProbeResult, error) {
	result, err := f.probeHead(ctx, url)
	if err == nil {
		return result, nil
	}
	f.logger.WithError(err).Debug("head probe failed, retrying with ranged get")
	return f.probeRange(ctx, url)
}

func (f *Fetcher) probeHead(ctx context.Context, url string) (*ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("head returned status %d", resp.StatusCode)
	}

	result := &ProbeResult{
		ContentLength: resp.ContentLength,
		ContentType:   resp.Header.Get("Content-Type"),
	}
	if err := f.check(result); err != nil {
		return nil, err
	}
	return result, nil
}

func (f *Fetcher) probeRange(ctx context.Context, url string) (*ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.E(errors.KindUnknown, "failed to create probe request: %v", err)
	}
	req.Header.Set("Range", "bytes=0-1023")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.E(errors.KindTimeout, "probe aborted: %v", err)
		}
		return nil, errors.E(errors.KindUnknown, "probe failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, errors.E(errors.KindForStatus(resp.StatusCode), "probe returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.minProbe))
	if err != nil {
		return nil, errors.E(errors.KindUnknown, "failed to read probe body: %v", err)
	}
	if int64(len(body)) < min(f.minProbe, 64) {
		return nil, errors.E(errors.KindUnsupported, "media url serves only %d bytes", len(body))
	}

	length := resp.ContentLength
	if resp.StatusCode == http.StatusPartialContent {
		length = parseRangeTotal(resp.Header.Get("Content-Range"))
	}

	result := &ProbeResult{
		ContentLength: length,
		ContentType:   resp.Header.Get("Content-Type"),
	}
	if err := f.check(result); err != nil {
		return nil, err
	}
	return result, nil
}

// check enforces the media-shape invariants shared by both probe paths
func (f *Fetcher) check(result *ProbeResult) error {
	if !isVideoType(result.ContentType) {
		return errors.E(errors.KindUnsupported, "media url serves %q, not video", result.ContentType)
	}
	if result.ContentLength > f.maxSize {
		return errors.E(errors.KindFileTooLarge, "media is %d bytes, ceiling is %d", result.ContentLength, f.maxSize)
	}
	return nil
}

// Fetch streams the media to a fresh temp file. The returned path is
// the caller's to clean up. Any failure removes the partial file before
// returning.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.E(errors.KindUnknown, "failed to create download request: %v", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", errors.E(errors.KindTimeout, "download aborted: %v", err)
		}
		return "", errors.E(errors.KindUnknown, "download failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.E(errors.KindForStatus(resp.StatusCode), "download returned status %d", resp.StatusCode)
	}
	if resp.ContentLength > f.maxSize {
		return "", errors.E(errors.KindFileTooLarge, "media is %d bytes, ceiling is %d", resp.ContentLength, f.maxSize)
	}

	path := filepath.Join(f.tempDir, fmt.Sprintf("igxdown-%s.mp4", uuid.New().String()))
	file, err := os.Create(path)
	if err != nil {
		return "", errors.E(errors.KindUnknown, "failed to create temp file: %v", err)
	}

	start := time.Now()
	// one byte past the ceiling distinguishes "exactly max" from "too big"
	written, err := io.Copy(file, io.LimitReader(resp.Body, f.maxSize+1))
	closeErr := file.Close()

	switch {
	case err != nil:
		os.Remove(path)
		if ctx.Err() != nil {
			return "", errors.E(errors.KindTimeout, "download aborted after %d bytes", written)
		}
		return "", errors.E(errors.KindUnknown, "download interrupted: %v", err)
	case closeErr != nil:
		os.Remove(path)
		return "", errors.E(errors.KindUnknown, "failed to flush temp file: %v", closeErr)
	case written > f.maxSize:
		os.Remove(path)
		return "", errors.E(errors.KindFileTooLarge, "media exceeds the %d byte ceiling", f.maxSize)
	case written == 0:
		os.Remove(path)
		return "", errors.E(errors.KindUnsupported, "media url served no bytes")
	}

	f.logger.WithFields(map[string]interface{}{
		"bytes":    written,
		"duration": time.Since(start),
		"path":     path,
	}).Debug("media downloaded")

	return path, nil
}

func isVideoType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "video/") ||
		strings.Contains(ct, "mp4") ||
		ct == "application/octet-stream"
}

// parseRangeTotal extracts the total size from a Content-Range header
// like "bytes 0-1023/4194304". Unknown totals come back as -1.
func parseRangeTotal(header string) int64 {
	i := strings.LastIndexByte(header, '/')
	if i < 0 {
		return -1
	}
	var total int64
	if _, err := fmt.Sscanf(header[i+1:], "%d", &total); err != nil {
		return -1
	}
	return total
}
