package fetch

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasarefe-official/igxdown/pkg/errors"
	"github.com/yasarefe-official/igxdown/pkg/logger"
)

func newFetcherAgainst(t *testing.T, handler http.HandlerFunc, maxSize int64) (*Fetcher, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	f := New(t.TempDir(), maxSize, 64, 5*time.Second, logger.Nop())
	return f, srv.URL
}

func videoHandler(payload []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write(payload)
	}
}

func TestProbeHead(t *testing.T) {
	payload := bytes.Repeat([]byte("v"), 2048)
	f, url := newFetcherAgainst(t, videoHandler(payload), 1<<20)

	result, err := f.Probe(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), result.ContentLength)
	assert.Equal(t, "video/mp4", result.ContentType)
}

func TestProbeFallsBackToRangedGet(t *testing.T) {
	payload := bytes.Repeat([]byte("v"), 4096)
	f, url := newFetcherAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
		if r.Header.Get("Range") != "" {
			w.Header().Set("Content-Range", "bytes 0-1023/4096")
			w.WriteHeader(http.StatusPartialContent)
			w.Write(payload[:1024])
			return
		}
		w.Write(payload)
	}, 1<<20)

	result, err := f.Probe(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, int64(4096), result.ContentLength)
}

func TestProbeRejectsNonVideo(t *testing.T) {
	f, url := newFetcherAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(strings.Repeat("<html>", 100)))
	}, 1<<20)

	_, err := f.Probe(context.Background(), url)
	require.Error(t, err)
	assert.Equal(t, errors.KindUnsupported, errors.KindOf(err))
}

func TestProbeRejectsOversizedDeclaration(t *testing.T) {
	payload := bytes.Repeat([]byte("v"), 2048)
	f, url := newFetcherAgainst(t, videoHandler(payload), 1024)

	_, err := f.Probe(context.Background(), url)
	require.Error(t, err)
	assert.Equal(t, errors.KindFileTooLarge, errors.KindOf(err))
}

func TestFetchWritesTempFile(t *testing.T) {
	payload := bytes.Repeat([]byte("v"), 8192)
	f, url := newFetcherAgainst(t, videoHandler(payload), 1<<20)

	path, err := f.Fetch(context.Background(), url)
	require.NoError(t, err)
	defer os.Remove(path)

	assert.Contains(t, path, "igxdown-")
	assert.True(t, strings.HasSuffix(path, ".mp4"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestFetchEnforcesCeiling(t *testing.T) {
	payload := bytes.Repeat([]byte("v"), 4096)
	f, url := newFetcherAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		// no Content-Length, the stream itself must trip the ceiling
		w.Header().Set("Content-Type", "video/mp4")
		flusher := w.(http.Flusher)
		w.Write(payload[:1024])
		flusher.Flush()
		w.Write(payload[1024:])
	}, 2048)

	path, err := f.Fetch(context.Background(), url)
	require.Error(t, err)
	assert.Empty(t, path)
	assert.Equal(t, errors.KindFileTooLarge, errors.KindOf(err))

	entries, err := os.ReadDir(f.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "partial file must be removed")
}

func TestFetchExactCeilingPasses(t *testing.T) {
	payload := bytes.Repeat([]byte("v"), 2048)
	f, url := newFetcherAgainst(t, videoHandler(payload), 2048)

	path, err := f.Fetch(context.Background(), url)
	require.NoError(t, err)
	defer os.Remove(path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2048), info.Size())
}

func TestFetchEmptyBody(t *testing.T) {
	f, url := newFetcherAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
	}, 1<<20)

	_, err := f.Fetch(context.Background(), url)
	require.Error(t, err)
	assert.Equal(t, errors.KindUnsupported, errors.KindOf(err))
}

func TestFetchNotFound(t *testing.T) {
	f, url := newFetcherAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, 1<<20)

	_, err := f.Fetch(context.Background(), url)
	require.Error(t, err)
	assert.Equal(t, errors.KindUnsupported, errors.KindOf(err))
}
