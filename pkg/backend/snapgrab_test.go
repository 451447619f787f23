package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasarefe-official/igxdown/pkg/errors"
	"github.com/yasarefe-official/igxdown/pkg/instaurl"
	"github.com/yasarefe-official/igxdown/pkg/logger"
)

func newSnapgrabAgainst(t *testing.T, handler http.HandlerFunc) *Snapgrab {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSnapgrab(srv.URL, 5*time.Second, logger.Nop())
}

func TestSnapgrabResolvePicksVideo(t *testing.T) {
	var gotURL string
	sg := newSnapgrabAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotURL = r.PostForm.Get("url")
		w.Write([]byte(`{"success":true,"data":{"media":[
			{"url":"https://cdn.example/cover.jpg","type":"image"},
			{"url":"https://cdn.example/clip.mp4","type":"video","resolution":"720p"}
		]}}`))
	})

	ref, err := sg.Resolve(context.Background(), &instaurl.Post{Kind: instaurl.KindPost, Shortcode: "Babc"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/clip.mp4", ref.URL)
	assert.Equal(t, "https://www.instagram.com/p/Babc/", gotURL)
}

func TestSnapgrabResolveFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    errors.Kind
	}{
		{
			"throttled",
			func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) },
			errors.KindRateLimited,
		},
		{
			"server error",
			func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			errors.KindUnknown,
		},
		{
			"private account",
			func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success":false,"message":"This account is private"}`))
			},
			errors.KindPrivateContent,
		},
		{
			"login demanded",
			func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success":false,"message":"Login required to view this post"}`))
			},
			errors.KindLoginRequired,
		},
		{
			"generic failure",
			func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success":false,"message":"Could not process link"}`))
			},
			errors.KindUnsupported,
		},
		{
			"images only",
			func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success":true,"data":{"media":[{"url":"https://cdn.example/a.jpg","type":"image"}]}}`))
			},
			errors.KindUnsupported,
		},
		{
			"garbage payload",
			func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`<busy>`)) },
			errors.KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sg := newSnapgrabAgainst(t, tt.handler)
			ref, err := sg.Resolve(context.Background(), reelPost())
			assert.Nil(t, ref)
			require.Error(t, err)
			assert.Equal(t, tt.want, errors.KindOf(err))
		})
	}
}

func TestSnapgrabResolveTimeout(t *testing.T) {
	sg := newSnapgrabAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := sg.Resolve(ctx, reelPost())
	require.Error(t, err)
	assert.Equal(t, errors.KindTimeout, errors.KindOf(err))
}
