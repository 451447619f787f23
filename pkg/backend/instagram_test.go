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
	"github.com/yasarefe-official/igxdown/pkg/session"
)

func newInstagramAgainst(t *testing.T, handler http.HandlerFunc, account *session.Account) *Instagram {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ig := NewInstagram(5*time.Second, account, logger.Nop())
	ig.SetBaseURL(srv.URL)
	return ig
}

func reelPost() *instaurl.Post {
	return &instaurl.Post{Kind: instaurl.KindReel, Shortcode: "Cxyz123"}
}

func TestInstagramResolveItems(t *testing.T) {
	var gotCookie string
	ig := newInstagramAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		assert.Equal(t, "/reel/Cxyz123/", r.URL.Path)
		w.Write([]byte(`{"items":[{"media_type":2,"video_versions":[
			{"url":"https://cdn.example/v-high.mp4","width":1080},
			{"url":"https://cdn.example/v-low.mp4","width":480}
		]}]}`))
	}, &session.Account{SessionID: "sid", CSRFToken: "csrf"})

	ref, err := ig.Resolve(context.Background(), reelPost())
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/v-high.mp4", ref.URL)
	assert.Contains(t, gotCookie, "sessionid=sid")
	assert.Contains(t, gotCookie, "csrftoken=csrf")
}

func TestInstagramResolveGraphqlFallback(t *testing.T) {
	ig := newInstagramAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"graphql":{"shortcode_media":{"is_video":true,"video_url":"https://cdn.example/old.mp4"}}}`))
	}, nil)

	ref, err := ig.Resolve(context.Background(), reelPost())
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/old.mp4", ref.URL)
}

func TestInstagramResolveFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    errors.Kind
	}{
		{
			"login wall status",
			func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) },
			errors.KindLoginRequired,
		},
		{
			"not found",
			func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
			errors.KindUnsupported,
		},
		{
			"throttled",
			func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) },
			errors.KindRateLimited,
		},
		{
			"requires_to_login flag",
			func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"requires_to_login":true}`)) },
			errors.KindLoginRequired,
		},
		{
			"html login wall",
			func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`<html><body>Log in</body></html>`)) },
			errors.KindLoginRequired,
		},
		{
			"photo post",
			func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"items":[{"media_type":1,"video_versions":[]}]}`))
			},
			errors.KindUnsupported,
		},
		{
			"empty payload",
			func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{}`)) },
			errors.KindPrivateContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ig := newInstagramAgainst(t, tt.handler, nil)
			ref, err := ig.Resolve(context.Background(), reelPost())
			assert.Nil(t, ref)
			require.Error(t, err)
			assert.Equal(t, tt.want, errors.KindOf(err))
		})
	}
}

func TestInstagramResolveTimeout(t *testing.T) {
	ig := newInstagramAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := ig.Resolve(ctx, reelPost())
	require.Error(t, err)
	assert.Equal(t, errors.KindTimeout, errors.KindOf(err))
}
