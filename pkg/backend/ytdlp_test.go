package backend

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yasarefe-official/igxdown/pkg/errors"
	"github.com/yasarefe-official/igxdown/pkg/logger"
)

func TestYtDlpClassify(t *testing.T) {
	y := &YtDlp{binPath: "yt-dlp", logger: logger.Nop()}
	runErr := fmt.Errorf("exit status 1")

	tests := []struct {
		name   string
		stderr string
		want   errors.Kind
	}{
		{
			"login wall",
			"ERROR: [Instagram] Cxyz: login required, use --cookies or --cookies-from-browser",
			errors.KindLoginRequired,
		},
		{
			"private post",
			"ERROR: [Instagram] Cxyz: This post is private",
			errors.KindPrivateContent,
		},
		{
			"throttled",
			"ERROR: HTTP Error 429: Too Many Requests",
			errors.KindRateLimited,
		},
		{
			"unsupported",
			"ERROR: Unsupported URL: https://www.instagram.com/p/Cxyz/",
			errors.KindUnsupported,
		},
		{
			"extraction failure",
			"ERROR: [Instagram] Cxyz: Unable to extract video info",
			errors.KindUnsupported,
		},
		{
			"anything else",
			"ERROR: something exploded",
			errors.KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := y.classify(tt.stderr, runErr)
			assert.Equal(t, tt.want, errors.KindOf(err))
		})
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "https://cdn.example/a.mp4", firstLine("https://cdn.example/a.mp4\nhttps://cdn.example/b.mp4\n"))
	assert.Equal(t, "abc", firstLine("  abc  "))
	assert.Equal(t, "", firstLine("\n\n"))
}

func TestNewYtDlpMissingBinary(t *testing.T) {
	_, err := NewYtDlp("definitely-not-a-real-binary-igx", logger.Nop())
	assert.Error(t, err)
}
