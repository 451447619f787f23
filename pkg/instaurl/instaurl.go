// Package instaurl reduces user-supplied Instagram content links to one
// canonical form for downstream processing.
package instaurl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yasarefe-official/igxdown/pkg/errors"
)

// Kind is the Instagram content path segment
type Kind string

const (
	KindPost Kind = "p"
	KindReel Kind = "reel"
	KindTV   Kind = "tv"
)

// contentRe matches an Instagram content URL anywhere in arbitrary text.
// The first match wins when a message carries several links.
var contentRe = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?instagram\.com/(p|reel|reels|tv)/([A-Za-z0-9_-]+)`)

// Post identifies a single Instagram post, reel or IGTV entry
type Post struct {
	Kind      Kind
	Shortcode string
}

// URL returns the canonical form of the post URL.
func (p *Post) URL() string {
	return fmt.Sprintf("https://www.instagram.com/%s/%s/", p.Kind, p.Shortcode)
}

// Parse finds the first recognizable Instagram content URL in text and
// reduces it to a Post. A rejection is a classified KindInvalidURL error,
// not an exception: the caller replies with a usage hint and must make
// zero backend calls.
func Parse(text string) (*Post, error) {
	m := contentRe.FindStringSubmatch(text)
	if m == nil {
		return nil, errors.E(errors.KindInvalidURL, "no instagram content url in message")
	}

	kind := Kind(strings.ToLower(m[1]))
	if kind == "reels" {
		kind = KindReel
	}

	return &Post{Kind: kind, Shortcode: m[2]}, nil
}
