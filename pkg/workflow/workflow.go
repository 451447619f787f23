package workflow

import (
	"context"
	"math/rand"
	"os"
	"time"

	"github.com/yasarefe-official/igxdown/pkg/backend"
	"github.com/yasarefe-official/igxdown/pkg/errors"
	"github.com/yasarefe-official/igxdown/pkg/fetch"
	"github.com/yasarefe-official/igxdown/pkg/instaurl"
	"github.com/yasarefe-official/igxdown/pkg/logger"
	"github.com/yasarefe-official/igxdown/pkg/ratelimit"
)

// Messenger is the delivery surface the engine talks to. The bot layer
// implements it over the Telegram API, tests implement it in memory.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) (int, error)
	EditText(ctx context.Context, chatID int64, messageID int, text string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	SendVideoFile(ctx context.Context, chatID int64, path, caption string) error
	SendVideoURL(ctx context.Context, chatID int64, url, caption string) error
}

// Texts supplies the user-facing strings, localized per user
type Texts interface {
	Progress(userID int64) string
	TooFast(userID int64) string
	Failure(userID int64, kind errors.Kind) string
}

// Request is one inbound message that may carry an Instagram link
type Request struct {
	ChatID  int64
	UserID  int64
	RawText string
}

// Options tunes the attempt loop
type Options struct {
	Shuffle        bool
	BackendTimeout time.Duration
	TotalBudget    time.Duration
	SendByURL      bool
	Caption        string
}

// Engine drives a request from raw message text to a delivered video.
// Backends are tried in order, each failure is kept only if it is more
// informative than what we already have, and temp files never outlive
// the request.
type Engine struct {
	backends  []backend.Backend
	fetcher   *fetch.Fetcher
	limiter   ratelimit.Limiter
	messenger Messenger
	texts     Texts
	opts      Options
	logger    logger.Logger
}

// NewEngine wires the orchestrator. The backend slice order is the
// attempt order unless Options.Shuffle is set.
func NewEngine(backends []backend.Backend, fetcher *fetch.Fetcher, limiter ratelimit.Limiter, messenger Messenger, texts Texts, opts Options, log logger.Logger) *Engine {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.BackendTimeout <= 0 {
		opts.BackendTimeout = 60 * time.Second
	}
	if opts.TotalBudget <= 0 {
		opts.TotalBudget = 5 * time.Minute
	}
	return &Engine{
		backends:  backends,
		fetcher:   fetcher,
		limiter:   limiter,
		messenger: messenger,
		texts:     texts,
		opts:      opts,
		logger:    log,
	}
}

// Handle processes one message end to end. The returned error is the
// classified failure for the caller's logs, the user has already been
// answered either way.
func (e *Engine) Handle(ctx context.Context, req Request) error {
	if !e.limiter.Allow(req.UserID) {
		if _, err := e.messenger.SendText(ctx, req.ChatID, e.texts.TooFast(req.UserID)); err != nil {
			e.logger.WithError(err).Warn("failed to send rate-limit notice")
		}
		return errors.E(errors.KindRateLimited, "user %d is sending too fast", req.UserID)
	}

	post, err := instaurl.Parse(req.RawText)
	if err != nil {
		e.reply(ctx, req, e.texts.Failure(req.UserID, errors.KindInvalidURL))
		return err
	}

	log := e.logger.WithFields(map[string]interface{}{
		"user_id":   req.UserID,
		"shortcode": post.Shortcode,
	})
	log.Info("processing instagram link")

	progressID, err := e.messenger.SendText(ctx, req.ChatID, e.texts.Progress(req.UserID))
	if err != nil {
		log.WithError(err).Warn("failed to send progress message")
		progressID = 0
	}

	budgetCtx, cancel := context.WithTimeout(ctx, e.opts.TotalBudget)
	defer cancel()

	deliverErr := e.attempt(budgetCtx, req, post, log)

	if deliverErr == nil {
		e.clearProgress(ctx, req, progressID)
		log.Info("video delivered")
		return nil
	}

	kind := errors.KindOf(deliverErr)
	log.WithError(deliverErr).WithField("kind", string(kind)).Warn("request failed")

	text := e.texts.Failure(req.UserID, kind)
	if progressID != 0 {
		if err := e.messenger.EditText(ctx, req.ChatID, progressID, text); err != nil {
			e.reply(ctx, req, text)
		}
	} else {
		e.reply(ctx, req, text)
	}
	return deliverErr
}

// attempt walks the backend chain and delivers the first usable answer
func (e *Engine) attempt(ctx context.Context, req Request, post *instaurl.Post, log logger.Logger) error {
	order := e.order()

	var best error
	for _, b := range order {
		if ctx.Err() != nil {
			return e.exhausted(best, errors.E(errors.KindTimeout, "total budget exhausted"))
		}

		ref, err := e.resolve(ctx, b, post)
		if err != nil {
			log.WithError(err).WithField("backend", b.Name()).Debug("backend attempt failed")
			best = keepMoreSpecific(best, err)
			continue
		}

		err = e.deliver(ctx, req, ref)
		if err == nil {
			return nil
		}
		if errors.Is(err, errors.KindFileTooLarge) {
			// every backend serves the same file, retrying cannot shrink it
			return err
		}
		log.WithError(err).WithField("backend", b.Name()).Debug("delivery attempt failed")
		best = keepMoreSpecific(best, err)
	}

	return e.exhausted(best, nil)
}

func (e *Engine) resolve(ctx context.Context, b backend.Backend, post *instaurl.Post) (*backend.MediaRef, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.opts.BackendTimeout)
	defer cancel()
	return b.Resolve(attemptCtx, post)
}

// deliver validates the resolved URL and hands the video to the user,
// either by URL or as an uploaded temp file
func (e *Engine) deliver(ctx context.Context, req Request, ref *backend.MediaRef) error {
	if _, err := e.fetcher.Probe(ctx, ref.URL); err != nil {
		return err
	}

	if e.opts.SendByURL {
		if err := e.messenger.SendVideoURL(ctx, req.ChatID, ref.URL, e.opts.Caption); err == nil {
			return nil
		}
		// Telegram could not ingest the URL itself, upload instead
	}

	path, err := e.fetcher.Fetch(ctx, ref.URL)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	if err := e.messenger.SendVideoFile(ctx, req.ChatID, path, e.opts.Caption); err != nil {
		return errors.E(errors.KindUnknown, "failed to send video: %v", err)
	}
	return nil
}

// order returns the attempt order, a fresh shuffled copy when enabled
func (e *Engine) order() []backend.Backend {
	if !e.opts.Shuffle || len(e.backends) < 2 {
		return e.backends
	}
	shuffled := make([]backend.Backend, len(e.backends))
	copy(shuffled, e.backends)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// exhausted folds the retained failure into the terminal error. A
// specific failure beats the generic exhaustion message, unclassified
// noise does not.
func (e *Engine) exhausted(best, fallback error) error {
	if best != nil && errors.Specificity(errors.KindOf(best)) > 0 {
		return best
	}
	if fallback != nil {
		return fallback
	}
	return errors.E(errors.KindExhausted, "all backends failed")
}

// keepMoreSpecific retains whichever failure tells the user more
func keepMoreSpecific(current, candidate error) error {
	if current == nil {
		return candidate
	}
	if errors.Specificity(errors.KindOf(candidate)) > errors.Specificity(errors.KindOf(current)) {
		return candidate
	}
	return current
}

func (e *Engine) reply(ctx context.Context, req Request, text string) {
	if _, err := e.messenger.SendText(ctx, req.ChatID, text); err != nil {
		e.logger.WithError(err).Warn("failed to send reply")
	}
}

func (e *Engine) clearProgress(ctx context.Context, req Request, progressID int) {
	if progressID == 0 {
		return
	}
	if err := e.messenger.DeleteMessage(ctx, req.ChatID, progressID); err != nil {
		e.logger.WithError(err).Debug("failed to delete progress message")
	}
}
