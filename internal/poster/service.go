package poster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultThreadDelay is the pause between consecutive thread items.
const DefaultThreadDelay = time.Second

const tracerName = "github.com/flemzord/tweetcron/internal/poster"

// Option configures a Poster.
type Option func(*Poster)

// WithThreadDelay overrides DefaultThreadDelay. Zero disables the pause.
func WithThreadDelay(d time.Duration) Option {
	return func(p *Poster) { p.delay = d }
}

// WithTracer sets the tracer used for call spans.
func WithTracer(t trace.Tracer) Option {
	return func(p *Poster) { p.tracer = t }
}

// WithMetrics records call counts and latencies in m.
func WithMetrics(m *Metrics) Option {
	return func(p *Poster) { p.metrics = m }
}

// Poster is the posting service used by the HTTP handlers and the tweet
// scheduler. It is safe for concurrent use.
type Poster struct {
	client  Client
	delay   time.Duration
	tracer  trace.Tracer
	metrics *Metrics
	sleep   func(ctx context.Context, d time.Duration) error
}

// New creates a Poster over client.
func New(client Client, opts ...Option) *Poster {
	p := &Poster{
		client: client,
		delay:  DefaultThreadDelay,
		tracer: otel.Tracer(tracerName),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PostOne validates content and posts it.
func (p *Poster) PostOne(ctx context.Context, accessToken, content string) (tw Tweet, err error) {
	ctx, end := p.span(ctx, "PostOne", attribute.Int("tweet.length", len([]rune(content))))
	defer func() { end(err) }()

	if err := ValidateContent(content); err != nil {
		return Tweet{}, err
	}
	return p.client.CreateTweet(ctx, accessToken, CreateRequest{Text: content})
}

// PostThread posts contents in order, each as a reply to the previous one,
// pausing between posts. Every item is validated before the first post. On
// failure the items already posted are returned together with a
// *ThreadError naming the failing item; nothing is rolled back.
func (p *Poster) PostThread(ctx context.Context, accessToken string, contents []string) (res ThreadResult, err error) {
	ctx, end := p.span(ctx, "PostThread", attribute.Int("thread.items", len(contents)))
	defer func() { end(err) }()

	if len(contents) == 0 {
		return ThreadResult{}, ErrEmptyThread
	}
	for i, c := range contents {
		if err := ValidateContent(c); err != nil {
			return ThreadResult{}, &ThreadError{Index: i + 1, Err: err}
		}
	}

	var replyTo string
	for i, c := range contents {
		if i > 0 && p.delay > 0 {
			if err := p.sleep(ctx, p.delay); err != nil {
				return res, &ThreadError{Index: i + 1, Err: err}
			}
		}
		tw, err := p.client.CreateTweet(ctx, accessToken, CreateRequest{Text: c, ReplyTo: replyTo})
		if err != nil {
			return res, &ThreadError{Index: i + 1, Err: err}
		}
		res.Posted = append(res.Posted, tw)
		replyTo = tw.ID
	}
	return res, nil
}

// PostWithMedia uploads media and then posts content referencing it. An
// upload failure returns before anything is posted.
func (p *Poster) PostWithMedia(ctx context.Context, accessToken, content string, media MediaRef) (tw Tweet, err error) {
	ctx, end := p.span(ctx, "PostWithMedia",
		attribute.Int("tweet.length", len([]rune(content))),
		attribute.String("media.type", media.MimeType),
		attribute.Int("media.bytes", len(media.Data)),
	)
	defer func() { end(err) }()

	if err := ValidateContent(content); err != nil {
		return Tweet{}, err
	}
	mediaID, err := p.client.UploadMedia(ctx, accessToken, media)
	if err != nil {
		return Tweet{}, fmt.Errorf("uploading media: %w", err)
	}
	return p.client.CreateTweet(ctx, accessToken, CreateRequest{Text: content, MediaIDs: []string{mediaID}})
}

// Me returns the account the access token belongs to.
func (p *Poster) Me(ctx context.Context, accessToken string) (id Identity, err error) {
	ctx, end := p.span(ctx, "Me")
	defer func() { end(err) }()
	return p.client.Me(ctx, accessToken)
}

// Refresh exchanges refreshToken for a new token pair.
func (p *Poster) Refresh(ctx context.Context, refreshToken string) (pair TokenPair, err error) {
	ctx, end := p.span(ctx, "Refresh")
	defer func() { end(err) }()

	if refreshToken == "" {
		return TokenPair{}, ErrNoRefreshToken
	}
	return p.client.RefreshToken(ctx, refreshToken)
}

// span starts a span for op and returns a func that ends it and records the
// outcome in the span and in metrics.
func (p *Poster) span(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, sp := p.tracer.Start(ctx, "poster."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			sp.RecordError(err)
			sp.SetStatus(codes.Error, err.Error())
			var te *ThreadError
			if errors.As(err, &te) {
				sp.SetAttributes(attribute.Int("thread.failed_item", te.Index))
			}
		}
		sp.End()
		p.metrics.observe(op, start, err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
