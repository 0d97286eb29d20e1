package meme

import (
	"context"
	"math/rand/v2"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bign8/memes/lib/domain"
	"github.com/bign8/memes/lib/reddit"
)

// Source is the upstream post provider; *reddit.Client implements it.
type Source interface {
	Anonymous() bool
	Token(ctx context.Context) (domain.AccessToken, error)
	Listing(ctx context.Context, token string, q reddit.Query) ([]domain.Post, error)
}

type Config struct {
	Query          reddit.Query
	Format         Format
	MaxImageBytes  int64
	MaxImagePixels int64
}

// Service runs token → listing → select → fetch. It holds no per-request
// state and is safe for concurrent use as long as intn is.
type Service struct {
	src     Source
	fetcher *Fetcher
	query   reddit.Query
	intn    func(int) int
}

type Option func(*Service)

// WithIntn replaces the uniform random source used for selection.
func WithIntn(intn func(int) int) Option {
	return func(s *Service) { s.intn = intn }
}

func NewService(src Source, hc *http.Client, cfg Config, opts ...Option) *Service {
	s := &Service{
		src:     src,
		fetcher: NewFetcher(hc, cfg.Format, cfg.MaxImageBytes, cfg.MaxImagePixels),
		query:   cfg.Query.Normalize(),
		intn:    rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Community that listings are drawn from.
func (s *Service) Community() string { return s.query.Community }

// Posts authenticates (unless anonymous) and lists the community.
func (s *Service) Posts(ctx context.Context) ([]domain.Post, error) {
	ctx, span := otel.Tracer(``).Start(ctx, `meme.Posts`, trace.WithAttributes(
		attribute.String(`reddit.community`, s.query.Community),
		attribute.Bool(`reddit.anonymous`, s.src.Anonymous()),
	))
	defer span.End()

	var token string
	if !s.src.Anonymous() {
		tok, err := s.src.Token(ctx)
		if err != nil {
			return nil, fail(span, err)
		}
		token = tok.Value
	}

	posts, err := s.src.Listing(ctx, token, s.query)
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.Int(`reddit.posts`, len(posts)))
	return posts, nil
}

// Choose picks one image post of posts.
func (s *Service) Choose(posts []domain.Post) (domain.Post, error) {
	return Pick(posts, s.intn)
}

// Sample picks up to k distinct image posts of posts.
func (s *Service) Sample(posts []domain.Post, k int) ([]domain.Post, error) {
	return Sample(posts, k, s.intn)
}

// Pick lists the community and selects a random image post.
func (s *Service) Pick(ctx context.Context) (domain.Post, error) {
	posts, err := s.Posts(ctx)
	if err != nil {
		return domain.Post{}, err
	}
	return s.Choose(posts)
}

// Random returns the image of a random eligible post.
func (s *Service) Random(ctx context.Context) (domain.Image, error) {
	ctx, span := otel.Tracer(``).Start(ctx, `meme.Random`)
	defer span.End()

	post, err := s.Pick(ctx)
	if err != nil {
		return domain.Image{}, fail(span, err)
	}
	span.SetAttributes(attribute.String(`meme.url`, post.URL))

	img, err := s.fetcher.Fetch(ctx, post)
	if err != nil {
		return domain.Image{}, fail(span, err)
	}
	return img, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, domain.KindOf(err).String())
	return err
}
