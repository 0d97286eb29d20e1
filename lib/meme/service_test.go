package meme

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bign8/memes/lib/domain"
	"github.com/bign8/memes/lib/reddit"
)

type fakeSource struct {
	anonymous  bool
	tokenErr   error
	listingErr error
	posts      []domain.Post

	tokens  int
	queries []reddit.Query
	seen    []string
}

func (f *fakeSource) Anonymous() bool { return f.anonymous }

func (f *fakeSource) Token(context.Context) (domain.AccessToken, error) {
	f.tokens++
	if f.tokenErr != nil {
		return domain.AccessToken{}, domain.Upstream(`token`, f.tokenErr)
	}
	return domain.AccessToken{Value: `tok`}, nil
}

func (f *fakeSource) Listing(_ context.Context, token string, q reddit.Query) ([]domain.Post, error) {
	f.queries = append(f.queries, q)
	f.seen = append(f.seen, token)
	if f.listingErr != nil {
		return nil, domain.Upstream(`listing`, f.listingErr)
	}
	return f.posts, nil
}

func TestServicePosts(t *testing.T) {
	t.Run(`authenticated`, func(t *testing.T) {
		src := &fakeSource{posts: []domain.Post{{ID: `a`}}}
		s := NewService(src, nil, Config{Query: reddit.Query{Limit: 10}})

		posts, err := s.Posts(context.Background())
		require.NoError(t, err)
		assert.Len(t, posts, 1)
		assert.Equal(t, 1, src.tokens)
		assert.Equal(t, []string{`tok`}, src.seen)
		assert.Equal(t, reddit.Query{Community: domain.Community, Sort: `hot`, Limit: 10}, src.queries[0])
		assert.Equal(t, domain.Community, s.Community())
	})

	t.Run(`anonymous`, func(t *testing.T) {
		src := &fakeSource{anonymous: true}
		s := NewService(src, nil, Config{})

		_, err := s.Posts(context.Background())
		require.NoError(t, err)
		assert.Zero(t, src.tokens)
		assert.Equal(t, []string{``}, src.seen)
	})

	t.Run(`token per call`, func(t *testing.T) {
		src := &fakeSource{}
		s := NewService(src, nil, Config{})
		for i := 0; i < 3; i++ {
			_, err := s.Posts(context.Background())
			require.NoError(t, err)
		}
		assert.Equal(t, 3, src.tokens)
	})

	t.Run(`token failure skips listing`, func(t *testing.T) {
		src := &fakeSource{tokenErr: errors.New(`401`)}
		_, err := NewService(src, nil, Config{}).Posts(context.Background())
		assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
		assert.Empty(t, src.queries)
	})
}

func TestServiceRandom(t *testing.T) {
	srv := imageServer(t)
	posts := []domain.Post{
		{ID: `png`, URL: srv.URL + `/meme.png`},
		{ID: `txt`, URL: srv.URL + `/notes.txt`},
		{ID: `mp4`, URL: srv.URL + `/clip.mp4`},
	}

	t.Run(`single candidate`, func(t *testing.T) {
		s := NewService(&fakeSource{posts: posts}, srv.Client(), Config{Format: Passthrough})
		for i := 0; i < 50; i++ {
			img, err := s.Random(context.Background())
			require.NoError(t, err)
			assert.Equal(t, `png`, img.Post.ID)
			assert.Equal(t, pngBytes(t, 8, 6), img.Body)
		}
	})

	t.Run(`injected source`, func(t *testing.T) {
		var asked []int
		intn := func(n int) int {
			asked = append(asked, n)
			return rand.IntN(n)
		}
		s := NewService(&fakeSource{posts: posts}, srv.Client(), Config{}, WithIntn(intn))
		img, err := s.Random(context.Background())
		require.NoError(t, err)
		assert.Equal(t, `image/png`, img.ContentType)
		assert.Equal(t, []int{1}, asked, `only the eligible subset is offered`)
	})

	t.Run(`no content`, func(t *testing.T) {
		s := NewService(&fakeSource{posts: posts[1:]}, srv.Client(), Config{})
		_, err := s.Random(context.Background())
		assert.Equal(t, domain.KindNoContent, domain.KindOf(err))
	})

	t.Run(`listing failure`, func(t *testing.T) {
		s := NewService(&fakeSource{listingErr: errors.New(`503`)}, srv.Client(), Config{})
		_, err := s.Random(context.Background())
		assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
	})
}
