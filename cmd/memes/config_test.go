package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bign8/memes/lib/domain"
	"github.com/bign8/memes/lib/meme"
)

func TestLoadConfig(t *testing.T) {
	t.Run(`defaults`, func(t *testing.T) {
		for _, name := range []string{`REDDIT_CLIENT_ID`, `REDDIT_CLIENT_SECRET`, `REDDIT_USER_AGENT`, `MEME_SUBREDDIT`,
			`MEME_SORT`, `MEME_LIMIT`, `MEME_OUTPUT_FORMAT`, `MEME_MAX_IMAGE_BYTES`, `MEME_MAX_IMAGE_PIXELS`,
			`UPSTREAM_TIMEOUT`, `MEMES_ADDR`, `TRACING`} {
			t.Setenv(name, ``) // empty, as a bare `KEY=` line in .env leaves it
		}

		cfg, err := loadConfig()
		require.NoError(t, err)
		assert.Equal(t, `[::]:5000`, cfg.Addr)
		assert.Equal(t, domain.Community, cfg.Meme.Query.Community)
		assert.Equal(t, `hot`, cfg.Meme.Query.Sort)
		assert.Equal(t, 50, cfg.Meme.Query.Limit)
		assert.Equal(t, meme.PNG, cfg.Meme.Format)
		assert.EqualValues(t, meme.DefaultMaxBytes, cfg.Meme.MaxImageBytes)
		assert.EqualValues(t, meme.DefaultMaxPixels, cfg.Meme.MaxImagePixels)
		assert.Equal(t, 30*time.Second, cfg.Timeout)
		assert.Equal(t, `memes/`+Version, cfg.Credentials.UserAgent)
		assert.False(t, cfg.Tracing)
	})

	t.Run(`overrides`, func(t *testing.T) {
		t.Setenv(`REDDIT_CLIENT_ID`, `id`)
		t.Setenv(`REDDIT_CLIENT_SECRET`, `secret`)
		t.Setenv(`REDDIT_USER_AGENT`, `memes/1.0 by u/someone`)
		t.Setenv(`MEME_SUBREDDIT`, `golang`)
		t.Setenv(`MEME_SORT`, `top`)
		t.Setenv(`MEME_LIMIT`, `10`)
		t.Setenv(`MEME_OUTPUT_FORMAT`, `passthrough`)
		t.Setenv(`UPSTREAM_TIMEOUT`, `2s`)
		t.Setenv(`TRACING`, `on`)

		cfg, err := loadConfig()
		require.NoError(t, err)
		assert.Equal(t, `id`, cfg.Credentials.ClientID)
		assert.Equal(t, `secret`, cfg.Credentials.ClientSecret)
		assert.Equal(t, `memes/1.0 by u/someone`, cfg.Credentials.UserAgent)
		assert.Equal(t, `golang`, cfg.Meme.Query.Community)
		assert.Equal(t, `top`, cfg.Meme.Query.Sort)
		assert.Equal(t, 10, cfg.Meme.Query.Limit)
		assert.Equal(t, meme.Passthrough, cfg.Meme.Format)
		assert.Equal(t, 2*time.Second, cfg.Timeout)
		assert.True(t, cfg.Tracing)
	})

	t.Run(`invalid`, func(t *testing.T) {
		t.Setenv(`MEME_OUTPUT_FORMAT`, `webp`)
		_, err := loadConfig()
		assert.ErrorContains(t, err, `MEME_OUTPUT_FORMAT`)

		t.Setenv(`MEME_OUTPUT_FORMAT`, `png`)
		for _, sort := range []string{`controversial`, `rising`} {
			t.Setenv(`MEME_SORT`, sort)
			_, err = loadConfig()
			assert.ErrorContains(t, err, `MEME_SORT`, sort)
		}

		t.Setenv(`MEME_SORT`, `hot`)
		t.Setenv(`REDDIT_CLIENT_ID`, `id`)
		t.Setenv(`REDDIT_CLIENT_SECRET`, ``)
		_, err = loadConfig()
		assert.ErrorContains(t, err, `REDDIT_CLIENT_SECRET`)
	})
}
