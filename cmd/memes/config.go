package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/bign8/memes/lib/domain"
	"github.com/bign8/memes/lib/env"
	"github.com/bign8/memes/lib/meme"
	"github.com/bign8/memes/lib/reddit"
)

// config is read once at startup and handed to constructors.
type config struct {
	Addr         string
	Credentials  reddit.Credentials
	Meme         meme.Config
	Timeout      time.Duration
	Tracing      bool
	OtelEndpoint string
}

var sorts = map[string]bool{`hot`: true, `top`: true, `new`: true}

func loadConfig() (config, error) {
	format, err := meme.ParseFormat(env.Default(`MEME_OUTPUT_FORMAT`, string(meme.DefaultFormat)))
	if err != nil {
		return config{}, fmt.Errorf(`MEME_OUTPUT_FORMAT: %w`, err)
	}
	cfg := config{
		Addr: env.Default(`MEMES_ADDR`, `[::]:5000`),
		Credentials: reddit.Credentials{
			ClientID:     env.Default(`REDDIT_CLIENT_ID`, ``),
			ClientSecret: env.Default(`REDDIT_CLIENT_SECRET`, ``),
			UserAgent:    env.Default(`REDDIT_USER_AGENT`, `memes/`+Version),
		},
		Meme: meme.Config{
			Query: reddit.Query{
				Community: env.Default(`MEME_SUBREDDIT`, domain.Community),
				Sort:      env.Default(`MEME_SORT`, reddit.DefaultSort),
				Limit:     env.Int(`MEME_LIMIT`, reddit.DefaultLimit),
			},
			Format:         format,
			MaxImageBytes:  int64(env.Int(`MEME_MAX_IMAGE_BYTES`, meme.DefaultMaxBytes)),
			MaxImagePixels: int64(env.Int(`MEME_MAX_IMAGE_PIXELS`, meme.DefaultMaxPixels)),
		},
		Timeout:      env.Duration(`UPSTREAM_TIMEOUT`, 30*time.Second),
		Tracing:      env.Default(`TRACING`, `off`) == `on`,
		OtelEndpoint: env.Default(`OTEL_EXPORTER_OTLP_ENDPOINT`, ``),
	}
	if !sorts[cfg.Meme.Query.Sort] {
		return config{}, fmt.Errorf(`MEME_SORT: unknown ranking %q`, cfg.Meme.Query.Sort)
	}
	if cfg.Credentials.ClientID != `` && cfg.Credentials.ClientSecret == `` {
		return config{}, errors.New(`REDDIT_CLIENT_SECRET is required with REDDIT_CLIENT_ID`)
	}
	return cfg, nil
}

func newService(cfg config, opts ...reddit.Option) *meme.Service {
	hc := reddit.NewHTTPClient(cfg.Credentials.UserAgent, cfg.Timeout)
	return meme.NewService(reddit.New(cfg.Credentials, hc, opts...), hc, cfg.Meme)
}
