package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bign8/memes/lib/domain"
	"github.com/bign8/memes/lib/meme"
	"github.com/bign8/memes/lib/reddit"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{`version`, `--env-file`, filepath.Join(t.TempDir(), `missing.env`)})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "memes dev (none)\n", out.String())
}

func TestFetchOne(t *testing.T) {
	u := newUpstream(t, `/img/a.png`, `/img/b.txt`)
	cfg := config{
		Credentials: reddit.Credentials{ClientID: `id`, ClientSecret: `secret`},
		Meme:        meme.Config{Format: meme.Passthrough},
		Timeout:     5 * time.Second,
	}
	svc := newService(cfg, reddit.WithEndpoints(u.URL+`/api/v1/access_token`, u.URL+`/oauth`, ``))

	t.Run(`file`, func(t *testing.T) {
		out := filepath.Join(t.TempDir(), `meme.png`)
		require.NoError(t, fetchOne(context.Background(), svc, out, nil))
		got, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, testPNG(t), got)
	})

	t.Run(`stdout`, func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, fetchOne(context.Background(), svc, `-`, &buf))
		assert.Equal(t, testPNG(t), buf.Bytes())
	})

	t.Run(`failure`, func(t *testing.T) {
		u.listStatus = http.StatusInternalServerError
		err := fetchOne(context.Background(), svc, `-`, &bytes.Buffer{})
		assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
	})
}
