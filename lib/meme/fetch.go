package meme

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/bign8/memes/lib/domain"
)

type Format string

const (
	Passthrough Format = `passthrough`
	PNG         Format = `png`
	JPEG        Format = `jpeg`
	GIF         Format = `gif`

	DefaultFormat    = PNG
	DefaultMaxBytes  = 20 << 20
	DefaultMaxPixels = 50_000_000
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case ``:
		return DefaultFormat, nil
	case `jpg`:
		return JPEG, nil
	case Passthrough, PNG, JPEG, GIF:
		return f, nil
	}
	return ``, fmt.Errorf(`unknown output format %q`, s)
}

// ContentType of the encoded output; empty for passthrough.
func (f Format) ContentType() string {
	switch f {
	case PNG:
		return `image/png`
	case JPEG:
		return `image/jpeg`
	case GIF:
		return `image/gif`
	}
	return ``
}

// Fetcher downloads the selected post's image and optionally re-encodes it.
type Fetcher struct {
	http      *http.Client
	format    Format
	maxBytes  int64
	maxPixels int64
}

// NewFetcher caps downloads at maxBytes and decoded images at maxPixels
// (width×height). Zero selects the defaults.
func NewFetcher(hc *http.Client, format Format, maxBytes, maxPixels int64) *Fetcher {
	if hc == nil {
		hc = http.DefaultClient
	}
	if format == `` {
		format = DefaultFormat
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Fetcher{http: hc, format: format, maxBytes: maxBytes, maxPixels: maxPixels}
}

func (f *Fetcher) Fetch(ctx context.Context, post domain.Post) (domain.Image, error) {
	if !IsImage(post.URL) {
		return domain.Image{}, domain.NoContent(`fetch`, fmt.Errorf(`%s: %w`, post.URL, domain.ErrNoImagePosts))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, post.URL, nil)
	if err != nil {
		return domain.Image{}, domain.Upstream(`fetch`, fmt.Errorf(`create request: %w`, err))
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return domain.Image{}, domain.Upstream(`fetch`, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Image{}, domain.Upstream(`fetch`, fmt.Errorf(`%s: status %d`, post.URL, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return domain.Image{}, domain.Upstream(`fetch`, fmt.Errorf(`read body: %w`, err))
	}
	if int64(len(body)) > f.maxBytes {
		return domain.Image{}, domain.Upstream(`fetch`, fmt.Errorf(`%s: larger than %d bytes`, post.URL, f.maxBytes))
	}

	if f.format == Passthrough {
		ct, err := upstreamType(resp.Header.Get(`Content-Type`), body)
		if err != nil {
			return domain.Image{}, domain.Upstream(`fetch`, fmt.Errorf(`%s: %w`, post.URL, err))
		}
		return domain.Image{Post: post, ContentType: ct, Body: body}, nil
	}

	out, err := Transcode(body, f.format, f.maxPixels)
	if err != nil {
		return domain.Image{}, err
	}
	return domain.Image{Post: post, ContentType: f.format.ContentType(), Body: out}, nil
}

// Transcode decodes any accepted image and encodes it as format. Images
// larger than maxPixels are rejected before their pixels are allocated.
func Transcode(body []byte, format Format, maxPixels int64) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return nil, domain.Decode(`transcode`, err)
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > maxPixels {
		return nil, domain.Decode(`transcode`, fmt.Errorf(`%dx%d exceeds %d pixels`, cfg.Width, cfg.Height, maxPixels))
	}

	img, err := imaging.Decode(bytes.NewReader(body), imaging.AutoOrientation(true))
	if err != nil {
		return nil, domain.Decode(`transcode`, err)
	}
	var buf bytes.Buffer
	if err := encode(&buf, img, format); err != nil {
		return nil, domain.Decode(`transcode`, err)
	}
	return buf.Bytes(), nil
}

func encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case PNG:
		return imaging.Encode(w, img, imaging.PNG)
	case JPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(90))
	case GIF:
		return imaging.Encode(w, img, imaging.GIF)
	}
	return fmt.Errorf(`cannot encode %q`, format)
}

// upstreamType trusts an image/* Content-Type, otherwise sniffs the body.
// Anything that is not an image is rejected.
func upstreamType(header string, body []byte) (string, error) {
	if mt, _, err := mime.ParseMediaType(header); err == nil && strings.HasPrefix(mt, `image/`) {
		return mt, nil
	}
	if sniffed := http.DetectContentType(body); strings.HasPrefix(sniffed, `image/`) {
		return sniffed, nil
	}
	return ``, fmt.Errorf(`content type %q is not an image`, header)
}
