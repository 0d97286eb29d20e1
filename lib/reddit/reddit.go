package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/bign8/memes/lib/domain"
)

const (
	TokenURL  = `https://www.reddit.com/api/v1/access_token`
	APIURL    = `https://oauth.reddit.com`
	PublicURL = `https://www.reddit.com`

	DefaultLimit = 50
	MaxLimit     = 100
	DefaultSort  = `hot`
)

// Credentials of a reddit "script" or "web" app.
type Credentials struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
}

type Client struct {
	creds     Credentials
	http      *http.Client
	tokenURL  string
	apiURL    string
	publicURL string
}

type Option func(*Client)

// WithEndpoints points the client at another token endpoint, oauth api host
// and public host. Empty values keep the defaults.
func WithEndpoints(tokenURL, apiURL, publicURL string) Option {
	return func(c *Client) {
		if tokenURL != `` {
			c.tokenURL = tokenURL
		}
		if apiURL != `` {
			c.apiURL = apiURL
		}
		if publicURL != `` {
			c.publicURL = publicURL
		}
	}
}

func New(creds Credentials, hc *http.Client, opts ...Option) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	c := &Client{
		creds:     creds,
		http:      hc,
		tokenURL:  TokenURL,
		apiURL:    APIURL,
		publicURL: PublicURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Anonymous reports whether listings go through the public json endpoints
// instead of the oauth api.
func (c *Client) Anonymous() bool {
	return c.creds.ClientID == ``
}

// Token performs a client-credentials grant. Every call hits the token
// endpoint.
func (c *Client) Token(ctx context.Context) (domain.AccessToken, error) {
	cfg := clientcredentials.Config{
		ClientID:     c.creds.ClientID,
		ClientSecret: c.creds.ClientSecret,
		TokenURL:     c.tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	tok, err := cfg.Token(context.WithValue(ctx, oauth2.HTTPClient, c.http))
	if err != nil {
		return domain.AccessToken{}, domain.Upstream(`token`, err)
	}
	return domain.AccessToken{Value: tok.AccessToken, Expiry: tok.Expiry}, nil
}

type Query struct {
	Community string
	Sort      string // hot, top or new
	Limit     int
}

// Normalize fills defaults and clamps Limit to 1..MaxLimit.
func (q Query) Normalize() Query {
	if q.Community == `` {
		q.Community = domain.Community
	}
	if q.Sort == `` {
		q.Sort = DefaultSort
	}
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultLimit
	case q.Limit > MaxLimit:
		q.Limit = MaxLimit
	}
	return q
}

// Listing returns the community's posts in upstream ranking order. An empty
// token selects the public endpoint.
func (c *Client) Listing(ctx context.Context, token string, q Query) ([]domain.Post, error) {
	q = q.Normalize()
	var endpoint string
	if token == `` {
		endpoint = fmt.Sprintf(`%s/r/%s/%s.json`, c.publicURL, url.PathEscape(q.Community), url.PathEscape(q.Sort))
	} else {
		endpoint = fmt.Sprintf(`%s/r/%s/%s`, c.apiURL, url.PathEscape(q.Community), url.PathEscape(q.Sort))
	}
	endpoint += fmt.Sprintf(`?limit=%d&raw_json=1`, q.Limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.Upstream(`listing`, fmt.Errorf(`create request: %w`, err))
	}
	if token != `` {
		req.Header.Set(`Authorization`, `bearer `+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.Upstream(`listing`, fmt.Errorf(`fetch r/%s: %w`, q.Community, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.Upstream(`listing`, fmt.Errorf(`r/%s: status %d`, q.Community, resp.StatusCode))
	}

	var l listing
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, domain.Upstream(`listing`, fmt.Errorf(`decode r/%s: %w`, q.Community, err))
	}
	return l.posts(c.publicURL), nil
}

type listing struct {
	Data struct {
		Children []child `json:"children"`
	} `json:"data"`
}

type child struct {
	Kind string   `json:"kind"`
	Data linkPost `json:"data"`
}

type linkPost struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Permalink string `json:"permalink"`
}

func (l listing) posts(base string) []domain.Post {
	posts := make([]domain.Post, 0, len(l.Data.Children))
	for _, c := range l.Data.Children {
		p := c.Data
		post := domain.Post{
			ID:    p.ID,
			Title: p.Title,
			URL:   p.URL,
		}
		if p.Permalink != `` {
			post.Permalink = base + p.Permalink
		}
		posts = append(posts, post)
	}
	return posts
}
