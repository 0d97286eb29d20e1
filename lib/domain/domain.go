package domain

import "time"

// Community queried when nothing else is configured.
const Community = `ProgrammerHumor`

// Post is a listing item of the community. Only what selection and delivery
// need is kept.
type Post struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Permalink string `json:"permalink,omitempty"`
}

// AccessToken is fetched per request and never reused.
type AccessToken struct {
	Value  string
	Expiry time.Time
}

// Image is the response payload of a single meme request.
type Image struct {
	Post        Post
	ContentType string
	Body        []byte
}
