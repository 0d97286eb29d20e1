package meme

import (
	"net/url"
	"path"
	"strings"

	"github.com/bign8/memes/lib/domain"
)

var extensions = map[string]bool{`.jpg`: true, `.jpeg`: true, `.png`: true, `.gif`: true}

// Extension returns the lower-cased extension of the url's path, ignoring
// query and fragment.
func Extension(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ``
	}
	return strings.ToLower(path.Ext(u.Path))
}

// IsImage reports whether raw links to an accepted image type.
func IsImage(raw string) bool {
	return extensions[Extension(raw)]
}

// Eligible keeps the image posts, preserving order.
func Eligible(posts []domain.Post) []domain.Post {
	out := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		if IsImage(p.URL) {
			out = append(out, p)
		}
	}
	return out
}

// Pick selects one eligible post with intn, which must return a value in
// [0, n) like rand.IntN.
func Pick(posts []domain.Post, intn func(int) int) (domain.Post, error) {
	candidates := Eligible(posts)
	if len(candidates) == 0 {
		return domain.Post{}, domain.NoContent(`select`, domain.ErrNoImagePosts)
	}
	return candidates[intn(len(candidates))], nil
}

// Sample returns up to k distinct image posts in random order.
func Sample(posts []domain.Post, k int, intn func(int) int) ([]domain.Post, error) {
	candidates := Eligible(posts)
	if len(candidates) == 0 {
		return nil, domain.NoContent(`sample`, domain.ErrNoImagePosts)
	}
	if k > len(candidates) {
		k = len(candidates)
	}
	for i := 0; i < k; i++ {
		j := i + intn(len(candidates)-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}
	return candidates[:k], nil
}
