package domain

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	KindUnknown   Kind = iota
	KindUpstream       // token, listing or image fetch failed
	KindNoContent      // listing has no image-bearing post
	KindDecode         // image bytes could not be decoded
)

func (k Kind) String() string {
	switch k {
	case KindUpstream:
		return `upstream`
	case KindNoContent:
		return `no-content`
	case KindDecode:
		return `decode`
	}
	return `unknown`
}

var ErrNoImagePosts = errors.New(`no image posts found`)

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == `` {
		return fmt.Sprintf(`%s: %v`, e.Kind, e.Err)
	}
	return fmt.Sprintf(`%s (%s): %v`, e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func Upstream(op string, err error) error  { return &Error{Kind: KindUpstream, Op: op, Err: err} }
func NoContent(op string, err error) error { return &Error{Kind: KindNoContent, Op: op, Err: err} }
func Decode(op string, err error) error    { return &Error{Kind: KindDecode, Op: op, Err: err} }

// KindOf reports the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
