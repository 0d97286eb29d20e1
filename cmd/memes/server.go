package main

import (
	"context"
	"encoding/json"
	"log"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bign8/memes/lib/domain"
	"github.com/bign8/memes/lib/meme"
)

const (
	msgUpstream   = `There was an issue with the Reddit API request.`
	msgUnexpected = `An unexpected error occurred.`
)

type server struct {
	memes *meme.Service
}

func newHandler(svc *meme.Service) http.Handler {
	s := &server{memes: svc}
	mux := http.NewServeMux()
	mux.HandleFunc(`GET /random-meme`, s.image)
	mux.HandleFunc(`GET /meme`, s.image)
	mux.HandleFunc(`GET /random-meme.json`, s.meta)
	mux.Handle(`/graphql`, newGraphQL(svc))
	mux.HandleFunc(`GET /healthz`, func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	var h http.Handler = mux
	h = cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{`Content-Type`, `X-Request-Id`},
		ExposedHeaders: []string{`X-Meme-Title`, `X-Meme-Source`, `X-Request-Id`},
	}).Handler(h)
	h = measure(h)
	return otelhttp.NewHandler(h, `memes`, otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
		return r.Method + ` ` + r.URL.Path
	}))
}

func (s *server) image(w http.ResponseWriter, r *http.Request) {
	img, err := s.memes.Random(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	h := w.Header()
	h.Set(`Content-Type`, img.ContentType)
	h.Set(`Content-Length`, strconv.Itoa(len(img.Body)))
	h.Set(`Content-Disposition`, mime.FormatMediaType(`inline`, map[string]string{`filename`: `meme` + fileExt(img.ContentType)}))
	h.Set(`X-Meme-Title`, mime.QEncoding.Encode(`utf-8`, img.Post.Title))
	h.Set(`X-Meme-Source`, img.Post.URL)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Body); err != nil {
		log.Printf(`write image id=%s: %v`, requestID(r.Context()), err)
	}
}

func (s *server) meta(w http.ResponseWriter, r *http.Request) {
	post, err := s.memes.Pick(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{`title`: post.Title, `url`: post.URL})
}

// errorResponse maps an error kind to what the caller sees. Causes are only
// logged.
func errorResponse(kind domain.Kind) (int, string) {
	switch kind {
	case domain.KindUpstream:
		return http.StatusInternalServerError, msgUpstream
	default:
		return http.StatusInternalServerError, msgUnexpected
	}
}

func fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	log.Printf(`%s %s failed id=%s kind=%s: %v`, r.Method, r.URL.Path, requestID(r.Context()), kind, err)
	status, msg := errorResponse(kind)
	writeJSON(w, status, map[string]string{`error`: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(`Content-Type`, `application/json`)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf(`encode json: %v`, err)
	}
}

func fileExt(contentType string) string {
	switch contentType {
	case `image/png`:
		return `.png`
	case `image/jpeg`:
		return `.jpg`
	case `image/gif`:
		return `.gif`
	case `image/webp`:
		return `.webp`
	}
	return ``
}

type ctxKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

type recorder struct {
	http.ResponseWriter
	status int
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func measure(h http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(`X-Request-Id`)
		if id == `` {
			id = uuid.NewString()
		}
		w.Header().Set(`X-Request-Id`, id)
		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
		log.Printf(`%s %s %d %s id=%s`, r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Nanosecond*100), id)
	}
}
