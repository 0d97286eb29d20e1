package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	dataloader "github.com/graph-gophers/dataloader/v7"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/handler"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/bign8/memes/lib/domain"
	"github.com/bign8/memes/lib/meme"
)

const maxCount = 25

type loaderKey struct{}

// newLoader batches listing loads of one GraphQL request. It lives only as
// long as the request so listings are never shared across requests.
func newLoader(svc *meme.Service) *dataloader.Loader[string, []domain.Post] {
	return dataloader.NewBatchedLoader(
		func(ctx context.Context, communities []string) []*dataloader.Result[[]domain.Post] {
			ctx, span := otel.Tracer(``).Start(ctx, `loadListings`)
			defer span.End()

			// one upstream call per distinct community
			byCommunity := make(map[string]*dataloader.Result[[]domain.Post], 1)
			res := make([]*dataloader.Result[[]domain.Post], len(communities))
			for i, c := range communities {
				if _, ok := byCommunity[c]; !ok {
					posts, err := svc.Posts(ctx)
					byCommunity[c] = &dataloader.Result[[]domain.Post]{Data: posts, Error: err}
				}
				res[i] = byCommunity[c]
			}
			return res
		},
		dataloader.WithWait[string, []domain.Post](time.Millisecond),
	)
}

func loadPosts(p graphql.ResolveParams, svc *meme.Service) dataloader.Thunk[[]domain.Post] {
	loader, ok := p.Context.Value(loaderKey{}).(*dataloader.Loader[string, []domain.Post])
	if !ok {
		loader = newLoader(svc)
	}
	return loader.Load(p.Context, svc.Community())
}

// publicError hides upstream causes from GraphQL clients the same way the
// image endpoint does.
func publicError(err error) error {
	_, msg := errorResponse(domain.KindOf(err))
	return errors.New(msg)
}

func newSchema(svc *meme.Service) (graphql.Schema, error) {
	memeType := graphql.NewObject(graphql.ObjectConfig{
		Name: `Meme`,
		Fields: graphql.Fields{
			`title`: &graphql.Field{Type: graphql.String, Resolve: postField(func(p domain.Post) string { return p.Title })},
			`url`:   &graphql.Field{Type: graphql.String, Resolve: postField(func(p domain.Post) string { return p.URL })},
			`permalink`: &graphql.Field{Type: graphql.String, Resolve: postField(func(p domain.Post) string {
				return p.Permalink
			})},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name: `RootQuery`,
			Fields: graphql.Fields{
				`meme`: &graphql.Field{
					Type: memeType,
					Resolve: func(p graphql.ResolveParams) (any, error) {
						thunk := loadPosts(p, svc)
						return func() (any, error) {
							posts, err := thunk()
							if err != nil {
								return nil, publicError(err)
							}
							post, err := svc.Choose(posts)
							if err != nil {
								return nil, publicError(err)
							}
							return post, nil
						}, nil
					},
				},
				`memes`: &graphql.Field{
					Type: graphql.NewList(memeType),
					Args: graphql.FieldConfigArgument{
						`count`: &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
					},
					Resolve: func(p graphql.ResolveParams) (any, error) {
						count, _ := p.Args[`count`].(int)
						if count < 1 || count > maxCount {
							return nil, fmt.Errorf(`count must be between 1 and %d`, maxCount)
						}
						thunk := loadPosts(p, svc)
						return func() (any, error) {
							posts, err := thunk()
							if err != nil {
								return nil, publicError(err)
							}
							picked, err := svc.Sample(posts, count)
							if err != nil {
								return nil, publicError(err)
							}
							return picked, nil
						}, nil
					},
				},
			},
		}),
	})
}

func postField(get func(domain.Post) string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		post, ok := p.Source.(domain.Post)
		if !ok {
			return nil, nil
		}
		return get(post), nil
	}
}

func newGraphQL(svc *meme.Service) http.Handler {
	schema, err := newSchema(svc)
	check(err)
	h := handler.New(&handler.Config{
		Schema: &schema,
		Pretty: true,
		Tracer: &tracer{},
	})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), loaderKey{}, newLoader(svc))
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

type tracer struct{}

func (t tracer) TraceQuery(ctx context.Context, queryString, operationName string) (context.Context, graphql.TraceQueryFinishFunc) {
	if operationName == `` {
		operationName = `graphql`
	}
	ctx, span := otel.Tracer(``).Start(ctx, operationName)
	return ctx, func(fe []gqlerrors.FormattedError) {
		for _, e := range fe {
			span.RecordError(e)
		}
		if len(fe) > 0 {
			span.SetStatus(codes.Error, fe[0].Message)
		}
		span.End()
	}
}

func (t tracer) TraceField(ctx context.Context, fieldName, typeName string) (context.Context, graphql.TraceFieldFinishFunc) {
	if typeName == `String` {
		return ctx, func(fe []gqlerrors.FormattedError) { /* noop for scalars */ }
	}

	ctx, span := otel.Tracer(``).Start(ctx, fieldName+`.`+typeName)
	return ctx, func(fe []gqlerrors.FormattedError) {
		span.End()
	}
}
