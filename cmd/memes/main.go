package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bign8/memes/lib/env"
	"github.com/bign8/memes/lib/meme"
	"github.com/bign8/memes/lib/tracing"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = `dev`
	Commit  = `none`
)

func check(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:          `memes`,
		Short:        `Serve random memes from a subreddit`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return env.Load(envFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&envFile, `env-file`, `.env`, `dotenv file seeding the environment`)

	root.AddCommand(&cobra.Command{
		Use:   `serve`,
		Short: `Run the HTTP server (default)`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	})

	var out string
	fetch := &cobra.Command{
		Use:   `fetch`,
		Short: `Fetch one random meme and write it to a file`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return fetchOne(cmd.Context(), newService(cfg), out, cmd.OutOrStdout())
		},
	}
	fetch.Flags().StringVarP(&out, `output`, `o`, `-`, "output file, `-` for stdout")
	root.AddCommand(fetch)

	root.AddCommand(&cobra.Command{
		Use:   `version`,
		Short: `Print version information`,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "memes %s (%s)\n", Version, Commit)
		},
	})
	return root
}

func serve(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing {
		shutdown, err := tracing.Init(ctx, `memes`, Version, cfg.OtelEndpoint)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Printf(`tracing shutdown: %v`, err)
			}
		}()
	}

	if cfg.Credentials.ClientID == `` {
		log.Printf(`no REDDIT_CLIENT_ID, listing r/%s anonymously`, cfg.Meme.Query.Community)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(newService(cfg)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		log.Printf(`memes on %v`, server.Addr)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	log.Printf(`shutting down`)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func fetchOne(ctx context.Context, svc *meme.Service, out string, stdout io.Writer) error {
	img, err := svc.Random(ctx)
	if err != nil {
		return err
	}
	log.Printf(`%q %s (%s, %d bytes)`, img.Post.Title, img.Post.URL, img.ContentType, len(img.Body))
	if out == `-` {
		_, err = stdout.Write(img.Body)
		return err
	}
	return os.WriteFile(out, img.Body, 0o644)
}
