package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/edalab/copperview/internal/server"
	"github.com/edalab/copperview/pkg/cache"
	"github.com/edalab/copperview/pkg/config"
	"github.com/edalab/copperview/pkg/httputil"
	"github.com/edalab/copperview/pkg/session"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr       string // listen address
	mongoURI   string // MongoDB connection string for session storage
	mongoDB    string // MongoDB database name
	sessionDir string // directory for file-backed sessions
	webhook    string // webhook endpoint notified after check runs
	noCache    bool   // disable the geometry cache
}

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the geometry pipeline over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default :8080 or server.addr from config)")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo-uri", "", "MongoDB URI for session storage (default in-memory)")
	cmd.Flags().StringVar(&opts.mongoDB, "mongo-db", "", "MongoDB database name")
	cmd.Flags().StringVar(&opts.sessionDir, "session-dir", "", "directory for file-backed sessions (default in-memory)")
	cmd.Flags().StringVar(&opts.webhook, "webhook", "", "webhook URL notified after check runs")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the geometry cache")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts serveOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()
	// HTTP runs share the cache backend with the CLI commands; the prefix
	// keeps the two key spaces apart.
	runner.Keyer = cache.NewScopedKeyer(runner.Keyer, "serve:")

	addr := opts.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if addr == "" {
		addr = ":8080"
	}

	sessions, err := newSessionStore(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer sessions.Close(context.Background())

	var notifier *httputil.Notifier
	webhook := opts.webhook
	if webhook == "" {
		webhook = cfg.Server.WebhookURL
	}
	if webhook != "" {
		if notifier, err = httputil.NewNotifier(webhook); err != nil {
			return err
		}
	}

	srv := server.New(server.Options{
		Runner:   runner,
		Sessions: sessions,
		Notifier: notifier,
		Logger:   logger,
	})

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := sessions.Cleanup(ctx); err != nil {
					logger.Warn("session cleanup failed", "error", err)
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// newSessionStore picks the session backend: MongoDB when configured,
// file-backed when a session directory is given, in-memory otherwise.
func newSessionStore(ctx context.Context, cfg config.Config, opts serveOpts) (session.Store, error) {
	uri := opts.mongoURI
	if uri == "" {
		uri = cfg.Server.MongoURI
	}
	if uri == "" {
		dir := opts.sessionDir
		if dir == "" {
			dir = cfg.Server.SessionDir
		}
		if dir != "" {
			return session.NewFileStore(dir)
		}
		return session.NewMemoryStore(), nil
	}
	db := opts.mongoDB
	if db == "" {
		db = cfg.Server.MongoDB
	}
	if db == "" {
		db = "copperview"
	}
	return session.NewMongoStore(ctx, uri, db)
}
