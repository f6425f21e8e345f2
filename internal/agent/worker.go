package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/slipway-sh/slipway/internal/chat"
	"github.com/slipway-sh/slipway/internal/chat/ollama"
)

// workerShutdownTimeout bounds graceful drain of in-flight requests.
const workerShutdownTimeout = 10 * time.Second

var ErrNoListener = errors.New("no inherited listener on fd 3")

// RunWorker serves the chat application on the listener inherited from the
// supervisor. A worker that cannot construct its application exits before
// serving a single request.
func RunWorker(cfg Config, logger *slog.Logger) error {
	ln, err := inheritedListener()
	if err != nil {
		return err
	}
	defer ln.Close()

	handler, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	logger.Info("worker serving", "pid", os.Getpid())

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("worker serve failed: %w", err)

	case sig := <-signals:
		logger.Info("worker shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("worker shutdown failed: %w", err)
		}
		return nil
	}
}

// inheritedListener reopens the TCP listener the supervisor passed down.
func inheritedListener() (net.Listener, error) {
	f := os.NewFile(listenerFD, "listener")
	if f == nil {
		return nil, ErrNoListener
	}
	defer f.Close()

	ln, err := net.FileListener(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoListener, err)
	}
	return ln, nil
}

// buildApp constructs the chat application handler. Construction failures
// are the native analog of an application import error and must abort the
// worker before it serves.
func buildApp(cfg Config, logger *slog.Logger) (http.Handler, error) {
	opts := []ollama.Option{}
	if cfg.OllamaURL != "" {
		u, err := url.Parse(cfg.OllamaURL)
		if err != nil || u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
			return nil, fmt.Errorf("invalid %s %q: must be an http(s) URL", EnvOllamaURL, cfg.OllamaURL)
		}
		opts = append(opts, ollama.WithBaseURL(cfg.OllamaURL))
	}
	if cfg.OllamaModel != "" {
		opts = append(opts, ollama.WithModel(cfg.OllamaModel))
	}

	client := ollama.New(opts...)
	return chat.NewHandler(client, logger).Routes(), nil
}
