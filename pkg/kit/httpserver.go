package kit

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

type serverConfig struct {
	certFile   string
	keyFile    string
	onShutdown []func(ctx context.Context) error
}

type ServerOption func(*serverConfig)

// WithTLS serves HTTPS when both files are set.
func WithTLS(certFile, keyFile string) ServerOption {
	return func(c *serverConfig) {
		c.certFile, c.keyFile = certFile, keyFile
	}
}

// OnShutdown registers a hook run after the listener stops accepting
// requests and before RunHTTPServer returns. Hooks share the shutdown deadline.
func OnShutdown(fn func(ctx context.Context) error) ServerOption {
	return func(c *serverConfig) {
		c.onShutdown = append(c.onShutdown, fn)
	}
}

func RunHTTPServer(addr string, h http.Handler, log *zap.Logger, opts ...ServerOption) error {
	var cfg serverConfig
	for _, o := range opts {
		o(&cfg)
	}
	tls := cfg.certFile != "" && cfg.keyFile != ""

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", addr), zap.Bool("tls", tls))
		if tls {
			errCh <- srv.ListenAndServeTLS(cfg.certFile, cfg.keyFile)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case sig := <-stop:
		log.Info("shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(ctx)
	for _, fn := range cfg.onShutdown {
		if herr := fn(ctx); herr != nil {
			log.Error("shutdown hook failed", zap.Error(herr))
			err = errors.Join(err, herr)
		}
	}
	return err
}
