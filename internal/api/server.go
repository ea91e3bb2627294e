// Package api serves a terminal over HTTP with gin.
//
// Every route lives under /api/v1. Mutating routes answer 503 until the
// signed-in account's snapshot has loaded. When a JWT secret is configured
// every route but /health needs a bearer token whose subject is the
// terminal's account.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/azairamail/EASYAiPOS/internal/terminal"
)

// Options configures the router.
type Options struct {
	JWTSecret string

	// Rate limits requests per client; empty disables the limiter.
	Rate string

	// Location is the time zone reports are bucketed in. Nil uses
	// time.Local.
	Location *time.Location
}

type server struct {
	term *terminal.Terminal
	loc  *time.Location
}

// NewRouter builds the HTTP handler for term.
func NewRouter(term *terminal.Terminal, opts Options) (*gin.Engine, error) {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	s := &server{term: term, loc: opts.Location}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	if opts.Rate != "" {
		limit, err := RateLimit(opts.Rate)
		if err != nil {
			return nil, err
		}
		r.Use(limit)
	}

	v1 := r.Group("/api/v1")
	v1.GET("/health", s.health)

	// Everything but health waits for the account snapshot.
	protected := v1.Group("")
	if opts.JWTSecret != "" {
		protected.Use(BearerAuth([]byte(opts.JWTSecret), term.Account))
	}
	protected.Use(requireReady(term.Ready))

	protected.GET("/state", s.state)
	protected.GET("/orders/:id/receipt", s.receipt)
	protected.GET("/cart/bill", s.cartBill)
	protected.GET("/reports/summary", s.summary)
	protected.GET("/reports/orders.csv", s.ordersCSV)
	protected.GET("/backup", s.backup)

	protected.POST("/actions", s.dispatch)
	protected.POST("/cart/items", s.addToCart)

	orders := protected.Group("/orders")
	orders.POST("", s.placeOrder)
	orders.POST("/:id/advance", s.advance)
	orders.POST("/:id/void", s.void)
	orders.POST("/:id/settle", s.settle)
	orders.POST("/:id/split", s.split)
	orders.POST("/:id/print-kot", s.printKitchen)

	tables := protected.Group("/tables")
	tables.POST("/:id/release", s.releaseTable)
	tables.POST("/:id/reservations", s.reserve)

	staff := protected.Group("/staff")
	staff.POST("/login", s.staffLogin)
	staff.POST("/logout", s.staffLogout)

	protected.POST("/restore", s.restore)
	protected.POST("/reset", s.reset)
	return r, nil
}

// Serve runs h on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("http shutting down")
	return srv.Shutdown(shutdownCtx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
