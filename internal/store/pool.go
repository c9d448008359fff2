package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/puddle/v2"
	"github.com/sethvargo/go-retry"

	"github.com/Frans06/website/internal/logger"
)

const (
	DefaultMaxConns       = 15
	defaultConnectRetries = 3
	defaultPingTimeout    = 3 * time.Second
	defaultConnLifetime   = 30 * time.Minute
	defaultConnIdleTime   = 5 * time.Minute
)

type PoolOptions struct {
	MaxConns int32
	// AcquireTimeout bounds how long a repository call waits for a free
	// connection. Zero leaves the caller's context in charge.
	AcquireTimeout time.Duration
	// ConnectRetries is the number of extra ping attempts before NewPool gives up.
	ConnectRetries uint64
}

// BuildPoolConfig parses the DSN and applies pool bounds without connecting.
func BuildPoolConfig(databaseURL string, opts PoolOptions) (*pgxpool.Config, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database url is required")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = DefaultMaxConns
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	cfg.MinConns = 0
	cfg.MaxConnLifetime = defaultConnLifetime
	cfg.MaxConnIdleTime = defaultConnIdleTime
	return cfg, nil
}

// NewPool builds a bounded pool and verifies it can reach the database.
func NewPool(ctx context.Context, databaseURL string, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := BuildPoolConfig(databaseURL, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPoolInitFailed, err)
	}
	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: connect postgres: %w", ErrPoolInitFailed, err)
	}

	retries := opts.ConnectRetries
	if retries == 0 {
		retries = defaultConnectRetries
	}
	log := logger.FromContext(ctx)
	backoff := retry.WithMaxRetries(retries, retry.NewExponential(250*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
		defer cancel()
		if err := p.Ping(pingCtx); err != nil {
			log.Warn("Postgres not reachable yet", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("%w: ping postgres: %w", ErrPoolInitFailed, err)
	}
	log.Info("Postgres pool ready", "max_conns", cfg.MaxConns)
	return p, nil
}

// Constructor builds the pool behind a PoolHandle.
type Constructor func(ctx context.Context, databaseURL string, opts PoolOptions) (*pgxpool.Pool, error)

// PoolHandle constructs the shared pool exactly once and hands the same
// instance to every caller. Concurrent first callers block until the single
// construction finishes and then observe its result.
type PoolHandle struct {
	databaseURL string
	opts        PoolOptions
	construct   Constructor

	once sync.Once
	mu   sync.Mutex
	pool *pgxpool.Pool
	err  error
}

type HandleOption func(*PoolHandle)

// WithConstructor replaces NewPool as the construction function.
func WithConstructor(c Constructor) HandleOption {
	return func(h *PoolHandle) { h.construct = c }
}

func NewPoolHandle(databaseURL string, opts PoolOptions, options ...HandleOption) *PoolHandle {
	h := &PoolHandle{databaseURL: databaseURL, opts: opts, construct: NewPool}
	for _, o := range options {
		o(h)
	}
	return h
}

// Get returns the shared pool, constructing it on the first call. A failed
// construction is remembered; the process is expected to stop.
func (h *PoolHandle) Get(ctx context.Context) (*pgxpool.Pool, error) {
	h.once.Do(func() {
		p, err := h.construct(ctx, h.databaseURL, h.opts)
		if err == nil && p == nil {
			err = errors.New("constructor returned nil pool")
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		if err != nil {
			if !errors.Is(err, ErrPoolInitFailed) {
				err = fmt.Errorf("%w: %w", ErrPoolInitFailed, err)
			}
			h.err = err
			return
		}
		h.pool = p
	})
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pool, h.err
}

func (h *PoolHandle) Options() PoolOptions { return h.opts }

// Close releases the pool if it was ever built. Later calls to Get fail with
// ErrConnectionUnavailable instead of building a new pool.
func (h *PoolHandle) Close() {
	// consume the once so a Get racing Close cannot construct afterwards
	h.once.Do(func() {})
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pool != nil {
		h.pool.Close()
		h.pool = nil
	}
	if h.err == nil {
		h.err = &Error{Op: "get pool", Kind: ErrConnectionUnavailable, Err: puddle.ErrClosedPool}
	}
}

// HealthCheck pings the database through the shared pool.
func HealthCheck(ctx context.Context, p *pgxpool.Pool) error {
	hctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := p.Ping(hctx); err != nil {
		return translate("health check", err)
	}
	return nil
}
