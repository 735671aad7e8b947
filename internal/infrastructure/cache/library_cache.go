// Package cache keeps the custom filter library in sync with its copy in
// PostgreSQL, using LISTEN/NOTIFY for invalidation.
package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kinfilter/internal/domain/filter"
	"kinfilter/internal/infrastructure/filterfile"
	"kinfilter/pkg/logger"
)

// Channel is the NOTIFY channel announcing a new filter document.
const Channel = "filters_changed"

const definitionsDDL = `
CREATE TABLE IF NOT EXISTS filter_definitions (
	id         int PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	document   text NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
)`

// InvalidationListener is called after every reload attempt.
type InvalidationListener func(lib *filter.Library, err error)

// LibraryCache mirrors the stored filter definitions into a Library.
// A failed reload keeps the previous filters.
type LibraryCache struct {
	pool *pgxpool.Pool
	lib  *filter.Library

	listeners   []InvalidationListener
	listenersMu sync.RWMutex

	// Lifecycle
	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewLibraryCache creates a cache that fills lib.
func NewLibraryCache(pool *pgxpool.Pool, lib *filter.Library) *LibraryCache {
	return &LibraryCache{pool: pool, lib: lib}
}

// Library returns the library kept in sync.
func (c *LibraryCache) Library() *filter.Library {
	return c.lib
}

// EnsureSchema creates the definitions table.
func (c *LibraryCache) EnsureSchema(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, definitionsDDL); err != nil {
		return fmt.Errorf("create filter_definitions: %w", err)
	}
	return nil
}

// Start loads the stored definitions and begins listening for changes.
func (c *LibraryCache) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.lifecycleMu.Lock()
	if c.started {
		c.lifecycleMu.Unlock()
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true
	c.lifecycleMu.Unlock()

	if err := c.reload(c.ctx); err != nil {
		c.Stop()
		return fmt.Errorf("load filter definitions: %w", err)
	}

	c.wg.Add(1)
	go c.listenLoop()
	logger.Info(c.ctx, "filter library cache started")
	return nil
}

// Stop gracefully stops the cache listener.
func (c *LibraryCache) Stop() {
	c.lifecycleMu.Lock()
	if !c.started {
		c.lifecycleMu.Unlock()
		return
	}
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	logger.Info(context.Background(), "filter library cache stopped")
}

// Store saves lib as the stored definitions and notifies every listening cache.
func (c *LibraryCache) Store(ctx context.Context, lib *filter.Library) error {
	var buf bytes.Buffer
	if err := filterfile.Save(&buf, lib); err != nil {
		return err
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO filter_definitions (id, document, updated_at) VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
	`, buf.String()); err != nil {
		return fmt.Errorf("store filter definitions: %w", err)
	}
	if _, err := tx.Exec(ctx, "SELECT pg_notify($1, '')", Channel); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return tx.Commit(ctx)
}

// listenLoop listens for PostgreSQL NOTIFY events.
func (c *LibraryCache) listenLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		conn, err := c.pool.Acquire(c.ctx)
		if err != nil {
			logger.Error(c.ctx, "failed to acquire connection for LISTEN", "error", err)
			time.Sleep(time.Second)
			continue
		}

		if _, err = conn.Exec(c.ctx, "LISTEN "+Channel); err != nil {
			logger.Error(c.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			time.Sleep(time.Second)
			continue
		}

		logger.Info(c.ctx, "listening for filter definition changes", "channel", Channel)
		// Changes made while no connection was listening would be lost.
		c.handleNotification()

		c.waitForNotifications(conn)
		conn.Release()
	}
}

// waitForNotifications blocks waiting for NOTIFY events.
func (c *LibraryCache) waitForNotifications(conn *pgxpool.Conn) {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		// Wait with timeout for graceful shutdown
		ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Warn(c.ctx, "notification connection lost", "error", err)
			return
		}

		logger.Debug(c.ctx, "received notification", "channel", notification.Channel)
		c.handleNotification()
	}
}

func (c *LibraryCache) handleNotification() {
	err := c.reload(c.ctx)
	if err != nil {
		logger.Error(c.ctx, "failed to reload filter definitions", "error", err)
	}

	// Listener panics must not stop the loop.
	c.listenersMu.RLock()
	for _, listener := range c.listeners {
		func(l InvalidationListener) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error(c.ctx, "listener panic recovered", "panic", r)
				}
			}()
			l(c.lib, err)
		}(listener)
	}
	c.listenersMu.RUnlock()
}

// reload fetches the stored document and installs it. A missing row means
// no custom filters.
func (c *LibraryCache) reload(ctx context.Context) error {
	var doc string
	err := c.pool.QueryRow(ctx, "SELECT document FROM filter_definitions WHERE id = 1").Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		c.lib.Replace()
		return nil
	}
	if err != nil {
		return fmt.Errorf("query filter definitions: %w", err)
	}
	return c.install(ctx, []byte(doc))
}

// install parses doc and swaps it into the library.
func (c *LibraryCache) install(ctx context.Context, doc []byte) error {
	filters, err := filterfile.Parse(bytes.NewReader(doc), c.lib)
	if err != nil {
		return err
	}
	c.lib.Replace(filters...)
	logger.Info(ctx, "loaded filter definitions", "filters", len(filters))
	return nil
}

// OnInvalidation registers a callback run after every reload.
func (c *LibraryCache) OnInvalidation(listener InvalidationListener) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, listener)
	c.listenersMu.Unlock()
}
