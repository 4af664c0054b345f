// Package db provides the Postgres connection pool and the Query Gateway every repository goes through.
package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// TenantSetting is the session variable row-level security policies read the current business id from.
const TenantSetting = "app.current_business_id"

// Querier is the statement surface shared by Gateway and Client. Statements use $1, $2, ...
// placeholders and args bind positionally; SQL text is never built from argument values.
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row
	Get(ctx context.Context, dest any, query string, args ...any) error
	Select(ctx context.Context, dest any, query string, args ...any) error
}

// Sensitive wraps an argument whose value must not appear in statement logs (password hashes).
// It binds as a plain string.
type Sensitive string

// Value implements driver.Valuer.
func (s Sensitive) Value() (driver.Value, error) { return string(s), nil }

func (s Sensitive) String() string { return "[redacted]" }

// MarshalJSON keeps the value out of structured log output.
func (s Sensitive) MarshalJSON() ([]byte, error) { return []byte(`"[redacted]"`), nil }

// Gateway executes parameterized statements against the shared pool and logs each one.
// Errors from the driver are returned unmodified; there are no retries.
type Gateway struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewGateway wraps an open pool. logger may be nil.
func NewGateway(db *sql.DB, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{db: sqlx.NewDb(db, DriverName), logger: logger}
}

// DB returns the underlying pool.
func (g *Gateway) DB() *sql.DB { return g.db.DB }

// Close closes the pool.
func (g *Gateway) Close() error { return g.db.Close() }

func (g *Gateway) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	defer g.trace(query, args)()
	return g.db.ExecContext(ctx, query, args...)
}

func (g *Gateway) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	defer g.trace(query, args)()
	return g.db.QueryContext(ctx, query, args...)
}

func (g *Gateway) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	defer g.trace(query, args)()
	return g.db.QueryRowContext(ctx, query, args...)
}

// Get scans a single row into dest using sqlx column mapping.
func (g *Gateway) Get(ctx context.Context, dest any, query string, args ...any) error {
	defer g.trace(query, args)()
	return g.db.GetContext(ctx, dest, query, args...)
}

// Select scans all rows into the slice pointed to by dest.
func (g *Gateway) Select(ctx context.Context, dest any, query string, args ...any) error {
	defer g.trace(query, args)()
	return g.db.SelectContext(ctx, dest, query, args...)
}

func (g *Gateway) trace(query string, args []any) func() {
	return traceQuery(g.logger, query, args)
}

func traceQuery(logger *zap.Logger, query string, args []any) func() {
	start := time.Now()
	return func() {
		if ce := logger.Check(zap.DebugLevel, "db.query"); ce != nil {
			ce.Write(
				zap.String("sql", query),
				zap.Any("args", args),
				zap.Duration("duration", time.Since(start)),
			)
		}
	}
}

// AcquireClient checks out a dedicated connection for a multi-statement sequence.
// The caller must call Release on every path; WithClient and WithTenantTx do this for you.
func (g *Gateway) AcquireClient(ctx context.Context) (*Client, error) {
	conn, err := g.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, logger: g.logger}, nil
}

// WithClient acquires a client, runs fn and releases the client, including when fn panics.
func (g *Gateway) WithClient(ctx context.Context, fn func(*Client) error) error {
	c, err := g.AcquireClient(ctx)
	if err != nil {
		return err
	}
	defer c.Release()
	return fn(c)
}

// WithTenantTx runs fn in a transaction on a dedicated connection with the tenant session
// variable set to businessID for the transaction only. The transaction commits when fn returns
// nil and rolls back when fn errors or panics; the panic is re-raised after rollback.
func (g *Gateway) WithTenantTx(ctx context.Context, businessID string, fn func(*Client) error) (err error) {
	if businessID == "" {
		return ErrNoTenant
	}
	c, err := g.AcquireClient(ctx)
	if err != nil {
		return err
	}
	defer c.Release()

	if err := c.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = c.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := c.Rollback(ctx); rbErr != nil {
				g.logger.Warn("db: rollback failed", zap.Error(rbErr))
			}
		}
	}()

	if _, err = c.Exec(ctx, "SELECT set_config('"+TenantSetting+"', $1, true)", businessID); err != nil {
		return fmt.Errorf("set tenant: %w", err)
	}
	if err = fn(c); err != nil {
		return err
	}
	return c.Commit(ctx)
}

// Client is a dedicated pooled connection. Transaction control is explicit: the caller issues
// Begin, Commit and Rollback. Release returns the connection to the pool and is idempotent;
// an open transaction is rolled back first.
type Client struct {
	conn   *sqlx.Conn
	logger *zap.Logger

	once sync.Once
	inTx bool
}

func (c *Client) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	defer traceQuery(c.logger, query, args)()
	return c.conn.ExecContext(ctx, query, args...)
}

func (c *Client) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	defer traceQuery(c.logger, query, args)()
	return c.conn.QueryContext(ctx, query, args...)
}

func (c *Client) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	defer traceQuery(c.logger, query, args)()
	return c.conn.QueryRowContext(ctx, query, args...)
}

func (c *Client) Get(ctx context.Context, dest any, query string, args ...any) error {
	defer traceQuery(c.logger, query, args)()
	return c.conn.GetContext(ctx, dest, query, args...)
}

func (c *Client) Select(ctx context.Context, dest any, query string, args ...any) error {
	defer traceQuery(c.logger, query, args)()
	return c.conn.SelectContext(ctx, dest, query, args...)
}

// Begin issues BEGIN.
func (c *Client) Begin(ctx context.Context) error {
	if _, err := c.Exec(ctx, "BEGIN"); err != nil {
		return err
	}
	c.inTx = true
	return nil
}

// Commit issues COMMIT.
func (c *Client) Commit(ctx context.Context) error {
	_, err := c.Exec(ctx, "COMMIT")
	c.inTx = false
	return err
}

// Rollback issues ROLLBACK. It runs even when ctx is already cancelled.
func (c *Client) Rollback(ctx context.Context) error {
	_, err := c.Exec(context.WithoutCancel(ctx), "ROLLBACK")
	c.inTx = false
	return err
}

// Release returns the connection to the pool.
func (c *Client) Release() {
	c.once.Do(func() {
		if c.inTx {
			_ = c.Rollback(context.Background())
		}
		if err := c.conn.Close(); err != nil {
			c.logger.Warn("db: release connection", zap.Error(err))
		}
	})
}

var (
	_ Querier = (*Gateway)(nil)
	_ Querier = (*Client)(nil)
)
