package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/mbolis/survey-templates/config"
	"github.com/mbolis/survey-templates/log"
	"github.com/mbolis/survey-templates/metrics"
)

// Pool owns the process wide database handle. The handle is opened on first
// use, dropped when a query reports a connection level failure and reopened by
// the next caller.
type Pool struct {
	cfg     config.DatabaseConfig
	dialect Dialect
	open    func(context.Context, config.DatabaseConfig) (*sql.DB, error)

	mu     sync.Mutex
	db     *sql.DB
	opened int
}

func NewPool(cfg config.DatabaseConfig) (*Pool, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	return &Pool{cfg: cfg, dialect: dialect, open: Open}, nil
}

func (p *Pool) Dialect() Dialect {
	return p.dialect
}

// Get returns the live handle, opening a new one if there is none.
func (p *Pool) Get(ctx context.Context) (*sql.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != nil {
		return p.db, nil
	}

	db, err := p.open(ctx, p.cfg)
	if err != nil {
		return nil, err
	}
	if p.opened > 0 {
		metrics.PoolReconnects.Inc()
		log.WithFields(log.Fields{"driver": p.cfg.Driver, "opened": p.opened}).Info("database.pool: reconnected")
	}
	p.opened++
	p.db = db
	return db, nil
}

// Invalidate drops the current handle if err is a connection level failure.
// It reports whether the handle was dropped.
func (p *Pool) Invalidate(err error) bool {
	if !IsTransient(err) {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db == nil {
		return false
	}
	log.WithFields(log.Fields{"driver": p.cfg.Driver, "error": err}).Warn("database.pool: invalidating handle")
	p.db.Close()
	p.db = nil
	return true
}

// Ping checks that the store is reachable, invalidating the handle otherwise.
func (p *Pool) Ping(ctx context.Context) error {
	db, err := p.Get(ctx)
	if err != nil {
		return err
	}
	if err = db.PingContext(ctx); err != nil {
		p.Invalidate(err)
		return err
	}
	return nil
}

func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

// IsTransient reports whether err means the connection itself is unusable, as
// opposed to a failure of the statement.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
