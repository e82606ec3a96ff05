package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/sqlitekit/sqlitekit-go/session"
)

// Pool hands out dedicated engine connections, one per Session. Sessions are
// single-owner, so concurrent callers each take their own connection for the
// duration of their work and return it by closing the session.
type Pool struct {
	active map[string]*Conn
	closed bool
	config *Config
	db     *sql.DB
	mutex  sync.Mutex
	slots  *semaphore.Weighted
}

// Open opens a pool from an option string (see ParseConfig).
func Open(options string) (*Pool, error) {
	config, err := ParseConfig(options)

	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", config.dsn())

	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(config.MaxConnections)

	return &Pool{
		active: map[string]*Conn{},
		config: config,
		db:     db,
		slots:  semaphore.NewWeighted(int64(config.MaxConnections)),
	}, nil
}

// Get acquires a dedicated connection, blocking until a slot is available or
// ctx is done.
func (p *Pool) Get(ctx context.Context) (*Conn, error) {
	p.mutex.Lock()
	closed := p.closed
	p.mutex.Unlock()

	if closed {
		return nil, errors.New("pool is closed")
	}

	if err := p.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	conn, err := p.db.Conn(ctx)

	if err != nil {
		p.slots.Release(1)
		return nil, err
	}

	c := &Conn{
		conn:    conn,
		id:      uuid.NewString(),
		release: p.put,
	}

	p.mutex.Lock()
	p.active[c.id] = c
	p.mutex.Unlock()

	return c, nil
}

// OpenSession acquires a connection and binds a new session to it. Closing
// the session returns the connection to the pool.
func (p *Pool) OpenSession(ctx context.Context) (*session.Session, error) {
	conn, err := p.Get(ctx)

	if err != nil {
		return nil, err
	}

	return session.NewSession(conn), nil
}

func (p *Pool) put(c *Conn) {
	p.mutex.Lock()

	if _, ok := p.active[c.id]; !ok {
		p.mutex.Unlock()
		return
	}

	delete(p.active, c.id)
	p.mutex.Unlock()

	p.slots.Release(1)
}

// Close closes every outstanding connection and the underlying database.
func (p *Pool) Close() error {
	p.mutex.Lock()

	if p.closed {
		p.mutex.Unlock()
		return nil
	}

	p.closed = true
	active := make([]*Conn, 0, len(p.active))

	for _, c := range p.active {
		active = append(active, c)
	}

	p.mutex.Unlock()

	for _, c := range active {
		if err := c.Close(); err != nil {
			log.Println("Error closing connection:", err)
		}
	}

	return p.db.Close()
}
