// Package refconn shares one backend connection between overlapping
// Connect/Disconnect pairs. A stash brackets every operation with a
// connect and a disconnect, so concurrent operations on one adapter
// must not close each other's connection.
package refconn

import (
	"context"
	"sync"

	"github.com/influxdata/stash/kit/errors"
)

// Conn opens the connection on the first Acquire and closes it on the
// matching last Release.
type Conn[C any] struct {
	mu     sync.Mutex
	refs   int
	conn   C
	dial   func(context.Context) (C, error)
	hangup func(context.Context, C) error
}

// New returns a Conn dialing with dial and hanging up with hangup.
func New[C any](dial func(context.Context) (C, error), hangup func(context.Context, C) error) *Conn[C] {
	return &Conn[C]{dial: dial, hangup: hangup}
}

// Acquire takes a reference, dialing when none is held.
func (c *Conn[C]) Acquire(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.refs == 0 {
		conn, err := c.dial(ctx)
		if err != nil {
			return err
		}
		c.conn = conn
	}
	c.refs++
	return nil
}

// Release drops a reference, closing the connection with the last one.
// Releasing without a reference is a no-op.
func (c *Conn[C]) Release(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.refs == 0 {
		return nil
	}
	c.refs--
	if c.refs > 0 {
		return nil
	}

	conn := c.conn
	var zero C
	c.conn = zero
	return c.hangup(ctx, conn)
}

// Get returns the open connection. op names the caller in the
// EUnavailable error returned when nothing is connected.
func (c *Conn[C]) Get(op string) (C, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.refs == 0 {
		var zero C
		return zero, errors.NewError(
			errors.WithErrorCode(errors.EUnavailable),
			errors.WithErrorOp(op),
			errors.WithErrorMsg("adapter is not connected"),
		)
	}
	return c.conn, nil
}

// Refs returns the number of references held.
func (c *Conn[C]) Refs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refs
}
