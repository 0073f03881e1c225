// Package closer collects io.Closer resources so a program can release them
// together on shutdown.
package closer

import (
	"errors"
	"fmt"
	"io"
	"runtime/debug"
)

// ErrPanicDuringClose wraps a panic recovered by HandlePanic.
var ErrPanicDuringClose = errors.New("panic during close")

type customCloser struct {
	closeFn func() error
}

// CustomCloser creates an io.Closer from a cleanup function. It returns nil
// for a nil function.
func CustomCloser(closeFn func() error) io.Closer {
	if closeFn == nil {
		return nil
	}

	return &customCloser{closeFn: closeFn}
}

func (c *customCloser) Close() error {
	return c.closeFn()
}

// Closer closes a set of io.Closers in the order they were added. Every
// closer is attempted even if an earlier one fails.
type Closer struct {
	closers []io.Closer
}

// NewCloser creates a new Closer with zero or more initial io.Closer instances.
func NewCloser(closers ...io.Closer) *Closer {
	return &Closer{closers: closers}
}

// Add adds an io.Closer to the collection. Nil closers are skipped on Close.
// Add is not safe for concurrent use.
func (c *Closer) Add(closer io.Closer) {
	c.closers = append(c.closers, closer)
}

// Close closes all registered closers and joins their errors.
func (c *Closer) Close() error {
	var errs []error

	for _, closer := range c.closers {
		if closer != nil {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}

// HandlePanic wraps an io.Closer so a panic in Close is returned as an
// error carrying the stack trace.
func HandlePanic(closer io.Closer) io.Closer {
	if closer == nil {
		return nil
	}

	if _, ok := closer.(*panicHandlingImpl); ok {
		return closer
	}

	return &panicHandlingImpl{closer: closer}
}

type panicHandlingImpl struct {
	closer io.Closer
}

func (p *panicHandlingImpl) Close() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err2 := fmt.Errorf("%w: %v\n%s", ErrPanicDuringClose, r, debug.Stack())
			if err == nil {
				err = err2
			} else {
				err = errors.Join(err, err2)
			}
		}
	}()

	return p.closer.Close()
}
