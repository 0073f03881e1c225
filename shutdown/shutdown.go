// Package shutdown runs registered hooks when the process is asked to stop,
// either by SIGINT/SIGTERM or programmatically.
package shutdown

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

type hook struct {
	id uint64
	fn func()
}

var (
	mut     sync.Mutex     //nolint:gochecknoglobals
	hooks   []hook         //nolint:gochecknoglobals
	nextID  uint64         //nolint:gochecknoglobals
	channel chan os.Signal //nolint:gochecknoglobals
)

// BeforeShutdown registers a function to be called before the shutdown
// context is cancelled. Hooks run in registration order. The returned
// function removes the hook again; it is safe to call more than once.
func BeforeShutdown(h func()) (remove func()) {
	mut.Lock()
	defer mut.Unlock()

	nextID++
	id := nextID
	hooks = append(hooks, hook{id: id, fn: h})

	return func() {
		mut.Lock()
		defer mut.Unlock()

		for i, registered := range hooks {
			if registered.id == id {
				hooks = append(hooks[:i:i], hooks[i+1:]...)

				return
			}
		}
	}
}

// Shutdown triggers the shutdown process programmatically.
func Shutdown() {
	mut.Lock()
	ch := channel
	mut.Unlock()

	if ch != nil {
		select {
		case ch <- os.Interrupt:
		default:
		}
	}
}

// SetupHandler installs a SIGINT/SIGTERM handler and returns a context that
// is cancelled after every hook has run.
func SetupHandler() context.Context {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	mut.Lock()
	channel = ch
	mut.Unlock()

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sig := <-ch

		slog.Warn("Received " + sig.String() + ", shutting down...")
		signal.Stop(ch)

		mut.Lock()
		channel = nil
		mut.Unlock()

		cleanup()
		cancel()
	}()

	return ctx
}

func cleanup() {
	mut.Lock()
	pending := hooks
	hooks = nil
	mut.Unlock()

	// Hooks run without the lock so they may register or remove hooks themselves.
	for _, h := range pending {
		h.fn()
	}
}
