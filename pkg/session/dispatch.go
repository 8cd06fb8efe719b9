package session

import "context"

// future holds the result of an operation started by dispatch.
type future struct {
	err  error
	done chan struct{}
}

// dispatch runs fn in its own goroutine and returns immediately.
// A context that is already cancelled short-circuits without calling fn.
func dispatch(ctx context.Context, fn func(context.Context) error) *future {
	f := &future{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.err = fn(ctx)
	}()

	return f
}

// await blocks until the operation completes and returns its error.
func (f *future) await() error {
	<-f.done
	return f.err
}
