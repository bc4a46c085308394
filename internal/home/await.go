package home

import (
	"context"

	"github.com/nerrad567/homegraph/internal/host"
)

// Await runs a callback-style write and blocks until it completes or ctx is
// done. Cancelling ctx stops the wait only; the write itself continues in
// the host.
//
// Example:
//
//	err := home.Await(ctx, func(done host.Completion) {
//	    light.Brightness.Set(60, done)
//	})
func Await(ctx context.Context, write func(done host.Completion)) error {
	result := make(chan error, 1)
	write(once(func(err error) {
		result <- err
	}))

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
