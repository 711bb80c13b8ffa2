package evo

import (
	"context"

	"github.com/sourcegraph/conc/pool"

	"adhocnet/internal/network"
)

// Dispatcher runs n independent tasks. A task may only touch the state owned
// by its own index.
type Dispatcher interface {
	Dispatch(ctx context.Context, n int, task func(ctx context.Context, i int) error) error
}

type SerialDispatcher struct{}

func (SerialDispatcher) Dispatch(ctx context.Context, n int, task func(ctx context.Context, i int) error) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := task(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

// PoolDispatcher runs tasks on a bounded goroutine pool and cancels the rest
// after the first failure.
type PoolDispatcher struct {
	Workers int
}

func (d PoolDispatcher) Dispatch(ctx context.Context, n int, task func(ctx context.Context, i int) error) error {
	if n == 0 {
		return ctx.Err()
	}
	workers := d.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	p := pool.New().
		WithMaxGoroutines(workers).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()
	for i := 0; i < n; i++ {
		i := i
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return task(ctx, i)
		})
	}
	return p.Wait()
}

// NetworkImageSaver renders a network to an image file.
type NetworkImageSaver interface {
	SaveNetworkImage(net *network.Network, title, path string) error
}
