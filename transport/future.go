package transport

import "context"

// Future[T] is a single-value, single-producer result channel: the
// async counterpart to a steal RPC's reply (spec.md §4.4 "the steal
// request/response is conceptually an RPC call"). It is the in-process
// stand-in for the teacher's goroutine-plus-channel fan-in idiom
// (workerpool.go Run), narrowed to one value instead of a stream.
type Future[T any] struct {
	ch chan T
}

// NewFuture creates a Future together with the Resolve function its
// producer uses to complete it exactly once.
func NewFuture[T any]() (Future[T], func(T)) {
	ch := make(chan T, 1)
	resolve := func(v T) {
		select {
		case ch <- v:
		default:
		}
	}
	return Future[T]{ch: ch}, resolve
}

// Wait blocks until the future resolves or ctx is done, whichever comes
// first. The zero value of T is returned alongside ctx.Err() on timeout.
func (f Future[T]) Wait(ctx context.Context) (T, error) {
	var zero T
	select {
	case v := <-f.ch:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// WaitAll blocks until every future in fs has resolved, returning
// results in the same order, or until ctx is done.
func WaitAll[T any](ctx context.Context, fs []Future[T]) ([]T, error) {
	out := make([]T, len(fs))
	for i, f := range fs {
		v, err := f.Wait(ctx)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// WaitAny returns the index and value of whichever future in fs
// resolves first. The stealstack package does not use it: its probe
// fan-out collects answers over its own channel.
func WaitAny[T any](ctx context.Context, fs []Future[T]) (int, T, error) {
	var zero T
	if len(fs) == 0 {
		return -1, zero, context.Canceled
	}

	type result struct {
		idx int
		val T
	}
	results := make(chan result, len(fs))
	for i, f := range fs {
		go func(idx int, f Future[T]) {
			v, err := f.Wait(ctx)
			if err == nil {
				results <- result{idx: idx, val: v}
			}
		}(i, f)
	}

	select {
	case r := <-results:
		return r.idx, r.val, nil
	case <-ctx.Done():
		return -1, zero, ctx.Err()
	}
}
