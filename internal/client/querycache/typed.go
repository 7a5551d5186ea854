package querycache

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Get returns the value under key when it is present and of type T.
func Get[T any](s *Store, key string) (T, bool) {
	var zero T
	value, ok := s.Read(key)
	if !ok {
		return zero, false
	}
	typed, ok := value.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Set stores value under key.
func Set[T any](s *Store, key string, value T) {
	s.Write(key, value)
}

// Modify rewrites the value under key with fn. Nothing is written when the key is absent
// or holds a value of another type. It reports whether a write happened.
func Modify[T any](s *Store, key string, fn func(current T) T) bool {
	_, written := s.Update(key, func(old any, ok bool) (any, bool) {
		if !ok {
			return nil, false
		}
		typed, match := old.(T)
		if !match {
			return nil, false
		}
		return fn(typed), true
	})
	return written
}

// Load returns the cached value for key, calling fetch only when nothing is cached yet.
// Concurrent loads of one key share a single fetch, which keeps running when the caller
// that started it gives up. The fetched value is retained until the key is invalidated;
// a fetch overtaken by a write or invalidation of key is not stored and later loads do not
// join it. Its callers get the newer cached value when there is one.
func Load[T any](ctx context.Context, s *Store, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if cached, ok := Get[T](s, key); ok {
		return cached, nil
	}

	gen := s.generation(key)
	ch := s.loads.DoChan(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		if cached, ok := Get[T](s, key); ok {
			return cached, nil
		}
		fetched, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if !s.writeAt(key, gen, fetched) {
			s.log.Debug("query load superseded", zap.String("key", key))
			if cached, ok := Get[T](s, key); ok {
				return cached, nil
			}
		}
		return fetched, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return zero, res.Err
	}

	typed, ok := res.Val.(T)
	if !ok {
		return zero, fmt.Errorf("querycache: %s holds %T", key, res.Val)
	}
	return typed, nil
}
