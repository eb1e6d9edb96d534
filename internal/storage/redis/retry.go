package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/mcoot/fleetgame-go/internal/model"
)

// withRetry runs op, retrying connection failures with exponential backoff.
// Any other error, including a rejected mutator, is returned on first sight.
// When retries run out the failure surfaces as ErrStoreUnavailable.
func (s *Storage) withRetry(ctx context.Context, op func() error) error {
	eb := backoff.NewExponentialBackOff()
	if s.cfg.RetryInitialInterval > 0 {
		eb.InitialInterval = s.cfg.RetryInitialInterval
	}
	b := backoff.WithContext(backoff.WithMaxRetries(eb, s.cfg.RetryMaxAttempts), ctx)

	var result error
	err := backoff.Retry(func() error {
		result = op()
		if isTransient(result) {
			return result
		}
		return nil
	}, b)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	return result
}

// transact replays fn while a watched key keeps changing underneath it
func (s *Storage) transact(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	return s.withRetry(ctx, func() error {
		for i := 0; i < s.cfg.MaxTxRetries; i++ {
			err := s.client.Watch(ctx, fn, keys...)
			if !errors.Is(err, redis.TxFailedErr) {
				return err
			}
		}
		return model.ErrStoreConflict
	})
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, redis.ErrClosed)
}
