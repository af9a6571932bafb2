// Copyright 2026 © The Dirigent Authors
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"time"

	"github.com/dirigent-ai/dirigent/pkg/errors"
)

// WithTimeout executes fn with a deadline. A zero duration means no limit.
// Returns errors.CodeTimeout when the deadline is exceeded; fn keeps running
// in its goroutine, so it must honor ctx to avoid leaking work.
func WithTimeout(ctx context.Context, d time.Duration, fn func(context.Context) error) error {
	if d == 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(ctx)
	}()

	select {
	case <-ctx.Done():
		return errors.New(errors.CodeTimeout, "operation exceeded timeout", ctx.Err()).
			WithContext("timeout", d.String()).
			WithRecoverable(true)
	case err := <-done:
		return err
	}
}
