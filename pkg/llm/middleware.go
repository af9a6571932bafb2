// Copyright 2026 © The Dirigent Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"time"

	"github.com/dirigent-ai/dirigent/pkg/resilience"
)

// RetryProvider wraps a provider with retry on transient failures. The run
// loop treats completion failures as fatal, so any retry policy lives here,
// in front of the transport.
type RetryProvider struct {
	inner Provider
	retry resilience.RetryConfig
}

// NewRetryProvider wraps inner with the given retry configuration.
func NewRetryProvider(inner Provider, retry resilience.RetryConfig) *RetryProvider {
	return &RetryProvider{inner: inner, retry: retry}
}

// Chat retries the wrapped call per the retry configuration.
func (p *RetryProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var resp *ChatResponse
	err := p.retry.Do(ctx, func() error {
		var callErr error
		resp, callErr = p.inner.Chat(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// TimeoutProvider bounds each completion call with a deadline.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// NewTimeoutProvider wraps inner so every Chat call gets its own deadline.
func NewTimeoutProvider(inner Provider, timeout time.Duration) *TimeoutProvider {
	return &TimeoutProvider{inner: inner, timeout: timeout}
}

// Chat calls the wrapped provider under the configured deadline.
func (p *TimeoutProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var resp *ChatResponse
	err := resilience.WithTimeout(ctx, p.timeout, func(ctx context.Context) error {
		var callErr error
		resp, callErr = p.inner.Chat(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
