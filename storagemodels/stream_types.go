/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"
)

// StreamResult is one streamed item, or the error that ended the stream.
type StreamResult[T any] struct {
	Item  T
	Error error
	Meta  StreamMeta
}

// StreamMeta describes where an item came from.
type StreamMeta struct {
	Index      int64     // 0-based position in the stream
	PageNumber int       // 1-based page the item was read from
	Timestamp  time.Time // when the page was fetched
}

// StreamOptions configures partition streaming.
type StreamOptions struct {
	BufferSize      int
	MaxRetries      int
	RetryBackoff    time.Duration
	PageSize        int32
	ProgressHandler func(StreamProgress)
	ErrorHandler    func(error) bool // return true to skip the item and continue
}

// StreamProgress is reported after every page.
type StreamProgress struct {
	ItemsProcessed int64
	PagesProcessed int
	LastKey        map[string]string // continuation key of the last page, nil at the end
	Errors         []error
	StartTime      time.Time
	CurrentRate    float64 // items per second
}

// StreamOption is a functional option for StreamOptions.
type StreamOption func(*StreamOptions)

// DefaultStreamOptions returns the defaults used when no option is given.
func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		BufferSize:   100,
		MaxRetries:   3,
		RetryBackoff: time.Second,
		PageSize:     100,
	}
}

// Apply returns the defaults with opts applied.
func Apply(opts ...StreamOption) StreamOptions {
	o := DefaultStreamOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithBufferSize(size int) StreamOption {
	return func(o *StreamOptions) {
		o.BufferSize = size
	}
}

func WithMaxRetries(retries int) StreamOption {
	return func(o *StreamOptions) {
		o.MaxRetries = retries
	}
}

func WithRetryBackoff(backoff time.Duration) StreamOption {
	return func(o *StreamOptions) {
		o.RetryBackoff = backoff
	}
}

// WithPageSize sets the number of items fetched per request.
func WithPageSize(size int32) StreamOption {
	return func(o *StreamOptions) {
		o.PageSize = size
	}
}

func WithProgressHandler(handler func(StreamProgress)) StreamOption {
	return func(o *StreamOptions) {
		o.ProgressHandler = handler
	}
}

// WithErrorHandler decides whether a per-item error stops the stream.
func WithErrorHandler(handler func(error) bool) StreamOption {
	return func(o *StreamOptions) {
		o.ErrorHandler = handler
	}
}
