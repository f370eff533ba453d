/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package blob

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/suparena/tablekit/errors"
	"github.com/suparena/tablekit/metrics"
)

// Default SDK retry policy: exponential, starting at 100ms, 10 retries.
const (
	DefaultRetryDelay = 100 * time.Millisecond
	DefaultMaxRetries = 10
)

// API is the part of the blob SDK the client calls. *azblob.Client
// satisfies it.
type API interface {
	CreateContainer(ctx context.Context, containerName string, o *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error)
	DeleteBlob(ctx context.Context, containerName, blobName string, o *azblob.DeleteBlobOptions) (azblob.DeleteBlobResponse, error)
	UploadStream(ctx context.Context, containerName, blobName string, body io.Reader, o *azblob.UploadStreamOptions) (azblob.UploadStreamResponse, error)
}

var _ API = (*azblob.Client)(nil)

// Config selects how to reach the blob service. The first non-empty of
// ConnectionString, AccountName/AccountKey and ServiceURL wins.
type Config struct {
	// ConnectionString is a storage account connection string.
	ConnectionString string
	// AccountName and AccountKey authenticate with a shared key against
	// ServiceURL, or the public endpoint of the account when ServiceURL is empty.
	AccountName string
	AccountKey  string
	// ServiceURL alone is used anonymously; append a SAS token to it for
	// delegated access.
	ServiceURL string

	MaxRetries int32
	RetryDelay time.Duration
}

// NewServiceClient builds the SDK client for cfg.
func NewServiceClient(cfg Config) (*azblob.Client, error) {
	opts := &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries: cfg.MaxRetries,
				RetryDelay: cfg.RetryDelay,
			},
		},
	}
	if opts.Retry.MaxRetries == 0 {
		opts.Retry.MaxRetries = DefaultMaxRetries
	}
	if opts.Retry.RetryDelay == 0 {
		opts.Retry.RetryDelay = DefaultRetryDelay
	}

	switch {
	case cfg.ConnectionString != "":
		return azblob.NewClientFromConnectionString(cfg.ConnectionString, opts)
	case cfg.AccountName != "" && cfg.AccountKey != "":
		cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		serviceURL := cfg.ServiceURL
		if serviceURL == "" {
			serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
		}
		return azblob.NewClientWithSharedKeyCredential(serviceURL, cred, opts)
	case strings.TrimSpace(cfg.ServiceURL) != "":
		return azblob.NewClientWithNoCredential(cfg.ServiceURL, opts)
	default:
		return nil, errors.NewValidationError("blob", "a connection string, account key or service URL is required")
	}
}

// Client wraps the blob SDK with container auto-creation and bounded upload
// retries.
type Client struct {
	api      API
	logger   *slog.Logger
	metrics  *metrics.Metrics
	attempts int
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records upload attempts, container creations and deletes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient wraps api.
func NewClient(api API, opts ...Option) (*Client, error) {
	if api == nil {
		return nil, errors.NewValidationError("api", "must not be nil")
	}
	c := &Client{
		api:      api,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		attempts: uploadAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Open builds the SDK client for cfg and wraps it.
func Open(cfg Config, opts ...Option) (*Client, error) {
	svc, err := NewServiceClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewClient(svc, opts...)
}

func validateNames(container, name string) error {
	if container == "" {
		return errors.NewValidationError("container", "empty string is not allowed")
	}
	if name == "" {
		return errors.NewValidationError("name", "empty string is not allowed")
	}
	return nil
}
