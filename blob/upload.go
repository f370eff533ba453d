/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package blob

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	blobsdk "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/suparena/tablekit/errors"
)

const (
	uploadAttempts = 3

	// BlockSize is the staged block size of stream uploads.
	BlockSize = 1 << 20
	// Concurrency is the number of blocks uploaded in parallel.
	Concurrency = 4
)

// UploadOptions sets optional blob properties.
type UploadOptions struct {
	ContentType     string
	ContentEncoding string
	Metadata        map[string]*string
}

// Ref identifies an uploaded blob.
type Ref struct {
	Container    string
	Name         string
	ETag         string
	LastModified time.Time
}

// UploadBlockBlobFromStream uploads r as a block blob. Failures reported by
// the storage service are retried, up to three attempts in all, and a missing
// container is created before the next attempt. Other errors, such as a
// failing reader, are returned at once. Readers implementing io.Seeker are
// rewound between attempts; other readers are not retried once data has been
// read.
func (c *Client) UploadBlockBlobFromStream(ctx context.Context, container, name string, r io.Reader, opts *UploadOptions) (Ref, error) {
	if err := validateNames(container, name); err != nil {
		return Ref{}, err
	}
	if r == nil {
		return Ref{}, errors.NewValidationError("stream", "must not be nil")
	}

	rewind := rewinder(r)
	body := &countingReader{r: r}
	uploadOpts := streamOptions(opts)

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			if err := rewind(body); err != nil {
				return Ref{}, fmt.Errorf("cannot retry upload of %s/%s: %w", container, name, lastErr)
			}
		}

		resp, err := c.api.UploadStream(ctx, container, name, body, uploadOpts)
		c.metrics.UploadAttempt(container, err)
		if err == nil {
			return refOf(container, name, resp), nil
		}
		lastErr = err

		c.logger.Warn("blob upload failed",
			slog.String("container", container),
			slog.String("blob", name),
			slog.Int("attempt", attempt),
			slog.Any("error", err))

		if !isServiceError(err) {
			return Ref{}, fmt.Errorf("upload %s/%s: %w", container, name, err)
		}
		if ctx.Err() != nil {
			break
		}
		if isContainerNotFound(err) {
			if err := c.createContainer(ctx, container); err != nil {
				c.logger.Warn("container creation failed",
					slog.String("container", container),
					slog.Any("error", err))
			}
		}
	}
	return Ref{}, fmt.Errorf("upload %s/%s: %w", container, name, lastErr)
}

func isServiceError(err error) bool {
	var respErr *azcore.ResponseError
	return stderrors.As(err, &respErr)
}

func (c *Client) createContainer(ctx context.Context, container string) error {
	_, err := c.api.CreateContainer(ctx, container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return err
	}
	if err == nil {
		c.metrics.ContainerCreated()
		c.logger.Info("created blob container", slog.String("container", container))
	}
	return nil
}

func streamOptions(opts *UploadOptions) *azblob.UploadStreamOptions {
	out := &azblob.UploadStreamOptions{
		BlockSize:   BlockSize,
		Concurrency: Concurrency,
	}
	if opts == nil {
		return out
	}
	if opts.ContentType != "" || opts.ContentEncoding != "" {
		out.HTTPHeaders = &blobsdk.HTTPHeaders{}
		if opts.ContentType != "" {
			out.HTTPHeaders.BlobContentType = &opts.ContentType
		}
		if opts.ContentEncoding != "" {
			out.HTTPHeaders.BlobContentEncoding = &opts.ContentEncoding
		}
	}
	out.Metadata = opts.Metadata
	return out
}

func refOf(container, name string, resp azblob.UploadStreamResponse) Ref {
	ref := Ref{Container: container, Name: name}
	if resp.ETag != nil {
		ref.ETag = string(*resp.ETag)
	}
	if resp.LastModified != nil {
		ref.LastModified = *resp.LastModified
	}
	return ref
}

func isContainerNotFound(err error) bool {
	if bloberror.HasCode(err, bloberror.ContainerNotFound) {
		return true
	}
	var respErr *azcore.ResponseError
	return stderrors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

// countingReader records whether any data left the underlying reader.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// rewinder returns a function restoring the reader to its current offset.
// Pipes and other files that cannot seek are treated as plain readers.
func rewinder(r io.Reader) func(*countingReader) error {
	if seeker, ok := r.(io.Seeker); ok {
		if start, err := seeker.Seek(0, io.SeekCurrent); err == nil {
			return func(c *countingReader) error {
				if _, err := seeker.Seek(start, io.SeekStart); err != nil {
					return err
				}
				c.n = 0
				return nil
			}
		}
	}
	return func(c *countingReader) error {
		if c.n > 0 {
			return stderrors.New("stream is not seekable")
		}
		return nil
	}
}
