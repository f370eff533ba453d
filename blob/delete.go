/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package blob

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/suparena/tablekit/errors"
)

// DeleteBlob deletes a blob. A missing blob or container is reported as a
// NotFoundError.
func (c *Client) DeleteBlob(ctx context.Context, container, name string) error {
	if err := validateNames(container, name); err != nil {
		return err
	}
	_, err := c.api.DeleteBlob(ctx, container, name, nil)
	c.metrics.BlobDeleted(container, err)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return fmt.Errorf("%w: %w", errors.NewNotFoundError("blob", container+"/"+name), err)
		}
		return fmt.Errorf("delete %s/%s: %w", container, name, err)
	}
	c.logger.Debug("deleted blob", slog.String("container", container), slog.String("blob", name))
	return nil
}

// DeleteBlobIfExists deletes a blob and reports whether it existed.
func (c *Client) DeleteBlobIfExists(ctx context.Context, container, name string) (bool, error) {
	err := c.DeleteBlob(ctx, container, name)
	switch {
	case err == nil:
		return true, nil
	case errors.IsNotFound(err):
		return false, nil
	default:
		return false, err
	}
}
