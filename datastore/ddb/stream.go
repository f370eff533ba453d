/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	smithy "github.com/aws/smithy-go"

	"github.com/suparena/tablekit/entity"
	"github.com/suparena/tablekit/errors"
	"github.com/suparena/tablekit/storagemodels"
)

// QueryPartition streams the records of one partition page by page,
// retrying throttled pages with linear backoff.
func (t *Table) QueryPartition(ctx context.Context, q storagemodels.PartitionQuery, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[entity.Record] {
	options := storagemodels.Apply(opts...)
	resultCh := make(chan storagemodels.StreamResult[entity.Record], options.BufferSize)

	if q.PartitionKey == "" {
		go func() {
			defer close(resultCh)
			send(ctx, resultCh, storagemodels.StreamResult[entity.Record]{
				Error: errors.NewValidationError("PartitionKey", "must not be empty"),
			})
		}()
		return resultCh
	}

	go t.streamWorker(ctx, partitionInput(t.name, q, options), q.Limit, options, resultCh)
	return resultCh
}

func partitionInput(table string, q storagemodels.PartitionQuery, options storagemodels.StreamOptions) *sdk.QueryInput {
	keyCond := "#pk = :pk"
	names := map[string]string{"#pk": AttrPartitionKey}
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: q.PartitionKey},
	}
	if q.RowKeyPrefix != "" {
		keyCond += " AND begins_with(#sk, :prefix)"
		names["#sk"] = AttrRowKey
		values[":prefix"] = &types.AttributeValueMemberS{Value: q.RowKeyPrefix}
	}

	pageSize := options.PageSize
	if q.Limit > 0 && int32(q.Limit) < pageSize {
		pageSize = int32(q.Limit)
	}

	return &sdk.QueryInput{
		TableName:                 aws.String(table),
		KeyConditionExpression:    aws.String(keyCond),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		Limit:                     aws.Int32(pageSize),
		ScanIndexForward:          aws.Bool(!q.Descending),
		ConsistentRead:            aws.Bool(true),
	}
}

// streamWorker pages through the query and feeds resultCh until the
// partition, the limit or the context runs out.
func (t *Table) streamWorker(
	ctx context.Context,
	input *sdk.QueryInput,
	limit int,
	options storagemodels.StreamOptions,
	resultCh chan<- storagemodels.StreamResult[entity.Record],
) {
	defer close(resultCh)

	var itemIndex int64
	var pageNumber int
	var errs []error
	startTime := time.Now()

	reportProgress := func(lastKey map[string]types.AttributeValue) {
		if options.ProgressHandler == nil {
			return
		}
		progress := storagemodels.StreamProgress{
			ItemsProcessed: itemIndex,
			PagesProcessed: pageNumber,
			LastKey:        continuationKey(lastKey),
			Errors:         errs,
			StartTime:      startTime,
		}
		if elapsed := time.Since(startTime).Seconds(); elapsed > 0 {
			progress.CurrentRate = float64(progress.ItemsProcessed) / elapsed
		}
		options.ProgressHandler(progress)
	}

	for {
		if ctx.Err() != nil {
			return
		}

		out, err := t.queryWithRetry(ctx, input, options)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			send(ctx, resultCh, storagemodels.StreamResult[entity.Record]{
				Error: fmt.Errorf("query failed: %w", err),
				Meta:  storagemodels.StreamMeta{Index: itemIndex, PageNumber: pageNumber, Timestamp: time.Now()},
			})
			return
		}

		pageNumber++
		fetched := time.Now()

		for _, item := range out.Items {
			rec, err := fromItem(item)
			result := storagemodels.StreamResult[entity.Record]{
				Item:  rec,
				Error: err,
				Meta:  storagemodels.StreamMeta{Index: itemIndex, PageNumber: pageNumber, Timestamp: fetched},
			}
			if err != nil {
				errs = append(errs, err)
				if options.ErrorHandler != nil && options.ErrorHandler(err) {
					continue
				}
				send(ctx, resultCh, result)
				return
			}

			if !send(ctx, resultCh, result) {
				return
			}
			itemIndex++
			if limit > 0 && itemIndex >= int64(limit) {
				reportProgress(nil)
				return
			}
		}

		reportProgress(out.LastEvaluatedKey)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	reportProgress(nil)
}

// queryWithRetry executes one page query, retrying retryable errors.
func (t *Table) queryWithRetry(ctx context.Context, input *sdk.QueryInput, options storagemodels.StreamOptions) (*sdk.QueryOutput, error) {
	var lastErr error

	for attempt := 0; attempt <= options.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := t.client.Query(ctx, input)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return nil, err
		}

		if attempt < options.MaxRetries {
			backoff := time.Duration(attempt+1) * options.RetryBackoff
			t.logger.Debug("retrying partition query",
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
				slog.Any("error", err))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("query failed after %d retries: %w", options.MaxRetries, lastErr)
}

func send(ctx context.Context, ch chan<- storagemodels.StreamResult[entity.Record], r storagemodels.StreamResult[entity.Record]) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- r:
		return true
	}
}

func continuationKey(key map[string]types.AttributeValue) map[string]string {
	if len(key) == 0 {
		return nil
	}
	out := make(map[string]string, len(key))
	for k, v := range key {
		out[k] = stringAttr(v)
	}
	return out
}

// isRetryableError reports whether a DynamoDB error is worth retrying
func isRetryableError(err error) bool {
	var throughput *types.ProvisionedThroughputExceededException
	var limit *types.RequestLimitExceeded
	var internal *types.InternalServerError
	if stderrors.As(err, &throughput) || stderrors.As(err, &limit) || stderrors.As(err, &internal) {
		return true
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.ErrorFault() == smithy.FaultServer
	}

	if r, ok := err.(interface{ IsRetryable() bool }); ok {
		return r.IsRetryable()
	}
	return false
}
