/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/tablekit/datastore"
	"github.com/suparena/tablekit/entity"
	"github.com/suparena/tablekit/errors"
	"github.com/suparena/tablekit/metrics"
)

// Table implements datastore.Table on one DynamoDB table whose key schema is
// PK (hash) and SK (range), both strings.
type Table struct {
	client  API
	name    string
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

var _ datastore.Table = (*Table)(nil)

// Option configures a Table.
type Option func(*Table)

func WithLogger(l *slog.Logger) Option {
	return func(t *Table) {
		if l != nil {
			t.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Table) {
		t.metrics = m
	}
}

// WithClock sets the time source for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Table) {
		t.now = now
	}
}

// NewTable binds a table name to a client.
func NewTable(client API, name string, opts ...Option) (*Table, error) {
	if client == nil {
		return nil, errors.NewValidationError("client", "must not be nil")
	}
	if name == "" {
		return nil, errors.NewValidationError("tableName", "must not be empty")
	}
	t := &Table{
		client: client,
		name:   name,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With(slog.String("table", name))
	return t, nil
}

// Opener returns a datastore.Opener backed by client.
func Opener(client API, opts ...Option) datastore.Opener {
	return func(_ context.Context, name string) (datastore.Table, error) {
		return NewTable(client, name, opts...)
	}
}

func (t *Table) Name() string { return t.name }

func (t *Table) Insert(ctx context.Context, rec entity.Record) (_ entity.Record, err error) {
	defer t.observe("insert", time.Now(), &err)

	item, stored, err := t.newVersion(rec)
	if err != nil {
		return entity.Record{}, err
	}
	_, err = t.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:                &t.name,
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": AttrPartitionKey},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if stderrors.As(err, &cfe) {
			return entity.Record{}, errors.NewAlreadyExistsError("entity", rec.Key())
		}
		return entity.Record{}, fmt.Errorf("PutItem failed: %w", err)
	}
	return stored, nil
}

func (t *Table) InsertOrReplace(ctx context.Context, rec entity.Record) (_ entity.Record, err error) {
	defer t.observe("insert_or_replace", time.Now(), &err)

	item, stored, err := t.newVersion(rec)
	if err != nil {
		return entity.Record{}, err
	}
	if _, err = t.client.PutItem(ctx, &sdk.PutItemInput{TableName: &t.name, Item: item}); err != nil {
		return entity.Record{}, fmt.Errorf("PutItem failed: %w", err)
	}
	return stored, nil
}

func (t *Table) InsertOrMerge(ctx context.Context, rec entity.Record) (_ entity.Record, err error) {
	defer t.observe("insert_or_merge", time.Now(), &err)
	return t.update(ctx, "insert_or_merge", rec, nil)
}

func (t *Table) Merge(ctx context.Context, rec entity.Record) (_ entity.Record, err error) {
	defer t.observe("merge", time.Now(), &err)

	if err := datastore.RequireETag("merge", rec.ETag); err != nil {
		return entity.Record{}, err
	}
	return t.update(ctx, "merge", rec, newCondition(rec.ETag))
}

func (t *Table) Replace(ctx context.Context, rec entity.Record) (_ entity.Record, err error) {
	defer t.observe("replace", time.Now(), &err)

	if err := datastore.RequireETag("replace", rec.ETag); err != nil {
		return entity.Record{}, err
	}
	item, stored, err := t.newVersion(rec)
	if err != nil {
		return entity.Record{}, err
	}
	cond := newCondition(rec.ETag)
	_, err = t.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:                           &t.name,
		Item:                                item,
		ConditionExpression:                 aws.String(cond.expr),
		ExpressionAttributeNames:            cond.names,
		ExpressionAttributeValues:           cond.values,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		return entity.Record{}, t.conditionError("replace", rec.Key(), rec.ETag, err)
	}
	return stored, nil
}

func (t *Table) Retrieve(ctx context.Context, partitionKey, rowKey string) (_ entity.Record, err error) {
	defer t.observe("retrieve", time.Now(), &err)

	if err := validateKey(partitionKey, rowKey); err != nil {
		return entity.Record{}, err
	}
	out, err := t.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:      &t.name,
		Key:            keyOf(partitionKey, rowKey),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entity.Record{}, fmt.Errorf("GetItem error: %w", err)
	}
	if len(out.Item) == 0 {
		return entity.Record{}, errors.NewNotFoundError("entity", partitionKey+"/"+rowKey)
	}
	return fromItem(out.Item)
}

func (t *Table) Delete(ctx context.Context, partitionKey, rowKey, etag string) (err error) {
	defer t.observe("delete", time.Now(), &err)

	if err := validateKey(partitionKey, rowKey); err != nil {
		return err
	}
	if err := datastore.RequireETag("delete", etag); err != nil {
		return err
	}
	cond := newCondition(etag)
	_, err = t.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName:                           &t.name,
		Key:                                 keyOf(partitionKey, rowKey),
		ConditionExpression:                 aws.String(cond.expr),
		ExpressionAttributeNames:            cond.names,
		ExpressionAttributeValues:           cond.values,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		return t.conditionError("delete", partitionKey+"/"+rowKey, etag, err)
	}
	return nil
}

// update writes the supplied properties with UpdateItem, leaving other
// attributes alone. A nil cond makes it an upsert.
func (t *Table) update(ctx context.Context, op string, rec entity.Record, cond *condition) (entity.Record, error) {
	if err := validateKey(rec.PartitionKey, rec.RowKey); err != nil {
		return entity.Record{}, err
	}
	attrs, err := toAttributes(rec.Properties)
	if err != nil {
		return entity.Record{}, err
	}
	expr, names, values := buildUpdateExpression(attrs, datastore.NewETag(), t.now().UTC())

	input := &sdk.UpdateItemInput{
		TableName:                 &t.name,
		Key:                       keyOf(rec.PartitionKey, rec.RowKey),
		UpdateExpression:          &expr,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	}
	if cond != nil {
		input.ConditionExpression = aws.String(cond.expr)
		input.ReturnValuesOnConditionCheckFailure = types.ReturnValuesOnConditionCheckFailureAllOld
		for k, v := range cond.names {
			names[k] = v
		}
		for k, v := range cond.values {
			values[k] = v
		}
	}

	out, err := t.client.UpdateItem(ctx, input)
	if err != nil {
		return entity.Record{}, t.conditionError(op, rec.Key(), rec.ETag, err)
	}
	return fromItem(out.Attributes)
}

// newVersion builds the full item for rec with a fresh ETag and timestamp,
// and the record as it will be stored.
func (t *Table) newVersion(rec entity.Record) (map[string]types.AttributeValue, entity.Record, error) {
	if err := validateKey(rec.PartitionKey, rec.RowKey); err != nil {
		return nil, entity.Record{}, err
	}
	item, err := toAttributes(rec.Properties)
	if err != nil {
		return nil, entity.Record{}, err
	}

	stored := entity.Record{
		PartitionKey: rec.PartitionKey,
		RowKey:       rec.RowKey,
		ETag:         datastore.NewETag(),
		Timestamp:    t.now().UTC(),
		Properties:   rec.Properties.Clone(),
	}
	if stored.Properties == nil {
		stored.Properties = entity.Properties{}
	}
	for k, v := range keyOf(rec.PartitionKey, rec.RowKey) {
		item[k] = v
	}
	item[AttrETag] = &types.AttributeValueMemberS{Value: stored.ETag}
	item[AttrTimestamp] = &types.AttributeValueMemberS{Value: stored.Timestamp.Format(time.RFC3339Nano)}
	return item, stored, nil
}

type condition struct {
	expr   string
	names  map[string]string
	values map[string]types.AttributeValue
}

// newCondition requires the item to exist and, unless etag is "*", to carry
// that ETag.
func newCondition(etag string) *condition {
	c := &condition{
		expr:  "attribute_exists(#pk)",
		names: map[string]string{"#pk": AttrPartitionKey},
	}
	if etag != entity.AnyETag {
		c.expr += " AND #etag = :etag"
		c.names["#etag"] = AttrETag
		c.values = map[string]types.AttributeValue{":etag": &types.AttributeValueMemberS{Value: etag}}
	}
	return c
}

// conditionError tells a missing item from an ETag mismatch using the old
// item DynamoDB returns with the failure.
func (t *Table) conditionError(op, key, etag string, err error) error {
	var cfe *types.ConditionalCheckFailedException
	if !stderrors.As(err, &cfe) {
		return fmt.Errorf("%s %s: %w", op, key, err)
	}
	if len(cfe.Item) == 0 {
		return errors.NewNotFoundError("entity", key)
	}
	return errors.NewConditionFailedError(op, fmt.Sprintf("etag %s does not match %s", etag, stringAttr(cfe.Item[AttrETag])))
}

// buildUpdateExpression turns attributes into a SET expression that also
// stamps the new ETag and timestamp. Names are sorted so the expression is
// stable.
func buildUpdateExpression(attrs map[string]types.AttributeValue, etag string, ts time.Time) (string, map[string]string, map[string]types.AttributeValue) {
	fields := make([]string, 0, len(attrs))
	for name := range attrs {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	setClauses := make([]string, 0, len(fields)+2)
	names := make(map[string]string, len(fields)+2)
	values := make(map[string]types.AttributeValue, len(fields)+2)

	for i, field := range fields {
		n, v := fmt.Sprintf("#f%d", i), fmt.Sprintf(":v%d", i)
		setClauses = append(setClauses, n+" = "+v)
		names[n] = field
		values[v] = attrs[field]
	}

	setClauses = append(setClauses, "#newetag = :newetag", "#newts = :newts")
	names["#newetag"] = AttrETag
	names["#newts"] = AttrTimestamp
	values[":newetag"] = &types.AttributeValueMemberS{Value: etag}
	values[":newts"] = &types.AttributeValueMemberS{Value: ts.Format(time.RFC3339Nano)}

	return "SET " + strings.Join(setClauses, ", "), names, values
}

func (t *Table) observe(op string, start time.Time, err *error) {
	t.metrics.ObserveTable(t.name, op, start, *err)
	if *err != nil {
		t.logger.Debug("table operation failed", slog.String("op", op), slog.Any("error", *err))
	}
}
