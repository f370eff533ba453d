/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"

	"github.com/suparena/tablekit/entity"
	"github.com/suparena/tablekit/errors"
)

// liveTable connects to the table named by TABLEKIT_DDB_TABLE, loading a
// .env file first when present. The test is skipped without one.
func liveTable(t *testing.T) *Table {
	t.Helper()
	_ = godotenv.Load()

	name := os.Getenv("TABLEKIT_DDB_TABLE")
	if name == "" || testing.Short() {
		t.Skip("TABLEKIT_DDB_TABLE not set, skipping DynamoDB integration test")
	}

	client, err := NewDynamoDBClient(context.Background(), ClientConfig{
		AccessKey: os.Getenv("AWS_ACCESS_KEY"),
		SecretKey: os.Getenv("AWS_SECRET_KEY"),
		Region:    os.Getenv("AWS_REGION"),
		Endpoint:  os.Getenv("TABLEKIT_DDB_ENDPOINT"),
	})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	tbl, err := NewTable(client, name)
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	return tbl
}

func TestLiveMergeAndReplace(t *testing.T) {
	tbl := liveTable(t)
	ctx := context.Background()

	rec := entity.Record{
		PartitionKey: "tablekit-it",
		RowKey:       "merge-replace",
		Properties: entity.Properties{
			"P": entity.NewString("keep"),
			"Q": entity.NewInt32(1),
		},
	}
	stored, err := tbl.InsertOrReplace(ctx, rec)
	if err != nil {
		t.Fatalf("InsertOrReplace failed: %v", err)
	}
	t.Cleanup(func() { _ = tbl.Delete(ctx, rec.PartitionKey, rec.RowKey, entity.AnyETag) })

	patch := entity.Record{
		PartitionKey: rec.PartitionKey,
		RowKey:       rec.RowKey,
		ETag:         stored.ETag,
		Properties:   entity.Properties{"Q": entity.NewInt32(2)},
	}
	merged, err := tbl.Merge(ctx, patch)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if p, ok := merged.Properties["P"]; !ok || !p.Equal(entity.NewString("keep")) {
		t.Errorf("merge should keep P, got %v", merged.Properties)
	}

	// the first ETag is stale now
	if _, err := tbl.Replace(ctx, patch); !errors.IsConditionFailed(err) {
		t.Errorf("expected condition failure with stale etag, got %v", err)
	}

	patch.ETag = merged.ETag
	if _, err := tbl.Replace(ctx, patch); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	got, err := tbl.Retrieve(ctx, rec.PartitionKey, rec.RowKey)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if _, ok := got.Properties["P"]; ok {
		t.Error("replace should clear P")
	}
}
