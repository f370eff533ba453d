/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/suparena/tablekit/datastore/mock"
	"github.com/suparena/tablekit/entity"
	"github.com/suparena/tablekit/errors"
	"github.com/suparena/tablekit/storagemodels"
)

func record(pk, rk string, props entity.Properties) entity.Record {
	return entity.Record{PartitionKey: pk, RowKey: rk, Properties: props}
}

func TestMockTable(t *testing.T) {
	ctx := context.Background()

	t.Run("BasicOperations", func(t *testing.T) {
		tbl := mock.New("orders")

		stored, err := tbl.Insert(ctx, record("p", "r", entity.Properties{"A": entity.NewString("a")}))
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if stored.ETag == "" || stored.Timestamp.IsZero() {
			t.Fatalf("Insert should assign ETag and Timestamp: %+v", stored)
		}

		_, err = tbl.Insert(ctx, record("p", "r", nil))
		if !errors.IsAlreadyExists(err) {
			t.Fatalf("Expected already exists error, got: %v", err)
		}

		got, err := tbl.Retrieve(ctx, "p", "r")
		if err != nil {
			t.Fatalf("Retrieve failed: %v", err)
		}
		if got.ETag != stored.ETag || !got.Properties["A"].Equal(entity.NewString("a")) {
			t.Fatalf("Retrieved record mismatch: %+v", got)
		}

		if err := tbl.Delete(ctx, "p", "r", stored.ETag); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := tbl.Retrieve(ctx, "p", "r"); !errors.IsNotFound(err) {
			t.Fatalf("Expected not found error, got: %v", err)
		}
	})

	t.Run("MergeVersusReplace", func(t *testing.T) {
		tbl := mock.New("orders")
		_, err := tbl.Insert(ctx, record("p", "r", entity.Properties{
			"P": entity.NewString("keep"),
			"Q": entity.NewInt32(1),
		}))
		if err != nil {
			t.Fatal(err)
		}

		patch := record("p", "r", entity.Properties{"Q": entity.NewInt32(2)})
		patch.ETag = entity.AnyETag
		merged, err := tbl.Merge(ctx, patch)
		if err != nil {
			t.Fatalf("Merge failed: %v", err)
		}
		if !merged.Properties["P"].Equal(entity.NewString("keep")) {
			t.Error("Merge should leave unsupplied properties untouched")
		}

		replaced, err := tbl.Replace(ctx, patch)
		if err != nil {
			t.Fatalf("Replace failed: %v", err)
		}
		if _, ok := replaced.Properties["P"]; ok {
			t.Error("Replace should clear unsupplied properties")
		}
	})

	t.Run("ETagChecks", func(t *testing.T) {
		tbl := mock.New("orders")
		v1, _ := tbl.Insert(ctx, record("p", "r", nil))
		v2, err := tbl.InsertOrReplace(ctx, record("p", "r", nil))
		if err != nil {
			t.Fatal(err)
		}
		if v1.ETag == v2.ETag {
			t.Fatal("every write should produce a new ETag")
		}

		stale := record("p", "r", nil)
		stale.ETag = v1.ETag
		if _, err := tbl.Replace(ctx, stale); !errors.IsConditionFailed(err) {
			t.Errorf("Expected condition failed, got: %v", err)
		}
		if _, err := tbl.Merge(ctx, stale); !errors.IsConditionFailed(err) {
			t.Errorf("Expected condition failed, got: %v", err)
		}
		if err := tbl.Delete(ctx, "p", "r", v1.ETag); !errors.IsConditionFailed(err) {
			t.Errorf("Expected condition failed, got: %v", err)
		}
		if err := tbl.Delete(ctx, "p", "r", ""); !errors.IsValidationError(err) {
			t.Errorf("Expected validation error for empty etag, got: %v", err)
		}

		missing := record("p", "nope", nil)
		missing.ETag = "*"
		if _, err := tbl.Merge(ctx, missing); !errors.IsNotFound(err) {
			t.Errorf("Expected not found, got: %v", err)
		}
		if err := tbl.Delete(ctx, "p", "nope", "*"); !errors.IsNotFound(err) {
			t.Errorf("Expected not found, got: %v", err)
		}
	})

	t.Run("InsertOrMerge", func(t *testing.T) {
		tbl := mock.New("orders")
		if _, err := tbl.InsertOrMerge(ctx, record("p", "r", entity.Properties{"A": entity.NewString("a")})); err != nil {
			t.Fatal(err)
		}
		got, err := tbl.InsertOrMerge(ctx, record("p", "r", entity.Properties{"B": entity.NewString("b")}))
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Properties) != 2 {
			t.Errorf("Expected merged properties, got %v", got.Properties)
		}
	})

	t.Run("ErrorSimulation", func(t *testing.T) {
		insertErr := fmt.Errorf("throttled")
		deleteErr := errors.NewConditionFailedError("delete", "version mismatch")
		tbl := mock.New("orders").WithInsertError(insertErr).WithDeleteError(deleteErr)

		if _, err := tbl.Insert(ctx, record("p", "r", nil)); err != insertErr {
			t.Fatalf("Expected insert error, got: %v", err)
		}
		if err := tbl.Delete(ctx, "p", "r", "*"); err != deleteErr {
			t.Fatalf("Expected delete error, got: %v", err)
		}

		queryErr := fmt.Errorf("query failed")
		tbl.WithQueryError(queryErr)
		var got error
		for res := range tbl.QueryPartition(ctx, storagemodels.PartitionQuery{PartitionKey: "p"}) {
			got = res.Error
		}
		if got != queryErr {
			t.Fatalf("Expected query error, got: %v", got)
		}
	})
}

func TestQueryPartition(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tbl := mock.New("orders").WithClock(func() time.Time { return clock })

	for _, rk := range []string{"b-2", "a-1", "b-1", "c-1"} {
		if _, err := tbl.Insert(ctx, record("p", rk, nil)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := tbl.Insert(ctx, record("other", "a-0", nil)); err != nil {
		t.Fatal(err)
	}

	collect := func(q storagemodels.PartitionQuery) []string {
		var keys []string
		for res := range tbl.QueryPartition(ctx, q, storagemodels.WithBufferSize(1)) {
			if res.Error != nil {
				t.Fatalf("unexpected error: %v", res.Error)
			}
			keys = append(keys, res.Item.RowKey)
		}
		return keys
	}

	if got := fmt.Sprint(collect(storagemodels.PartitionQuery{PartitionKey: "p"})); got != "[a-1 b-1 b-2 c-1]" {
		t.Errorf("unexpected order %s", got)
	}
	if got := fmt.Sprint(collect(storagemodels.PartitionQuery{PartitionKey: "p", RowKeyPrefix: "b-"})); got != "[b-1 b-2]" {
		t.Errorf("unexpected prefix result %s", got)
	}
	if got := fmt.Sprint(collect(storagemodels.PartitionQuery{PartitionKey: "p", Limit: 2, Descending: true})); got != "[c-1 b-2]" {
		t.Errorf("unexpected descending result %s", got)
	}
	if tbl.Count() != 5 {
		t.Errorf("Expected 5 records, got %d", tbl.Count())
	}
	if recs := tbl.Records(); recs[0].PartitionKey != "other" || !recs[0].Timestamp.Equal(clock) {
		t.Errorf("unexpected first record %+v", recs[0])
	}
}

func TestQueryPartitionCancel(t *testing.T) {
	tbl := mock.New("orders")
	for i := 0; i < 10; i++ {
		tbl.Put(entity.Record{PartitionKey: "p", RowKey: fmt.Sprintf("r%02d", i)})
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := tbl.QueryPartition(ctx, storagemodels.PartitionQuery{PartitionKey: "p"}, storagemodels.WithBufferSize(0))
	<-ch
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream did not close after cancel")
		}
	}
}

func TestOpenerReusesTables(t *testing.T) {
	open := mock.Opener()
	a, _ := open(context.Background(), "t1")
	b, _ := open(context.Background(), "t1")
	c, _ := open(context.Background(), "t2")
	if a != b || a == c {
		t.Error("Opener should return one table per name")
	}
	if a.Name() != "t1" {
		t.Errorf("unexpected name %q", a.Name())
	}
}
