//go:build integration
// +build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablekit_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/suparena/tablekit"
	"github.com/suparena/tablekit/datastore/ddb"
	"github.com/suparena/tablekit/entity"
	"github.com/suparena/tablekit/registry"
	"github.com/suparena/tablekit/storagemodels"
)

// Test entities
type IntegrationOrder struct {
	entity.TableEntity
	UserID   string
	OrderID  string
	Total    decimal.Decimal
	Quantity int16
	Shipped  *time.Time
}

func init() {
	if err := registry.RegisterKeyMap[IntegrationOrder](map[string]string{
		registry.PartitionKey: "USER#{UserID}",
		registry.RowKey:       "ORDER#{OrderID}",
	}); err != nil {
		panic(err)
	}
}

func setupAccount(t *testing.T) (*tablekit.Account, string) {
	t.Helper()
	_ = godotenv.Load()

	tableName := os.Getenv("TABLEKIT_DDB_TABLE")
	if tableName == "" {
		t.Skip("TABLEKIT_DDB_TABLE not set, skipping integration test")
	}

	client, err := ddb.NewDynamoDBClient(context.Background(), ddb.ClientConfig{
		AccessKey: os.Getenv("AWS_ACCESS_KEY"),
		SecretKey: os.Getenv("AWS_SECRET_KEY"),
		Region:    os.Getenv("AWS_REGION"),
		Endpoint:  os.Getenv("TABLEKIT_DDB_ENDPOINT"),
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	account, err := tablekit.NewAccount(ddb.Opener(client))
	if err != nil {
		t.Fatalf("Failed to create account: %v", err)
	}
	return account, tableName
}

func TestIntegrationOrderLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	account, table := setupAccount(t)
	orders, err := tablekit.OpenEntityStore[IntegrationOrder](ctx, account, table)
	if err != nil {
		t.Fatal(err)
	}

	userID := fmt.Sprintf("it-%d", time.Now().UnixNano())
	shipped := time.Now().UTC().Truncate(time.Millisecond)
	order := &IntegrationOrder{
		UserID:   userID,
		OrderID:  "1",
		Total:    decimal.RequireFromString("1.56"),
		Quantity: 2,
		Shipped:  &shipped,
	}

	if err := orders.InsertEntity(ctx, order); err != nil {
		t.Fatalf("Failed to insert order: %v", err)
	}
	defer orders.DeleteEntity(ctx, &IntegrationOrder{TableEntity: entity.TableEntity{
		PartitionKey: order.PartitionKey, RowKey: order.RowKey,
	}})

	if order.PartitionKey != "USER#"+userID || order.RowKey != "ORDER#1" {
		t.Errorf("Keys not derived from key map: %q / %q", order.PartitionKey, order.RowKey)
	}

	got, err := orders.RetrieveEntity(ctx, order.PartitionKey, order.RowKey)
	if err != nil || got == nil {
		t.Fatalf("Failed to retrieve order: %v", err)
	}
	if !got.Total.Equal(order.Total) || got.Quantity != 2 || got.Shipped == nil || !got.Shipped.Equal(shipped) {
		t.Errorf("Retrieved order doesn't match: got %+v", got)
	}

	// merge without a shipping date keeps the stored one
	patch := &IntegrationOrder{TableEntity: entity.TableEntity{PartitionKey: order.PartitionKey, RowKey: order.RowKey}, Quantity: 3}
	if err := orders.MergeEntity(ctx, patch); err != nil {
		t.Fatalf("Failed to merge: %v", err)
	}
	got, _ = orders.RetrieveEntity(ctx, order.PartitionKey, order.RowKey)
	if got.Quantity != 3 || got.Shipped == nil {
		t.Errorf("Merge result unexpected: %+v", got)
	}

	count := 0
	for res := range orders.StreamPartition(ctx, storagemodels.PartitionQuery{PartitionKey: order.PartitionKey}) {
		if res.Error != nil {
			t.Fatalf("Stream error: %v", res.Error)
		}
		count++
	}
	if count != 1 {
		t.Errorf("Expected 1 streamed order, got %d", count)
	}
}
