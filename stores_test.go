/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablekit

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"

	"github.com/suparena/tablekit/datastore"
	"github.com/suparena/tablekit/datastore/mock"
	"github.com/suparena/tablekit/entity"
	"github.com/suparena/tablekit/fieldcodec"
)

// Test types
type TestUser struct {
	entity.TableEntity
	Name string
}

type TestProduct struct {
	entity.TableEntity
	Price float32
}

func newAccount(t *testing.T) *Account {
	t.Helper()
	account, err := NewAccount(mock.Opener())
	if err != nil {
		t.Fatal(err)
	}
	return account
}

func TestStoreSet(t *testing.T) {
	set := storesOf[TestUser](newEntityStores())
	table := mock.New("users")
	opens := 0
	open := func() (*EntityStore[TestUser], error) {
		opens++
		s, err := entity.NewSerializer(fieldcodec.Primitives)
		if err != nil {
			return nil, err
		}
		return NewEntityStore[TestUser](table, s)
	}

	first, loaded, err := set.loadOrOpen("users", open)
	if err != nil || loaded {
		t.Fatalf("first open: loaded=%v err=%v", loaded, err)
	}
	second, loaded, err := set.loadOrOpen("users", open)
	if err != nil || !loaded {
		t.Fatalf("second open: loaded=%v err=%v", loaded, err)
	}
	if first != second || opens != 1 {
		t.Errorf("expected one shared store, opened %d times", opens)
	}

	boom := stderrors.New("boom")
	if _, _, err := set.loadOrOpen("admins", func() (*EntityStore[TestUser], error) { return nil, boom }); !stderrors.Is(err, boom) {
		t.Errorf("expected open error, got %v", err)
	}
	if got := set.tables(); len(got) != 1 || got[0] != "users" {
		t.Errorf("failed open must keep nothing, got %v", got)
	}

	if !set.forget("users") {
		t.Error("expected forget to drop the store")
	}
	if set.forget("users") {
		t.Error("forget twice must report false")
	}
}

func TestAccountEntityStores(t *testing.T) {
	ctx := context.Background()
	account := newAccount(t)

	t.Run("SharedPerTable", func(t *testing.T) {
		users, err := OpenEntityStore[TestUser](ctx, account, "users")
		if err != nil {
			t.Fatal(err)
		}
		again, err := OpenEntityStore[TestUser](ctx, account, "users")
		if err != nil {
			t.Fatal(err)
		}
		if users != again {
			t.Error("expected the same store for the same type and table")
		}
		if users.Table().Name() != "users" {
			t.Errorf("unexpected table %q", users.Table().Name())
		}
	})

	t.Run("TypeIsolation", func(t *testing.T) {
		products, err := OpenEntityStore[TestProduct](ctx, account, "users")
		if err != nil {
			t.Fatal(err)
		}
		users, _ := OpenEntityStore[TestUser](ctx, account, "users")
		if products.Table() != users.Table() {
			t.Error("stores of different types over one table share the table")
		}
		if keys := EntityStores[TestProduct](account); len(keys) != 1 {
			t.Errorf("expected 1 product store, got %v", keys)
		}
		if !ForgetEntityStore[TestUser](account, "users") {
			t.Fatal("expected user store to be dropped")
		}
		if keys := EntityStores[TestProduct](account); len(keys) != 1 {
			t.Error("dropping a user store must not affect product stores")
		}
	})

	t.Run("ReopenAfterForget", func(t *testing.T) {
		before, _ := OpenEntityStore[TestProduct](ctx, account, "products")
		ForgetEntityStore[TestProduct](account, "products")
		after, err := OpenEntityStore[TestProduct](ctx, account, "products")
		if err != nil {
			t.Fatal(err)
		}
		if before == after {
			t.Error("expected a new store after forget")
		}
		if before.Table() != after.Table() {
			t.Error("the table stays open across forget")
		}
	})

	t.Run("ConcurrentOpen", func(t *testing.T) {
		opens := 0
		var mu sync.Mutex
		inner := mock.Opener()
		counting, err := NewAccount(func(ctx context.Context, name string) (datastore.Table, error) {
			mu.Lock()
			opens++
			mu.Unlock()
			return inner(ctx, name)
		})
		if err != nil {
			t.Fatal(err)
		}

		stores := make([]*EntityStore[TestUser], 20)
		var wg sync.WaitGroup
		for i := range stores {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				s, err := OpenEntityStore[TestUser](ctx, counting, fmt.Sprintf("users-%d", i%4))
				if err != nil {
					t.Errorf("open %d: %v", i, err)
					return
				}
				stores[i] = s
			}(i)
		}
		wg.Wait()

		for i := range stores {
			if stores[i] != stores[i%4] {
				t.Errorf("store %d differs from store %d", i, i%4)
			}
		}
		if n := len(EntityStores[TestUser](counting)); n != 4 {
			t.Errorf("expected 4 stores, got %d", n)
		}
		if opens != 4 {
			t.Errorf("expected 4 table opens, got %d", opens)
		}
	})
}
