package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/smallbiznis/invoicely/pkg/db"
	"github.com/smallbiznis/invoicely/pkg/db/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type note struct {
	ID     int64 `gorm:"primaryKey"`
	Owner  int64 `gorm:"index"`
	Title  string
	Pinned bool
}

func TestStoreScopesByQuery(t *testing.T) {
	conn := db.NewTest(t, &note{})
	store := ProvideStore[note](conn)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &note{ID: 1, Owner: 10, Title: "b"}))
	require.NoError(t, store.Create(ctx, &note{ID: 2, Owner: 10, Title: "a"}))
	require.NoError(t, store.Create(ctx, &note{ID: 3, Owner: 20, Title: "c"}))

	items, err := store.Find(ctx, &note{Owner: 10}, option.WithSortBy(option.QuerySortBy{
		Field: "title",
		Allow: map[string]bool{"title": true},
	}))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Title)

	count, err := store.Count(ctx, &note{Owner: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	missing, err := store.FindOne(ctx, &note{ID: 3, Owner: 10})
	require.NoError(t, err)
	assert.Nil(t, missing)

	removed, err := store.Delete(ctx, &note{ID: 3, Owner: 10})
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = store.Delete(ctx, &note{ID: 3, Owner: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestStoreSaveWritesZeroValues(t *testing.T) {
	conn := db.NewTest(t, &note{})
	store := ProvideStore[note](conn)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &note{ID: 1, Owner: 10, Title: "x", Pinned: true}))

	item, err := store.FindOne(ctx, &note{ID: 1})
	require.NoError(t, err)
	item.Pinned = false
	require.NoError(t, store.Save(ctx, item))

	reloaded, err := store.FindOne(ctx, &note{ID: 1})
	require.NoError(t, err)
	assert.False(t, reloaded.Pinned)
}

func TestStoreWithTrxRollsBack(t *testing.T) {
	conn := db.NewTest(t, &note{})
	store := ProvideStore[note](conn)
	ctx := context.Background()

	errAbort := errors.New("abort")
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := store.WithTrx(tx).Create(ctx, &note{ID: 1, Owner: 10, Title: "x"}); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	count, err := store.Count(ctx, &note{Owner: 10})
	require.NoError(t, err)
	assert.Zero(t, count)
}
