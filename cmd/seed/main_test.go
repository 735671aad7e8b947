package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinfilter/internal/domain/record"
	"kinfilter/internal/infrastructure/storage/memdb"
)

func TestExport(t *testing.T) {
	db := memdb.Demo()
	sources, err := export(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, sources, len(record.Kinds))

	for i, src := range sources {
		assert.Equal(t, record.Kinds[i], src.Kind)
		n, err := db.Count(context.Background(), src.Kind)
		require.NoError(t, err)
		assert.Len(t, src.Records, n, src.Kind)
	}
	assert.Equal(t, record.Handle("i0001"), sources[0].Records[0].Handle())
}
