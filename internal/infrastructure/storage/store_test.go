package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinfilter/internal/core/tx"
	"kinfilter/internal/domain/record"
)

func TestOpen_Demo(t *testing.T) {
	s, err := Open(context.Background(), Options{})
	require.NoError(t, err)
	defer s.Close()

	assert.Nil(t, s.Pool)
	assert.Nil(t, s.Records)
	assert.IsType(t, tx.None{}, s.Snapshotter)

	n, err := s.DB.Count(context.Background(), record.Person)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}
