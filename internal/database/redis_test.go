package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ieraasyl/SavorViews/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisDB(t *testing.T) {
	mr := miniredis.RunT(t)

	db, err := NewRedisDB(&config.RedisConfig{
		Enabled:  true,
		Host:     mr.Host(),
		Port:     mr.Port(),
		PoolSize: 2,
	})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Client().Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}
