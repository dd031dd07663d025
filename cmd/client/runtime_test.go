package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/nomoslink/internal/config"
	"github.com/atinyakov/nomoslink/internal/models"
)

func TestOpenRuntime_OfflineRestoresAcrossRestarts(t *testing.T) {
	for _, driver := range []string{"sqlite", "dir"} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			cfg := config.DefaultClient()
			cfg.Cache.Driver = driver
			cfg.Cache.Path = filepath.Join(t.TempDir(), "cache")

			rt, err := openRuntime(ctx, cfg, zap.NewNop(), true)
			require.NoError(t, err)
			assert.False(t, rt.sync.Ready())
			rt.store.Clients.Append(models.Client{ID: "CL-1", Name: "Nakato Holdings"})
			rt.close(ctx)

			rt, err = openRuntime(ctx, cfg, zap.NewNop(), true)
			require.NoError(t, err)
			defer rt.close(ctx)

			assert.True(t, rt.sync.Ready(), "restored data marks the engine ready")
			got, ok := rt.store.Clients.Get("CL-1")
			require.True(t, ok)
			assert.Equal(t, "Nakato Holdings", got.Name)
		})
	}
}

func TestOpenRuntime_UnknownDriver(t *testing.T) {
	cfg := config.DefaultClient()
	cfg.Cache.Driver = "redis"

	_, err := openRuntime(context.Background(), cfg, zap.NewNop(), true)
	assert.ErrorContains(t, err, "unknown cache driver")
}
