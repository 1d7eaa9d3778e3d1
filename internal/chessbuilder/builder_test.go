package chessbuilder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/park285/chessmatch/internal/config"
	"github.com/park285/chessmatch/internal/kv"
)

func baseConfig() *config.AppConfig {
	return &config.AppConfig{HTTPAddr: ":0", InitialClock: 600, TimeControls: map[string]uint64{"blitz": 300}}
}

func TestNew_Memory(t *testing.T) {
	ctx := context.Background()
	d, err := New(ctx, baseConfig())
	require.NoError(t, err)
	defer d.Close()

	require.IsType(t, &kv.Memory{}, d.Store)
	require.Nil(t, d.Archive)
	require.NotNil(t, d.Handler)

	g, err := d.Manager.CreateMatch(ctx, "a", "", "b", "blitz", 1)
	require.NoError(t, err)
	require.Equal(t, uint64(300), g.WhiteClock)
	require.NotEmpty(t, g.ID)
}

func TestNew_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.RedisURL = fmt.Sprintf("redis://%s/0", mr.Addr())

	d, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer d.Close()
	require.IsType(t, &kv.Redis{}, d.Store)

	g, err := d.Manager.CreateMatch(context.Background(), "a", "m1", "b", "", 1)
	require.NoError(t, err)
	require.Equal(t, uint64(600), g.BlackClock)
}

func TestNew_BadCatalogDir(t *testing.T) {
	cfg := baseConfig()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.yaml"), []byte("errors: ["), 0o644))
	cfg.CatalogDir = dir
	_, err := New(context.Background(), cfg)
	require.ErrorContains(t, err, "load messages")

	_, err = New(context.Background(), nil)
	require.Error(t, err)
}

func TestNew_TimeControlsFromYAML(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(`
clock:
  initial: 5000
  time_controls:
    Blitz: 300
`)))
	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	d, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer d.Close()

	g, err := d.Manager.CreateMatch(context.Background(), "a", "", "b", "Blitz", 1)
	require.NoError(t, err)
	require.Equal(t, uint64(300), g.WhiteClock)
	require.Equal(t, "Blitz", g.TimeControl)

	g, err = d.Manager.CreateMatch(context.Background(), "a", "", "b", "classical", 1)
	require.NoError(t, err)
	require.Equal(t, uint64(5000), g.WhiteClock)
}
