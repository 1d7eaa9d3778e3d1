package chessbuilder

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/chessmatch/internal/archive"
	"github.com/park285/chessmatch/internal/config"
	"github.com/park285/chessmatch/internal/httpapi"
	"github.com/park285/chessmatch/internal/kv"
	"github.com/park285/chessmatch/internal/match"
	"github.com/park285/chessmatch/internal/msgcat"
	"github.com/park285/chessmatch/internal/obslog"
)

type Deps struct {
	Store   kv.Store
	Archive *archive.Repository
	Manager *match.Manager
	Catalog *msgcat.Catalog
	Handler *httpapi.Handler
}

// New builds the service graph. An empty redis URL selects the in-memory store
// and an empty database URL disables the archive.
func New(ctx context.Context, cfg *config.AppConfig) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	log := obslog.L()

	var store kv.Store
	if strings.TrimSpace(cfg.RedisURL) != "" {
		rs, err := kv.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("init redis store: %w", err)
		}
		store = rs
		log.Info("store_ready", zap.String("backend", "redis"))
	} else {
		store = kv.NewMemory()
		log.Warn("store_ready", zap.String("backend", "memory"))
	}

	catalog, err := msgcat.New(cfg.CatalogDir)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load messages: %w", err)
	}

	mgr := match.NewManager(store, match.Config{
		InitialClock: cfg.InitialClock,
		TimeControls: cfg.TimeControls,
	})

	d := &Deps{Store: store, Manager: mgr, Catalog: catalog}
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		repo, err := archive.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("open archive: %w", err)
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = repo.Close()
			_ = store.Close()
			return nil, fmt.Errorf("archive schema: %w", err)
		}
		mgr.AttachArchive(repo)
		d.Archive = repo
		log.Info("archive_ready")
	}

	d.Handler = httpapi.New(mgr, catalog)
	return d, nil
}

func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var firstErr error
	if err := d.Archive.Close(); err != nil {
		firstErr = err
	}
	if err := d.Manager.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
