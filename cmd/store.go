package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/forensics/internal/engine"
	"github.com/sells-group/forensics/internal/reconcile"
	"github.com/sells-group/forensics/internal/store"
)

// initStore opens and migrates the configured store.
func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
}

// activeCatalog returns the catalog named by engine.tag_catalog, or the
// embedded default.
func activeCatalog() (*reconcile.Catalog, error) {
	if cfg.Engine.TagCatalog == "" {
		return reconcile.DefaultCatalog(), nil
	}
	cat, err := reconcile.LoadCatalog(cfg.Engine.TagCatalog)
	if err != nil {
		return nil, eris.Wrapf(err, "load tag catalog %s", cfg.Engine.TagCatalog)
	}
	return cat, nil
}

// baseOptions builds engine options from config.
func baseOptions() (engine.Options, error) {
	opts := engine.DefaultOptions()
	opts.UseMarketCap = cfg.Engine.UseMarketCap

	cat, err := activeCatalog()
	if err != nil {
		return opts, err
	}
	opts.Catalog = cat
	return opts, nil
}
