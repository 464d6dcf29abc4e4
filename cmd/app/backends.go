package main

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	firebase "firebase.google.com/go/v4"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/wichananm65/retail-shop-backend/internal/config"
	"github.com/wichananm65/retail-shop-backend/internal/docstore"
	"github.com/wichananm65/retail-shop-backend/internal/objectstore"
)

// backends holds the two gateways plus whatever has to be closed on shutdown.
type backends struct {
	docs    docstore.Store
	objects objectstore.Store
	closers []func() error
}

func (b *backends) Close(log zerolog.Logger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close backend")
		}
	}
}

func openBackends(ctx context.Context, cfg config.Config, log zerolog.Logger) (*backends, error) {
	b := &backends{}

	var app *firebase.App
	if cfg.NeedsFirebase() {
		var err error
		app, err = newFirebaseApp(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	switch cfg.DocstoreBackend {
	case config.BackendMemory:
		b.docs = docstore.NewMemoryStore()
	case config.BackendPebble:
		s, err := docstore.NewPebbleStore(filepath.Join(cfg.PebbleDir, "docs"))
		if err != nil {
			return nil, fmt.Errorf("open pebble docstore: %w", err)
		}
		b.docs = s
		b.closers = append(b.closers, s.Close)
	case config.BackendPostgres:
		db, err := openDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s := docstore.NewPostgresStore(db)
		if err := s.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		b.docs = s
		b.closers = append(b.closers, db.Close)
	case config.BackendFirestore:
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("firestore client: %w", err)
		}
		b.docs = docstore.NewFirestoreStore(client)
		b.closers = append(b.closers, client.Close)
	}

	switch cfg.ObjectstoreBackend {
	case config.BackendMemory:
		b.objects = objectstore.NewMemoryStore(cfg.PublicBaseURL)
	case config.BackendPebble:
		s, err := objectstore.NewPebbleStore(filepath.Join(cfg.PebbleDir, "objects"), cfg.PublicBaseURL)
		if err != nil {
			b.Close(log)
			return nil, fmt.Errorf("open pebble objectstore: %w", err)
		}
		b.objects = s
		b.closers = append(b.closers, s.Close)
	case config.BackendGCS:
		client, err := app.Storage(ctx)
		if err != nil {
			b.Close(log)
			return nil, fmt.Errorf("storage client: %w", err)
		}
		bucket, err := client.Bucket(cfg.StorageBucket)
		if err != nil {
			b.Close(log)
			return nil, fmt.Errorf("storage bucket: %w", err)
		}
		b.objects = objectstore.NewGCSStore(bucket, cfg.StorageBucket)
	}

	log.Info().
		Str("docstore", cfg.DocstoreBackend).
		Str("objectstore", cfg.ObjectstoreBackend).
		Msg("backends ready")
	return b, nil
}

func newFirebaseApp(ctx context.Context, cfg config.Config) (*firebase.App, error) {
	fbCfg := &firebase.Config{ProjectID: cfg.FirebaseProjectID, StorageBucket: cfg.StorageBucket}
	var opts []option.ClientOption
	switch {
	case cfg.FirebaseServiceKey != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.FirebaseServiceKey)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	return app, nil
}

func openDB(ctx context.Context, dbURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
