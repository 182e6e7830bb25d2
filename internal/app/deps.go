package app

import (
	"context"
	"fmt"
	"os"

	"github.com/tubehub/backend/internal/auth"
	"github.com/tubehub/backend/internal/config"
	"github.com/tubehub/backend/internal/db"
	"github.com/tubehub/backend/internal/handlers"
	"github.com/tubehub/backend/internal/repositories"
	"github.com/tubehub/backend/internal/storage"
)

func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)
	comments := repositories.NewPostgresCommentRepository(pool)
	views := repositories.NewPostgresViewRepository(pool)
	sessions := repositories.NewPostgresSessionStore(pool)

	issuer := auth.NewTokenIssuer(auth.TokenConfig{
		AccessSecret:  []byte(cfg.Tokens.AccessSecret),
		RefreshSecret: []byte(cfg.Tokens.RefreshSecret),
		AccessTTL:     cfg.Tokens.AccessTTL,
		RefreshTTL:    cfg.Tokens.RefreshTTL,
	}, nil)
	manager := auth.NewManager(issuer, sessions, users)

	blobs, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("configure object storage: %w", err)
	}

	tempDir := cfg.UploadTempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return handlers.Dependencies{}, fmt.Errorf("create upload temp dir: %w", err)
	}

	return handlers.Dependencies{
		Users:         users,
		Sessions:      manager,
		Videos:        videos,
		Comments:      comments,
		Views:         views,
		History:       users,
		Blobs:         blobs,
		Verifier:      issuer,
		UserLoader:    users,
		UploadTempDir: tempDir,
	}, nil
}
