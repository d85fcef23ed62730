package app

import (
	"context"
	"fmt"

	"github.com/iudanet/journalsync/internal/config"
	"github.com/iudanet/journalsync/internal/provider"
	"github.com/iudanet/journalsync/internal/provider/local"
	"github.com/iudanet/journalsync/internal/provider/objstore"
)

// OpenProvider builds the storage backend selected in settings.
func OpenProvider(ctx context.Context, s *config.Settings) (provider.Provider, error) {
	switch s.Provider {
	case config.ProviderLocal:
		p, err := local.New(s.LocalRoot)
		if err != nil {
			return nil, fmt.Errorf("failed to open local provider: %w", err)
		}
		return p, nil
	case config.ProviderS3:
		p, err := objstore.New(objstore.Config{
			Endpoint:  s.S3Endpoint,
			Bucket:    s.S3Bucket,
			AccessKey: s.S3AccessKey,
			SecretKey: s.S3SecretKey,
			Region:    s.S3Region,
			UseSSL:    s.S3UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open object storage provider: %w", err)
		}
		if err := p.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare bucket: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", config.ErrInvalid, s.Provider)
	}
}
