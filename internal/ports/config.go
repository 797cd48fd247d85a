package ports

import (
	"context"

	"hue-bridge-client/internal/domain/model"
)

type CredentialsRepository interface {
	Get(ctx context.Context) (*model.Credentials, error)
	Save(ctx context.Context, creds *model.Credentials) error
}
