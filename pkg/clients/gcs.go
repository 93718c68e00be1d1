package clients

import (
	"context"

	"cloud.google.com/go/storage"
	"github.com/DRSN-tech/catalog-gateway/pkg/e"
	"github.com/DRSN-tech/catalog-gateway/pkg/gcpcred"
	"github.com/jimlawless/whereami"
	"google.golang.org/api/option"
)

// NewStorageClient создаёт клиент GCS с ключом сервисного аккаунта.
func NewStorageClient(ctx context.Context, cred *gcpcred.Credential, opts ...option.ClientOption) (*storage.Client, error) {
	opts = append([]option.ClientOption{cred.ClientOption()}, opts...)

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return client, nil
}
