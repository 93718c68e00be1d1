package usecase

import (
	"context"
	"encoding/json"

	"github.com/DRSN-tech/catalog-gateway/internal/domain"
)

type FileUC interface {
	ListFiles(ctx context.Context, prefix string) (*domain.Listing, error)
	DeleteFile(ctx context.Context, path string) error
	ViewFile(ctx context.Context, path string) (string, error)
	UploadFiles(ctx context.Context, req *UploadFilesReq) (*UploadFilesRes, error)
	MoveFile(ctx context.Context, src, dst string) error
}

type FolderUC interface {
	CreateFolder(ctx context.Context, req *CreateFolderReq) (string, error)
	DeleteFolder(ctx context.Context, folderPath string) error
}

type ProductUC interface {
	FindProduct(ctx context.Context, id string) (json.RawMessage, error)
	ListProducts(ctx context.Context) ([]domain.ProductMetadata, error)
	DeleteProduct(ctx context.Context, id string) error
	UpdateProduct(ctx context.Context, req domain.UpdateRequest) error
	RequestIngest(ctx context.Context, path string) error
}

type SearchUC interface {
	Search(ctx context.Context, req *SearchReq) (*domain.SearchResult, error)
}
