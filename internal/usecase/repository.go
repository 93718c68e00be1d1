package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-gateway/internal/domain"
)

// ObjectRepository — один бакет (контент или индекс).
// Ошибки: e.ErrObjectNotFound для отсутствующих объектов, e.ErrObjectExists / e.ErrFolderExists при конфликтах.
type ObjectRepository interface {
	List(ctx context.Context, prefix string) (*domain.Listing, error)
	ListAll(ctx context.Context, prefix string) ([]domain.ObjectAttrs, error)
	Get(ctx context.Context, path string) ([]byte, error)
	Put(ctx context.Context, obj *domain.Object) error
	Delete(ctx context.Context, path string) error
	// DeletePrefix удаляет всё под prefix; отсутствие объектов не ошибка.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Move(ctx context.Context, src, dst string) error
	SignedURL(ctx context.Context, path string, opts domain.SignedURLOptions) (string, error)
	CreateFolderMarker(ctx context.Context, prefix string) error
}

// CacheRepository — кэш документов индекса. Промах: (nil, nil).
type CacheRepository interface {
	GetDocument(ctx context.Context, id string) ([]byte, error)
	SetDocument(ctx context.Context, id string, data []byte) error
	DeleteDocuments(ctx context.Context, ids ...string) error
	DeleteDocumentsByPrefix(ctx context.Context, prefix string) error
}

// nopCache используется, когда Redis не настроен.
type nopCache struct{}

func (nopCache) GetDocument(context.Context, string) ([]byte, error)   { return nil, nil }
func (nopCache) SetDocument(context.Context, string, []byte) error     { return nil }
func (nopCache) DeleteDocuments(context.Context, ...string) error      { return nil }
func (nopCache) DeleteDocumentsByPrefix(context.Context, string) error { return nil }
