package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/DRSN-tech/catalog-gateway/internal/domain"
	"github.com/DRSN-tech/catalog-gateway/pkg/e"
	"github.com/DRSN-tech/catalog-gateway/pkg/logger"
)

const (
	contentTypeJSON  = "application/json"
	contentTypeJSONL = "application/jsonl"
)

// ProductUseCase работает с документами товаров в бакете индекса.
type ProductUseCase struct {
	indexRepo        ObjectRepository
	cacheRepo        CacheRepository
	ingest           IngestInfra
	ingestPathPrefix string
	logger           logger.Logger
}

// NewProductUC: cacheRepo и ingest могут быть nil (кэш выключен, конвейер не настроен).
func NewProductUC(
	indexRepo ObjectRepository,
	cacheRepo CacheRepository,
	ingest IngestInfra,
	ingestPathPrefix string,
	logger logger.Logger,
) *ProductUseCase {
	if cacheRepo == nil {
		cacheRepo = nopCache{}
	}

	return &ProductUseCase{
		indexRepo:        indexRepo,
		cacheRepo:        cacheRepo,
		ingest:           ingest,
		ingestPathPrefix: ingestPathPrefix,
		logger:           logger,
	}
}

// FindProduct возвращает документ <id>.json: объект как есть, JSONL массивом строк.
func (p *ProductUseCase) FindProduct(ctx context.Context, id string) (json.RawMessage, error) {
	const op = "ProductUseCase.FindProduct"

	if strings.TrimSpace(id) == "" {
		return nil, e.Wrap(op, e.ErrProductIDRequired)
	}

	// Поиск документа в кэше
	cached, err := p.cacheRepo.GetDocument(ctx, id)
	if err != nil {
		p.logger.Warnf("Failed to read document from cache: %v", e.Wrap(op, err))
	} else if cached != nil {
		return cached, nil
	}

	content, err := p.indexRepo.Get(ctx, domain.DocumentPath(id))
	if err != nil {
		if errors.Is(err, e.ErrObjectNotFound) {
			return nil, e.Wrap(op, e.ErrProductNotFound)
		}
		return nil, e.Wrap(op, err)
	}

	doc, err := domain.SplitDocument(content)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := p.cacheRepo.SetDocument(ctx, id, doc); err != nil {
		p.logger.Warnf("Failed to cache document: %v", e.Wrap(op, err))
	}

	return doc, nil
}

// ListProducts перечисляет все документы индекса.
func (p *ProductUseCase) ListProducts(ctx context.Context) ([]domain.ProductMetadata, error) {
	const op = "ProductUseCase.ListProducts"

	objects, err := p.indexRepo.ListAll(ctx, "")
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	products := make([]domain.ProductMetadata, 0, len(objects))
	for _, obj := range objects {
		if domain.IsFolderPath(obj.Path) {
			continue
		}
		products = append(products, domain.ProductMetadata{
			ID:   domain.DocumentID(obj.Path),
			Name: obj.Path,
		})
	}

	return products, nil
}

func (p *ProductUseCase) DeleteProduct(ctx context.Context, id string) error {
	const op = "ProductUseCase.DeleteProduct"

	if strings.TrimSpace(id) == "" {
		return e.Wrap(op, e.ErrProductIDRequired)
	}

	if err := p.indexRepo.Delete(ctx, domain.DocumentPath(id)); err != nil {
		if errors.Is(err, e.ErrObjectNotFound) {
			return e.Wrap(op, e.ErrProductNotFound)
		}
		return e.Wrap(op, err)
	}

	p.invalidate(ctx, op, id)

	return nil
}

// UpdateProduct применяет один из вариантов обновления. Блокировок нет: побеждает последняя запись.
func (p *ProductUseCase) UpdateProduct(ctx context.Context, req domain.UpdateRequest) error {
	const op = "ProductUseCase.UpdateProduct"

	var (
		id  string
		err error
	)
	switch u := req.(type) {
	case domain.SingleDocumentUpdate:
		id = u.ProductID
		err = p.indexRepo.Put(ctx, domain.NewObject(u.ObjectPath(), u.Raw, contentTypeJSON))
	case domain.JSONLPatchUpdate:
		id = u.ID
		err = p.patchJSONL(ctx, u)
	default:
		return e.Wrap(op, e.ErrUnknownUpdateFormat)
	}
	if err != nil {
		return e.Wrap(op, err)
	}

	p.invalidate(ctx, op, id)

	return nil
}

// patchJSONL заменяет одну строку документа; если строки нет, документ не перезаписывается.
func (p *ProductUseCase) patchJSONL(ctx context.Context, u domain.JSONLPatchUpdate) error {
	content, err := p.indexRepo.Get(ctx, u.ObjectPath())
	if err != nil {
		if errors.Is(err, e.ErrObjectNotFound) {
			return e.ErrProductNotFound
		}
		return err
	}

	patched, replaced := domain.PatchJSONL(content, u.ID, u.ItemIndex, u.Raw)
	if !replaced {
		return e.ErrProductLineNotFound
	}

	return p.indexRepo.Put(ctx, domain.NewObject(u.ObjectPath(), patched, contentTypeJSONL))
}

// RequestIngest запускает построение данных для пути в бакете контента.
func (p *ProductUseCase) RequestIngest(ctx context.Context, path string) error {
	const op = "ProductUseCase.RequestIngest"

	if strings.TrimSpace(path) == "" {
		return e.Wrap(op, e.ErrIngestPathRequired)
	}

	if p.ingest == nil {
		return e.Wrap(op, e.ErrIngestNotConfigured)
	}

	if err := p.ingest.RequestIngest(ctx, NewIngestReq(p.ingestPathPrefix+path)); err != nil {
		return e.Wrap(op, e.Mark(e.ErrIngestFailed, err))
	}

	// Конвейер перепишет документы индекса под этим путём
	prefix := domain.IndexPrefixForPath(path)
	if err := p.cacheRepo.DeleteDocumentsByPrefix(ctx, prefix); err != nil {
		p.logger.Warnf("Failed to invalidate cached documents under %q: %v", prefix, e.Wrap(op, err))
	}

	return nil
}

func (p *ProductUseCase) invalidate(ctx context.Context, op, id string) {
	if err := p.cacheRepo.DeleteDocuments(ctx, id); err != nil {
		p.logger.Warnf("Failed to invalidate cached document %s: %v", id, e.Wrap(op, err))
	}
}
