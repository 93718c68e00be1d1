package usecase

import (
	"context"
	"strings"

	"github.com/DRSN-tech/catalog-gateway/internal/domain"
	"github.com/DRSN-tech/catalog-gateway/pkg/e"
	"github.com/DRSN-tech/catalog-gateway/pkg/logger"
)

// FolderUseCase управляет папками бакета контента и связанными документами индекса.
type FolderUseCase struct {
	contentRepo ObjectRepository
	indexRepo   ObjectRepository
	cacheRepo   CacheRepository
	logger      logger.Logger
}

func NewFolderUC(contentRepo, indexRepo ObjectRepository, cacheRepo CacheRepository, logger logger.Logger) *FolderUseCase {
	if cacheRepo == nil {
		cacheRepo = nopCache{}
	}

	return &FolderUseCase{
		contentRepo: contentRepo,
		indexRepo:   indexRepo,
		cacheRepo:   cacheRepo,
		logger:      logger,
	}
}

// CreateFolder создаёт маркер папки prefix+name+"/" и возвращает его путь.
func (f *FolderUseCase) CreateFolder(ctx context.Context, req *CreateFolderReq) (string, error) {
	const op = "FolderUseCase.CreateFolder"

	name := strings.TrimSpace(req.FolderName)
	if name == "" || strings.Contains(name, domain.PathSeparator) {
		return "", e.Wrap(op, e.ErrInvalidFolderName)
	}

	if req.Prefix != "" && !domain.IsFolderPath(req.Prefix) {
		return "", e.Wrap(op, e.ErrInvalidPrefix)
	}

	path := domain.FolderPath(req.Prefix, name)
	if err := f.contentRepo.CreateFolderMarker(ctx, path); err != nil {
		return "", e.Wrap(op, err)
	}

	return path, nil
}

// DeleteFolder удаляет всё под folderPath в бакете контента, затем документы индекса
// под производным префиксом. Шаги не атомарны: если второй упал, документы индекса остаются.
func (f *FolderUseCase) DeleteFolder(ctx context.Context, folderPath string) error {
	const op = "FolderUseCase.DeleteFolder"

	if !domain.IsFolderPath(folderPath) {
		return e.Wrap(op, e.ErrFolderPathNoSlash)
	}

	indexPrefix := domain.IndexPrefixForFolder(folderPath)
	if indexPrefix == "" {
		return e.Wrap(op, e.ErrRootFolderDelete)
	}

	// Удаление содержимого папки
	removed, err := f.contentRepo.DeletePrefix(ctx, folderPath)
	if err != nil {
		return e.Wrap(op, err)
	}

	// Удаление документов индекса. Кэш сбрасывается и при частичной ошибке:
	// часть документов к этому моменту уже могла быть удалена.
	removedDocs, err := f.indexRepo.DeletePrefix(ctx, indexPrefix)

	if cacheErr := f.cacheRepo.DeleteDocumentsByPrefix(ctx, indexPrefix); cacheErr != nil {
		f.logger.Warnf("Failed to invalidate cached documents: %v", e.Wrap(op, cacheErr))
	}

	if err != nil {
		f.logger.Warnf(
			"Index documents left orphaned after folder delete. folder: %s, index_prefix: %s, error: %v",
			folderPath,
			indexPrefix,
			e.Wrap(op, err),
		)
		return e.Wrap(op, err)
	}

	f.logger.Infof("Folder %s deleted: %d objects, %d index documents", folderPath, removed, removedDocs)

	return nil
}
