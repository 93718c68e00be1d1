package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/DRSN-tech/catalog-gateway/internal/domain"
	"github.com/DRSN-tech/catalog-gateway/pkg/e"
	"github.com/DRSN-tech/catalog-gateway/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const defaultUploadConcurrency = 4

// FileUseCase работает с файлами бакета контента.
type FileUseCase struct {
	contentRepo       ObjectRepository
	logger            logger.Logger
	signedURLTTL      time.Duration
	uploadConcurrency int
}

func NewFileUC(contentRepo ObjectRepository, logger logger.Logger, signedURLTTL time.Duration, uploadConcurrency int) *FileUseCase {
	if uploadConcurrency <= 0 {
		uploadConcurrency = defaultUploadConcurrency
	}

	return &FileUseCase{
		contentRepo:       contentRepo,
		logger:            logger,
		signedURLTTL:      signedURLTTL,
		uploadConcurrency: uploadConcurrency,
	}
}

// ListFiles возвращает прямых потомков prefix.
func (f *FileUseCase) ListFiles(ctx context.Context, prefix string) (*domain.Listing, error) {
	const op = "FileUseCase.ListFiles"

	listing, err := f.contentRepo.List(ctx, prefix)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return listing, nil
}

func (f *FileUseCase) DeleteFile(ctx context.Context, path string) error {
	const op = "FileUseCase.DeleteFile"

	if strings.TrimSpace(path) == "" {
		return e.Wrap(op, e.ErrFilePathRequired)
	}

	if err := f.contentRepo.Delete(ctx, path); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// ViewFile выдаёт временную ссылку на чтение объекта.
func (f *FileUseCase) ViewFile(ctx context.Context, path string) (string, error) {
	const op = "FileUseCase.ViewFile"

	if strings.TrimSpace(path) == "" {
		return "", e.Wrap(op, e.ErrFilePathRequired)
	}

	url, err := f.contentRepo.SignedURL(ctx, path, domain.SignedURLOptions{
		TTL:    f.signedURLTTL,
		Method: http.MethodGet,
	})
	if err != nil {
		return "", e.Wrap(op, err)
	}

	return url, nil
}

// UploadFiles записывает каждый файл в prefix+name. Загрузки идут параллельно,
// но не больше uploadConcurrency одновременно; порядок результата совпадает с порядком файлов.
// При первой ошибке оставшиеся загрузки отменяются, уже записанные объекты остаются в бакете.
func (f *FileUseCase) UploadFiles(ctx context.Context, req *UploadFilesReq) (*UploadFilesRes, error) {
	const op = "FileUseCase.UploadFiles"

	if len(req.Files) == 0 {
		return nil, e.Wrap(op, e.ErrNoFiles)
	}

	for _, file := range req.Files {
		if err := validateFileName(file.Name); err != nil {
			return nil, e.Wrap(op, err)
		}
	}

	uploaded := make([]UploadedFile, len(req.Files))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(f.uploadConcurrency)

	for i, file := range req.Files {
		path := req.Prefix + file.Name
		g.Go(func() error {
			if err := f.contentRepo.Put(gCtx, domain.NewObject(path, file.Data, file.ContentType)); err != nil {
				return err
			}

			uploaded[i] = UploadedFile{
				Name: file.Name,
				Path: path,
				Size: int64(len(file.Data)),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, e.Wrap(op, err)
	}

	f.logger.Infof("Uploaded %d files to prefix %q", len(uploaded), req.Prefix)

	return NewUploadFilesRes(uploaded), nil
}

// MoveFile переносит объект; занятое место назначения даёт конфликт.
func (f *FileUseCase) MoveFile(ctx context.Context, src, dst string) error {
	const op = "FileUseCase.MoveFile"

	if strings.TrimSpace(src) == "" {
		return e.Wrap(op, e.ErrFilePathRequired)
	}
	if strings.TrimSpace(dst) == "" {
		return e.Wrap(op, e.ErrDestinationRequired)
	}
	if src == dst {
		return e.Wrap(op, e.ErrObjectExists)
	}

	if err := f.contentRepo.Move(ctx, src, dst); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

func validateFileName(name string) error {
	if strings.TrimSpace(name) == "" || name == "." || name == ".." || strings.Contains(name, domain.PathSeparator) {
		return e.ErrInvalidFileName
	}

	return nil
}
