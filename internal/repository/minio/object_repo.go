package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DRSN-tech/catalog-gateway/internal/domain"
	"github.com/DRSN-tech/catalog-gateway/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

const defaultSignedTTL = 15 * time.Minute

// ObjectRepo реализует репозиторий объектов поверх бакета MinIO (S3-совместимое хранилище для локальной разработки).
// Предусловий на запись у MinIO нет, поэтому конфликты проверяются через StatObject перед записью.
type ObjectRepo struct {
	mc         *minio.Client
	bucketName string
}

func NewObjectRepo(mc *minio.Client, bucketName string) *ObjectRepo {
	return &ObjectRepo{
		mc:         mc,
		bucketName: bucketName,
	}
}

func (r *ObjectRepo) List(ctx context.Context, prefix string) (*domain.Listing, error) {
	var (
		objects  []domain.ObjectAttrs
		prefixes []string
	)

	for info := range r.mc.ListObjects(ctx, r.bucketName, minio.ListObjectsOptions{Prefix: prefix}) {
		if info.Err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), mapError(info.Err, nil))
		}

		if strings.HasSuffix(info.Key, domain.PathSeparator) {
			prefixes = append(prefixes, info.Key)
			continue
		}
		objects = append(objects, toObjectAttrs(info))
	}

	return domain.BuildListing(prefix, objects, prefixes), nil
}

func (r *ObjectRepo) ListAll(ctx context.Context, prefix string) ([]domain.ObjectAttrs, error) {
	var objects []domain.ObjectAttrs

	for info := range r.mc.ListObjects(ctx, r.bucketName, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), mapError(info.Err, nil))
		}
		objects = append(objects, toObjectAttrs(info))
	}

	return objects, nil
}

func (r *ObjectRepo) Get(ctx context.Context, path string) ([]byte, error) {
	obj, err := r.mc.GetObject(ctx, r.bucketName, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), mapError(err, nil))
	}
	defer obj.Close()

	// ошибка отсутствия ключа приходит только при чтении
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), mapError(err, nil))
	}

	return data, nil
}

// Put загружает объект в MinIO, перезаписывая существующий.
func (r *ObjectRepo) Put(ctx context.Context, obj *domain.Object) error {
	reader := bytes.NewReader(obj.Data)

	_, err := r.mc.PutObject(ctx, r.bucketName, obj.Path, reader, int64(len(obj.Data)), minio.PutObjectOptions{
		ContentType: obj.ContentType,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), mapError(err, nil))
	}

	return nil
}

// Delete удаляет объект; RemoveObject молчит про отсутствующий ключ, поэтому сначала StatObject.
func (r *ObjectRepo) Delete(ctx context.Context, path string) error {
	if err := r.stat(ctx, path); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := r.mc.RemoveObject(ctx, r.bucketName, path, minio.RemoveObjectOptions{}); err != nil {
		return e.Wrap(whereami.WhereAmI(), mapError(err, nil))
	}

	return nil
}

func (r *ObjectRepo) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	objects, err := r.ListAll(ctx, prefix)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}
	if len(objects) == 0 {
		return 0, nil
	}

	toRemove := make(chan minio.ObjectInfo, len(objects))
	for _, obj := range objects {
		toRemove <- minio.ObjectInfo{Key: obj.Path}
	}
	close(toRemove)

	// канал дочитывается до конца, иначе горутина RemoveObjects зависнет на отправке
	var firstErr error
	for rmErr := range r.mc.RemoveObjects(ctx, r.bucketName, toRemove, minio.RemoveObjectsOptions{}) {
		if rmErr.Err != nil && !isNotFound(rmErr.Err) && firstErr == nil {
			firstErr = rmErr.Err
		}
	}
	if firstErr != nil {
		return 0, e.Wrap(whereami.WhereAmI(), firstErr)
	}

	return len(objects), nil
}

func (r *ObjectRepo) Move(ctx context.Context, src, dst string) error {
	if err := r.stat(ctx, src); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := r.ensureAbsent(ctx, dst, e.ErrObjectExists); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	_, err := r.mc.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: r.bucketName, Object: dst},
		minio.CopySrcOptions{Bucket: r.bucketName, Object: src},
	)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), mapError(err, e.ErrObjectExists))
	}

	if err := r.mc.RemoveObject(ctx, r.bucketName, src, minio.RemoveObjectOptions{}); err != nil {
		return e.Wrap(whereami.WhereAmI(), mapError(err, nil))
	}

	return nil
}

// SignedURL возвращает presigned-ссылку на существующий объект.
func (r *ObjectRepo) SignedURL(ctx context.Context, path string, opts domain.SignedURLOptions) (string, error) {
	if err := r.stat(ctx, path); err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	u, err := r.presign(ctx, path, opts)
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return u.String(), nil
}

func (r *ObjectRepo) CreateFolderMarker(ctx context.Context, prefix string) error {
	if !domain.IsFolderPath(prefix) {
		return e.Wrap(whereami.WhereAmI(), e.ErrFolderPathNoSlash)
	}

	if err := r.ensureAbsent(ctx, prefix, e.ErrFolderExists); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return r.Put(ctx, domain.NewObject(prefix, nil, ""))
}

func (r *ObjectRepo) presign(ctx context.Context, path string, opts domain.SignedURLOptions) (*url.URL, error) {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultSignedTTL
	}
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	return r.mc.Presign(ctx, method, r.bucketName, path, ttl, url.Values{})
}

func (r *ObjectRepo) stat(ctx context.Context, path string) error {
	if _, err := r.mc.StatObject(ctx, r.bucketName, path, minio.StatObjectOptions{}); err != nil {
		return mapError(err, nil)
	}

	return nil
}

// ensureAbsent возвращает conflict, если объект path уже есть.
func (r *ObjectRepo) ensureAbsent(ctx context.Context, path string, conflict error) error {
	err := r.stat(ctx, path)
	switch {
	case err == nil:
		return conflict
	case errors.Is(err, e.ErrObjectNotFound):
		return nil
	default:
		return err
	}
}

func toObjectAttrs(info minio.ObjectInfo) domain.ObjectAttrs {
	return domain.ObjectAttrs{
		Path:        info.Key,
		Size:        info.Size,
		ContentType: info.ContentType,
		Updated:     info.LastModified,
	}
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == http.StatusNotFound
}

// mapError переводит ответы S3 в ошибки приложения.
func mapError(err error, conflict error) error {
	if isNotFound(err) {
		return e.Mark(e.ErrObjectNotFound, err)
	}

	if resp := minio.ToErrorResponse(err); resp.StatusCode == http.StatusPreconditionFailed || resp.StatusCode == http.StatusConflict {
		if conflict == nil {
			conflict = e.ErrObjectExists
		}
		return e.Mark(conflict, err)
	}

	return err
}
