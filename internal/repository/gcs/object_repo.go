package gcs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/DRSN-tech/catalog-gateway/internal/domain"
	"github.com/DRSN-tech/catalog-gateway/pkg/e"
	"github.com/DRSN-tech/catalog-gateway/pkg/gcpcred"
	"github.com/jimlawless/whereami"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

const (
	deleteConcurrency = 8
	defaultSignedTTL  = 15 * time.Minute
)

// ObjectRepo реализует репозиторий объектов поверх одного бакета GCS.
type ObjectRepo struct {
	bucket *storage.BucketHandle
	name   string
	cred   *gcpcred.Credential
}

func NewObjectRepo(client *storage.Client, bucketName string, cred *gcpcred.Credential) *ObjectRepo {
	return &ObjectRepo{
		bucket: client.Bucket(bucketName),
		name:   bucketName,
		cred:   cred,
	}
}

// List возвращает прямых потомков prefix; вложенные уровни GCS сворачивает по "/".
func (r *ObjectRepo) List(ctx context.Context, prefix string) (*domain.Listing, error) {
	query := &storage.Query{Prefix: prefix, Delimiter: domain.PathSeparator}
	if err := query.SetAttrSelection([]string{"Name", "Size", "ContentType", "Updated"}); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var (
		objects  []domain.ObjectAttrs
		prefixes []string
	)
	it := r.bucket.Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), mapError(err, nil))
		}

		if attrs.Prefix != "" {
			prefixes = append(prefixes, attrs.Prefix)
			continue
		}
		objects = append(objects, toObjectAttrs(attrs))
	}

	return domain.BuildListing(prefix, objects, prefixes), nil
}

// ListAll возвращает рекурсивный плоский список объектов под prefix.
func (r *ObjectRepo) ListAll(ctx context.Context, prefix string) ([]domain.ObjectAttrs, error) {
	var objects []domain.ObjectAttrs

	it := r.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), mapError(err, nil))
		}
		objects = append(objects, toObjectAttrs(attrs))
	}

	return objects, nil
}

func (r *ObjectRepo) Get(ctx context.Context, path string) ([]byte, error) {
	reader, err := r.bucket.Object(path).NewReader(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), mapError(err, nil))
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return data, nil
}

// Put создаёт или перезаписывает объект.
func (r *ObjectRepo) Put(ctx context.Context, obj *domain.Object) error {
	return r.write(ctx, r.bucket.Object(obj.Path), obj.Data, obj.ContentType, nil)
}

func (r *ObjectRepo) Delete(ctx context.Context, path string) error {
	if err := r.bucket.Object(path).Delete(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), mapError(err, nil))
	}

	return nil
}

// DeletePrefix удаляет все объекты под prefix и возвращает их число.
// Объекты, исчезнувшие между листингом и удалением, не считаются ошибкой.
func (r *ObjectRepo) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	query := &storage.Query{Prefix: prefix}
	if err := query.SetAttrSelection([]string{"Name"}); err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	var names []string
	it := r.bucket.Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return 0, e.Wrap(whereami.WhereAmI(), mapError(err, nil))
		}
		names = append(names, attrs.Name)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(deleteConcurrency)
	for _, name := range names {
		g.Go(func() error {
			err := r.bucket.Object(name).Delete(gCtx)
			if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), mapError(err, nil))
	}

	return len(names), nil
}

// Move копирует объект с предусловием "назначения нет" и удаляет источник.
func (r *ObjectRepo) Move(ctx context.Context, src, dst string) error {
	srcObj := r.bucket.Object(src)
	dstObj := r.bucket.Object(dst).If(storage.Conditions{DoesNotExist: true})

	if _, err := dstObj.CopierFrom(srcObj).Run(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), mapError(err, e.ErrObjectExists))
	}

	if err := srcObj.Delete(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), mapError(err, nil))
	}

	return nil
}

// SignedURL подписывает V4-ссылку ключом сервисного аккаунта. Для отсутствующего объекта ErrObjectNotFound.
func (r *ObjectRepo) SignedURL(ctx context.Context, path string, opts domain.SignedURLOptions) (string, error) {
	if _, err := r.bucket.Object(path).Attrs(ctx); err != nil {
		return "", e.Wrap(whereami.WhereAmI(), mapError(err, nil))
	}

	url, err := r.sign(path, opts, time.Now())
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return url, nil
}

// CreateFolderMarker пишет пустой объект prefix, если его ещё нет.
func (r *ObjectRepo) CreateFolderMarker(ctx context.Context, prefix string) error {
	if !domain.IsFolderPath(prefix) {
		return e.Wrap(whereami.WhereAmI(), e.ErrFolderPathNoSlash)
	}

	cond := &storage.Conditions{DoesNotExist: true}
	return r.write(ctx, r.bucket.Object(prefix), nil, "", cond)
}

func (r *ObjectRepo) write(ctx context.Context, obj *storage.ObjectHandle, data []byte, contentType string, cond *storage.Conditions) error {
	conflict := e.ErrObjectExists
	if cond != nil {
		obj = obj.If(*cond)
		conflict = e.ErrFolderExists
	}

	w := obj.NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return e.Wrap(whereami.WhereAmI(), mapError(err, conflict))
	}

	if err := w.Close(); err != nil {
		return e.Wrap(whereami.WhereAmI(), mapError(err, conflict))
	}

	return nil
}

func (r *ObjectRepo) sign(path string, opts domain.SignedURLOptions, now time.Time) (string, error) {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultSignedTTL
	}
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	return r.bucket.SignedURL(path, &storage.SignedURLOptions{
		GoogleAccessID: r.cred.ClientEmail,
		PrivateKey:     []byte(r.cred.PrivateKey),
		Method:         method,
		Expires:        now.Add(ttl),
		Scheme:         storage.SigningSchemeV4,
	})
}

func toObjectAttrs(attrs *storage.ObjectAttrs) domain.ObjectAttrs {
	return domain.ObjectAttrs{
		Path:        attrs.Name,
		Size:        attrs.Size,
		ContentType: attrs.ContentType,
		Updated:     attrs.Updated,
	}
}

// mapError переводит ошибки SDK в ошибки приложения. conflict возвращается на 409/412.
func mapError(err error, conflict error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return e.Mark(e.ErrObjectNotFound, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return e.Mark(e.ErrObjectNotFound, err)
		case http.StatusConflict, http.StatusPreconditionFailed:
			if conflict == nil {
				conflict = e.ErrObjectExists
			}
			return e.Mark(conflict, err)
		}
	}

	return err
}
