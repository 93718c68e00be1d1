package minio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/DRSN-tech/catalog-gateway/internal/domain"
	"github.com/DRSN-tech/catalog-gateway/pkg/e"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	assert.ErrorIs(t, mapError(minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}, nil), e.ErrObjectNotFound)
	assert.ErrorIs(t, mapError(minio.ErrorResponse{Code: "NoSuchBucket"}, nil), e.ErrNotFound)
	assert.ErrorIs(t, mapError(minio.ErrorResponse{StatusCode: http.StatusPreconditionFailed}, e.ErrFolderExists), e.ErrFolderExists)

	other := errors.New("connection reset")
	assert.Equal(t, other, mapError(other, nil))
}

func TestObjectRepo_Presign(t *testing.T) {
	mc, err := minio.New("localhost:9000", &minio.Options{
		Creds:  credentials.NewStaticV4("minio", "minio123", ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)

	repo := NewObjectRepo(mc, "catalog")

	u, err := repo.presign(context.Background(), "brand/a.pdf", domain.SignedURLOptions{TTL: 15 * time.Minute})
	require.NoError(t, err)

	assert.Equal(t, "/catalog/brand/a.pdf", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestObjectRepo_List(t *testing.T) {
	_, mc := newFakeS3(t, "brand/", "brand/a.pdf", "brand/col/b.pdf", "brandnew/c.pdf")
	repo := NewObjectRepo(mc, testBucket)

	listing, err := repo.List(context.Background(), "brand/")
	require.NoError(t, err)

	require.Len(t, listing.Files, 1)
	assert.Equal(t, "brand/a.pdf", listing.Files[0].FullPath)
	require.Len(t, listing.Subdirectories, 1)
	assert.Equal(t, "col", listing.Subdirectories[0].Name)
}

func TestObjectRepo_DeleteMissing(t *testing.T) {
	f, mc := newFakeS3(t, "brand/a.pdf")
	repo := NewObjectRepo(mc, testBucket)
	ctx := context.Background()

	assert.ErrorIs(t, repo.Delete(ctx, "brand/missing.pdf"), e.ErrObjectNotFound)

	require.NoError(t, repo.Delete(ctx, "brand/a.pdf"))
	assert.Empty(t, f.keys())
}

func TestObjectRepo_CreateFolderMarker(t *testing.T) {
	f, mc := newFakeS3(t)
	repo := NewObjectRepo(mc, testBucket)
	ctx := context.Background()

	require.NoError(t, repo.CreateFolderMarker(ctx, "brand/new/"))
	assert.Equal(t, []string{"brand/new/"}, f.keys())

	assert.ErrorIs(t, repo.CreateFolderMarker(ctx, "brand/new/"), e.ErrFolderExists)
}

func TestObjectRepo_Move(t *testing.T) {
	f, mc := newFakeS3(t, "brand/a.pdf", "brand/b.pdf")
	repo := NewObjectRepo(mc, testBucket)
	ctx := context.Background()

	assert.ErrorIs(t, repo.Move(ctx, "brand/a.pdf", "brand/b.pdf"), e.ErrObjectExists)
	assert.ErrorIs(t, repo.Move(ctx, "brand/missing.pdf", "brand/c.pdf"), e.ErrObjectNotFound)

	require.NoError(t, repo.Move(ctx, "brand/a.pdf", "archive/a.pdf"))
	assert.Equal(t, []string{"archive/a.pdf", "brand/b.pdf"}, f.keys())
}

func TestObjectRepo_DeletePrefix(t *testing.T) {
	f, mc := newFakeS3(t, "brand/col/", "brand/col/a.pdf", "brand/col/sub/b.pdf", "brand/colour.pdf")
	repo := NewObjectRepo(mc, testBucket)
	ctx := context.Background()

	n, err := repo.DeletePrefix(ctx, "brand/col/")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"brand/colour.pdf"}, f.keys())

	n, err = repo.DeletePrefix(ctx, "brand/col/")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestObjectRepo_DeletePrefixIgnoresMissingKeys(t *testing.T) {
	f, mc := newFakeS3(t, "brand/a.pdf", "brand/b.pdf")
	f.failDelete["brand/a.pdf"] = "NoSuchKey"
	repo := NewObjectRepo(mc, testBucket)

	n, err := repo.DeletePrefix(context.Background(), "brand/")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// Ошибки первой пачки не должны останавливать удаление следующих.
func TestObjectRepo_DeletePrefixPartialFailure(t *testing.T) {
	const total = 1005

	keys := make([]string, 0, total)
	for i := 0; i < total; i++ {
		keys = append(keys, fmt.Sprintf("bulk/doc-%04d.json", i))
	}
	f, mc := newFakeS3(t, keys...)

	failed := keys[:5]
	for _, k := range failed {
		f.failDelete[k] = "AccessDenied"
	}
	repo := NewObjectRepo(mc, testBucket)

	_, err := repo.DeletePrefix(context.Background(), "bulk/")
	require.Error(t, err)
	assert.NotErrorIs(t, err, e.ErrObjectNotFound)
	var resp minio.ErrorResponse
	require.ErrorAs(t, err, &resp)
	assert.Equal(t, "AccessDenied", resp.Code)

	assert.Equal(t, failed, f.keys())
	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, 2, f.batches)
}
