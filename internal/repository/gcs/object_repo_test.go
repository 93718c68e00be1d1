package gcs

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/DRSN-tech/catalog-gateway/internal/domain"
	"github.com/DRSN-tech/catalog-gateway/pkg/e"
	"github.com/DRSN-tech/catalog-gateway/pkg/gcpcred"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

func TestMapError(t *testing.T) {
	assert.ErrorIs(t, mapError(storage.ErrObjectNotExist, nil), e.ErrObjectNotFound)
	assert.ErrorIs(t, mapError(&googleapi.Error{Code: http.StatusNotFound}, nil), e.ErrNotFound)
	assert.ErrorIs(t, mapError(&googleapi.Error{Code: http.StatusPreconditionFailed}, nil), e.ErrObjectExists)
	assert.ErrorIs(t, mapError(&googleapi.Error{Code: http.StatusPreconditionFailed}, e.ErrFolderExists), e.ErrFolderExists)
	assert.ErrorIs(t, mapError(fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusConflict}), nil), e.ErrConflict)

	plain := &googleapi.Error{Code: http.StatusInternalServerError}
	assert.Equal(t, error(plain), mapError(plain, nil))
}

func testKey(t *testing.T) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

func TestObjectRepo_Sign(t *testing.T) {
	ctx := context.Background()
	client, err := storage.NewClient(ctx, option.WithoutAuthentication())
	require.NoError(t, err)
	defer client.Close()

	repo := NewObjectRepo(client, "catalog-files", &gcpcred.Credential{
		ClientEmail: "svc@project.iam.gserviceaccount.com",
		PrivateKey:  testKey(t),
	})

	signed, err := repo.sign("brand/a b.pdf", domain.SignedURLOptions{TTL: 15 * time.Minute}, time.Now())
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Contains(t, u.Path, "catalog-files")
	assert.Equal(t, "900", u.Query().Get("X-Goog-Expires"))
	assert.Equal(t, "GOOG4-RSA-SHA256", u.Query().Get("X-Goog-Algorithm"))
	assert.NotEmpty(t, u.Query().Get("X-Goog-Signature"))
}

func itemNames(items []domain.BlobItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func TestObjectRepo_List(t *testing.T) {
	f, client := newFakeGCS(t,
		"brand/",
		"brand/a.pdf",
		"brand/col/",
		"brand/col/b.pdf",
		"brand/deep/x/c.pdf",
		"brandnew/d.pdf",
	)
	repo := NewObjectRepo(client, testBucket, nil)

	listing, err := repo.List(context.Background(), "brand/")
	require.NoError(t, err)

	assert.Equal(t, []string{"a.pdf"}, itemNames(listing.Files))
	assert.Equal(t, []string{"col", "deep"}, itemNames(listing.Subdirectories))
	assert.Equal(t, int64(len("brand/a.pdf")), listing.Files[0].Size)
	require.NotNil(t, listing.Files[0].Updated)

	// вложенные уровни сворачивает сервер
	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, []string{"/"}, f.delimiter)
}

func TestObjectRepo_PutAndDeletePrefix(t *testing.T) {
	ctx := context.Background()
	f, client := newFakeGCS(t, "brand/col/", "brand/col/a.pdf", "brand/col/sub/b.pdf", "brand/colour.pdf")
	repo := NewObjectRepo(client, testBucket, nil)

	require.NoError(t, repo.Put(ctx, domain.NewObject("brand/col/c.pdf", []byte("%PDF"), "application/pdf")))
	f.mu.Lock()
	assert.Equal(t, []byte("%PDF"), f.objects["brand/col/c.pdf"])
	f.mu.Unlock()

	n, err := repo.DeletePrefix(ctx, "brand/col/")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []string{"brand/colour.pdf"}, f.names())

	n, err = repo.DeletePrefix(ctx, "brand/col/")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestObjectRepo_DeleteMissing(t *testing.T) {
	_, client := newFakeGCS(t, "brand/a.pdf")
	repo := NewObjectRepo(client, testBucket, nil)

	err := repo.Delete(context.Background(), "brand/missing.pdf")
	assert.ErrorIs(t, err, e.ErrObjectNotFound)
}

func TestObjectRepo_CreateFolderMarker(t *testing.T) {
	ctx := context.Background()
	f, client := newFakeGCS(t)
	repo := NewObjectRepo(client, testBucket, nil)

	require.NoError(t, repo.CreateFolderMarker(ctx, "brand/new/"))
	assert.Equal(t, []string{"brand/new/"}, f.names())

	// второй раз условная вставка получает 412
	err := repo.CreateFolderMarker(ctx, "brand/new/")
	assert.ErrorIs(t, err, e.ErrFolderExists)

	assert.ErrorIs(t, repo.CreateFolderMarker(ctx, "brand/new"), e.ErrFolderPathNoSlash)
}

func TestObjectRepo_Move(t *testing.T) {
	ctx := context.Background()
	f, client := newFakeGCS(t, "brand/a.pdf", "brand/b.pdf")
	repo := NewObjectRepo(client, testBucket, nil)

	assert.ErrorIs(t, repo.Move(ctx, "brand/a.pdf", "brand/b.pdf"), e.ErrObjectExists)
	assert.ErrorIs(t, repo.Move(ctx, "brand/missing.pdf", "brand/c.pdf"), e.ErrObjectNotFound)
	assert.Equal(t, []string{"brand/a.pdf", "brand/b.pdf"}, f.names())

	require.NoError(t, repo.Move(ctx, "brand/a.pdf", "archive/a.pdf"))
	assert.Equal(t, []string{"archive/a.pdf", "brand/b.pdf"}, f.names())
}
