package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/catalog-gateway/internal/domain"
	"github.com/DRSN-tech/catalog-gateway/pkg/e"
)

var errBackend = errors.New("backend unavailable")

// memRepo — ObjectRepository в памяти с той же семантикой ошибок, что у настоящих бакетов.
type memRepo struct {
	mu      sync.Mutex
	objects map[string]domain.Object
	now     time.Time

	failDeletePrefix bool
	failPut          bool
}

func newMemRepo(paths ...string) *memRepo {
	r := &memRepo{
		objects: make(map[string]domain.Object),
		now:     time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	for _, p := range paths {
		r.objects[p] = domain.Object{Path: p, Data: []byte(p)}
	}
	return r
}

func (r *memRepo) put(path string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects[path] = domain.Object{Path: path, Data: data}
}

func (r *memRepo) has(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.objects[path]
	return ok
}

func (r *memRepo) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.objects))
	for p := range r.objects {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (r *memRepo) List(ctx context.Context, prefix string) (*domain.Listing, error) {
	attrs, err := r.ListAll(ctx, prefix)
	if err != nil {
		return nil, err
	}
	return domain.BuildListing(prefix, attrs, nil), nil
}

func (r *memRepo) ListAll(_ context.Context, prefix string) ([]domain.ObjectAttrs, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.ObjectAttrs
	for p, obj := range r.objects {
		if strings.HasPrefix(p, prefix) {
			out = append(out, domain.ObjectAttrs{
				Path:        p,
				Size:        int64(len(obj.Data)),
				ContentType: obj.ContentType,
				Updated:     r.now,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (r *memRepo) Get(_ context.Context, path string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	obj, ok := r.objects[path]
	if !ok {
		return nil, e.ErrObjectNotFound
	}
	return obj.Data, nil
}

func (r *memRepo) Put(_ context.Context, obj *domain.Object) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failPut {
		return errBackend
	}
	r.objects[obj.Path] = *obj
	return nil
}

func (r *memRepo) Delete(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.objects[path]; !ok {
		return e.ErrObjectNotFound
	}
	delete(r.objects, path)
	return nil
}

func (r *memRepo) DeletePrefix(_ context.Context, prefix string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failDeletePrefix {
		return 0, errBackend
	}

	n := 0
	for p := range r.objects {
		if strings.HasPrefix(p, prefix) {
			delete(r.objects, p)
			n++
		}
	}
	return n, nil
}

func (r *memRepo) Move(_ context.Context, src, dst string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	obj, ok := r.objects[src]
	if !ok {
		return e.ErrObjectNotFound
	}
	if _, exists := r.objects[dst]; exists {
		return e.ErrObjectExists
	}
	obj.Path = dst
	r.objects[dst] = obj
	delete(r.objects, src)
	return nil
}

func (r *memRepo) SignedURL(_ context.Context, path string, opts domain.SignedURLOptions) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.objects[path]; !ok {
		return "", e.ErrObjectNotFound
	}
	return "https://signed.example/" + path + "?ttl=" + opts.TTL.String() + "&method=" + opts.Method, nil
}

func (r *memRepo) CreateFolderMarker(_ context.Context, prefix string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.objects[prefix]; ok {
		return e.ErrFolderExists
	}
	r.objects[prefix] = domain.Object{Path: prefix}
	return nil
}

// memCache — CacheRepository в памяти.
type memCache struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{docs: make(map[string][]byte)}
}

func (c *memCache) GetDocument(_ context.Context, id string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.docs[id], nil
}

func (c *memCache) SetDocument(_ context.Context, id string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[id] = data
	return nil
}

func (c *memCache) DeleteDocuments(_ context.Context, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.docs, id)
	}
	return nil
}

func (c *memCache) DeleteDocumentsByPrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.docs {
		if strings.HasPrefix(id, prefix) {
			delete(c.docs, id)
		}
	}
	return nil
}

type fakeIngest struct {
	paths []string
	err   error
}

func (f *fakeIngest) RequestIngest(_ context.Context, req *IngestReq) error {
	if f.err != nil {
		return f.err
	}
	f.paths = append(f.paths, req.Path)
	return nil
}

type fakeSearch struct {
	searchRes *SearchRes
	searchErr error
	answerRes *AnswerRes
	answerErr error

	answerCalls []*AnswerReq
}

func (f *fakeSearch) Search(_ context.Context, _ *SearchReq) (*SearchRes, error) {
	return f.searchRes, f.searchErr
}

func (f *fakeSearch) Answer(_ context.Context, req *AnswerReq) (*AnswerRes, error) {
	f.answerCalls = append(f.answerCalls, req)
	return f.answerRes, f.answerErr
}
