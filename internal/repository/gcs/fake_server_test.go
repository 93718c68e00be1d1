package gcs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

const testBucket = "catalog-files"

// fakeGCS отвечает на запросы JSON API, которые делает ObjectRepo: листинг, вставка, удаление, rewrite.
type fakeGCS struct {
	mu        sync.Mutex
	objects   map[string][]byte
	delimiter []string
}

func newFakeGCS(t *testing.T, names ...string) (*fakeGCS, *storage.Client) {
	t.Helper()

	f := &fakeGCS{objects: make(map[string][]byte)}
	for _, n := range names {
		f.objects[n] = []byte(n)
	}

	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	client, err := storage.NewClient(context.Background(),
		option.WithEndpoint(srv.URL+"/storage/v1/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return f, client
}

func (f *fakeGCS) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.objects))
	for n := range f.objects {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (f *fakeGCS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	segs := strings.Split(strings.Trim(r.URL.EscapedPath(), "/"), "/")
	for i, s := range segs {
		if u, err := url.PathUnescape(s); err == nil {
			segs[i] = u
		}
	}

	upload := len(segs) > 0 && segs[0] == "upload"
	if upload {
		segs = segs[1:]
	}
	if len(segs) >= 2 && segs[0] == "storage" && segs[1] == "v1" {
		segs = segs[2:]
	}

	switch {
	case upload && r.Method == http.MethodPost:
		f.insert(w, r)
	case len(segs) == 3 && segs[0] == "b" && segs[2] == "o" && r.Method == http.MethodGet:
		f.list(w, r)
	case len(segs) == 4 && segs[0] == "b" && r.Method == http.MethodDelete:
		f.delete(w, segs[3])
	case len(segs) == 9 && segs[4] == "rewriteTo" && r.Method == http.MethodPost:
		f.rewrite(w, r, segs[3], segs[8])
	default:
		writeGCSError(w, http.StatusNotImplemented, r.Method+" "+r.URL.Path)
	}
}

func (f *fakeGCS) list(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	delim := r.URL.Query().Get("delimiter")
	f.delimiter = append(f.delimiter, delim)

	items := []map[string]any{}
	prefixes := []string{}
	seen := map[string]bool{}

	names := make([]string, 0, len(f.objects))
	for n := range f.objects {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		if !strings.HasPrefix(n, prefix) {
			continue
		}
		rest := n[len(prefix):]
		if delim != "" {
			if idx := strings.Index(rest, delim); idx >= 0 {
				p := prefix + rest[:idx+len(delim)]
				if !seen[p] {
					seen[p] = true
					prefixes = append(prefixes, p)
				}
				continue
			}
		}
		items = append(items, objectResource(n, f.objects[n]))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"kind":     "storage#objects",
		"items":    items,
		"prefixes": prefixes,
	})
}

func (f *fakeGCS) insert(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	data, err := readMultipartMedia(r)
	if err != nil {
		writeGCSError(w, http.StatusBadRequest, err.Error())
		return
	}

	var meta struct {
		Name string `json:"name"`
	}
	if name == "" {
		_ = json.Unmarshal(data.meta, &meta)
		name = meta.Name
	}

	if r.URL.Query().Get("ifGenerationMatch") == "0" {
		if _, ok := f.objects[name]; ok {
			writeGCSError(w, http.StatusPreconditionFailed, "At least one of the pre-conditions you specified did not hold.")
			return
		}
	}

	f.objects[name] = data.media
	writeJSON(w, http.StatusOK, objectResource(name, data.media))
}

func (f *fakeGCS) delete(w http.ResponseWriter, name string) {
	if _, ok := f.objects[name]; !ok {
		writeGCSError(w, http.StatusNotFound, "No such object: "+testBucket+"/"+name)
		return
	}
	delete(f.objects, name)
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeGCS) rewrite(w http.ResponseWriter, r *http.Request, src, dst string) {
	data, ok := f.objects[src]
	if !ok {
		writeGCSError(w, http.StatusNotFound, "No such object: "+testBucket+"/"+src)
		return
	}
	if r.URL.Query().Get("ifGenerationMatch") == "0" {
		if _, exists := f.objects[dst]; exists {
			writeGCSError(w, http.StatusPreconditionFailed, "At least one of the pre-conditions you specified did not hold.")
			return
		}
	}

	f.objects[dst] = data
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":                "storage#rewriteResponse",
		"done":                true,
		"totalBytesRewritten": fmt.Sprint(len(data)),
		"objectSize":          fmt.Sprint(len(data)),
		"resource":            objectResource(dst, data),
	})
}

type multipartUpload struct {
	meta  []byte
	media []byte
}

// readMultipartMedia разбирает тело uploadType=multipart: метаданные JSON, затем содержимое.
func readMultipartMedia(r *http.Request) (*multipartUpload, error) {
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		body, readErr := io.ReadAll(r.Body)
		return &multipartUpload{media: body}, readErr
	}

	out := &multipartUpload{}
	mr := multipart.NewReader(r.Body, params["boundary"])
	for i := 0; ; i++ {
		part, err := mr.NextPart()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			out.meta = data
		} else {
			out.media = data
		}
	}
}

func objectResource(name string, data []byte) map[string]any {
	return map[string]any{
		"kind":        "storage#object",
		"bucket":      testBucket,
		"name":        name,
		"size":        fmt.Sprint(len(data)),
		"contentType": "application/octet-stream",
		"generation":  "1",
		"updated":     "2025-05-01T10:00:00.000Z",
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeGCSError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
			"errors":  []map[string]any{{"message": message, "reason": http.StatusText(code)}},
		},
	})
}
