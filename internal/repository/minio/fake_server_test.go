package minio

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/require"
)

const testBucket = "catalog"

var testModTime = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

// fakeS3 отвечает на запросы S3 API, которые делает ObjectRepo, для бакета path-style.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]int64
	// ключи, на которые multi-delete отвечает ошибкой с этим кодом
	failDelete map[string]string
	batches    int
}

func newFakeS3(t *testing.T, keys ...string) (*fakeS3, *minio.Client) {
	t.Helper()

	f := &fakeS3{objects: make(map[string]int64), failDelete: make(map[string]string)}
	for _, k := range keys {
		f.objects[k] = int64(len(k))
	}

	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	mc, err := minio.New(u.Host, &minio.Options{
		Creds:  credentials.NewStaticV4("minio", "minio123", ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)

	return f, mc
}

func (f *fakeS3) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.objects))
	for k := range f.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)

	path := strings.TrimPrefix(r.URL.Path, "/")
	if path != testBucket && !strings.HasPrefix(path, testBucket+"/") {
		writeS3Error(w, http.StatusNotFound, "NoSuchBucket", r.URL.Path)
		return
	}
	key := strings.TrimPrefix(strings.TrimPrefix(path, testBucket), "/")

	switch {
	case key == "" && r.Method == http.MethodGet:
		f.list(w, r)
	case key == "" && r.Method == http.MethodPost && r.URL.Query().Has("delete"):
		f.multiDelete(w, body)
	case r.Method == http.MethodHead:
		f.stat(w, key)
	case r.Method == http.MethodPut:
		f.put(w, r, key)
	case r.Method == http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeS3Error(w, http.StatusNotImplemented, "NotImplemented", r.Method+" "+r.URL.Path)
	}
}

func (f *fakeS3) stat(w http.ResponseWriter, key string) {
	size, ok := f.objects[key]
	if !ok {
		// у HEAD нет тела, клиент сам выводит NoSuchKey из 404
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Length", fmt.Sprint(size))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Last-Modified", testModTime.Format(http.TimeFormat))
	w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
	w.WriteHeader(http.StatusOK)
}

func (f *fakeS3) put(w http.ResponseWriter, r *http.Request, key string) {
	if src := r.Header.Get("X-Amz-Copy-Source"); src != "" {
		src, _ = url.PathUnescape(strings.TrimPrefix(src, "/"))
		srcKey := strings.TrimPrefix(src, testBucket+"/")
		size, ok := f.objects[srcKey]
		if !ok {
			writeS3Error(w, http.StatusNotFound, "NoSuchKey", srcKey)
			return
		}
		f.objects[key] = size

		writeXML(w, struct {
			XMLName      xml.Name `xml:"CopyObjectResult"`
			LastModified string
			ETag         string
		}{LastModified: testModTime.Format(time.RFC3339), ETag: `"d41d8cd98f00b204e9800998ecf8427e"`})
		return
	}

	size := r.ContentLength
	if decoded := r.Header.Get("X-Amz-Decoded-Content-Length"); decoded != "" {
		_, _ = fmt.Sscan(decoded, &size)
	}
	f.objects[key] = size
	w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
	w.WriteHeader(http.StatusOK)
}

type listContents struct {
	Key          string
	LastModified string
	ETag         string
	Size         int64
	StorageClass string
}

type commonPrefix struct {
	Prefix string
}

func (f *fakeS3) list(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	delim := r.URL.Query().Get("delimiter")

	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var (
		contents []listContents
		prefixes []commonPrefix
	)
	seen := map[string]bool{}
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := k[len(prefix):]
		if delim != "" {
			if idx := strings.Index(rest, delim); idx >= 0 {
				p := prefix + rest[:idx+len(delim)]
				if !seen[p] {
					seen[p] = true
					prefixes = append(prefixes, commonPrefix{Prefix: p})
				}
				continue
			}
		}
		contents = append(contents, listContents{
			Key:          k,
			LastModified: testModTime.Format(time.RFC3339),
			ETag:         `"d41d8cd98f00b204e9800998ecf8427e"`,
			Size:         f.objects[k],
			StorageClass: "STANDARD",
		})
	}

	writeXML(w, struct {
		XMLName        xml.Name `xml:"ListBucketResult"`
		Name           string
		Prefix         string
		Delimiter      string
		KeyCount       int
		MaxKeys        int
		IsTruncated    bool
		Contents       []listContents
		CommonPrefixes []commonPrefix
	}{
		Name:           testBucket,
		Prefix:         prefix,
		Delimiter:      delim,
		KeyCount:       len(contents) + len(prefixes),
		MaxKeys:        len(keys) + 1,
		Contents:       contents,
		CommonPrefixes: prefixes,
	})
}

func (f *fakeS3) multiDelete(w http.ResponseWriter, body []byte) {
	f.batches++

	var req struct {
		Objects []struct {
			Key string
		} `xml:"Object"`
	}
	if err := xml.Unmarshal(body, &req); err != nil {
		writeS3Error(w, http.StatusBadRequest, "MalformedXML", testBucket)
		return
	}

	type deleted struct {
		Key string
	}
	type failed struct {
		Key     string
		Code    string
		Message string
	}
	var (
		ok   []deleted
		errs []failed
	)
	for _, o := range req.Objects {
		if code, fail := f.failDelete[o.Key]; fail {
			errs = append(errs, failed{Key: o.Key, Code: code, Message: code})
			continue
		}
		delete(f.objects, o.Key)
		ok = append(ok, deleted{Key: o.Key})
	}

	writeXML(w, struct {
		XMLName xml.Name  `xml:"DeleteResult"`
		Deleted []deleted `xml:"Deleted"`
		Error   []failed  `xml:"Error"`
	}{Deleted: ok, Error: errs})
}

func writeXML(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, xml.Header)
	_ = xml.NewEncoder(w).Encode(body)
}

func writeS3Error(w http.ResponseWriter, status int, code, resource string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_ = xml.NewEncoder(w).Encode(struct {
		XMLName  xml.Name `xml:"Error"`
		Code     string
		Message  string
		Resource string
	}{Code: code, Message: code, Resource: resource})
}
