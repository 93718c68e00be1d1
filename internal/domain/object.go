package domain

import (
	"sort"
	"strings"
	"time"
)

// PathSeparator разделяет сегменты ключа объекта; папкой считается префикс, оканчивающийся на него.
const PathSeparator = "/"

type BlobKind string

const (
	KindFile   BlobKind = "file"
	KindFolder BlobKind = "folder"
)

// Object описывает объект, который записывается в бакет
type Object struct {
	Path        string
	Data        []byte
	ContentType string // Example: "application/json"
}

func NewObject(path string, data []byte, contentType string) *Object {
	return &Object{
		Path:        path,
		Data:        data,
		ContentType: contentType,
	}
}

// BlobItem — элемент листинга бакета.
type BlobItem struct {
	Name        string     `json:"name"`
	FullPath    string     `json:"fullPath"`
	Size        int64      `json:"size,omitempty"`
	ContentType string     `json:"contentType,omitempty"`
	Updated     *time.Time `json:"updated,omitempty"`
	Type        BlobKind   `json:"type"`
}

// Listing: прямые потомки префикса.
type Listing struct {
	Files          []BlobItem `json:"files"`
	Subdirectories []BlobItem `json:"subdirectories"`
}

// ObjectAttrs: то, что бэкенд хранилища отдаёт про объект.
type ObjectAttrs struct {
	Path        string
	Size        int64
	ContentType string
	Updated     time.Time
}

// BuildListing раскладывает объекты под prefix на файлы и папки первого уровня.
// prefixes: общие префиксы, которые бэкенд уже свернул по разделителю.
// Объект, у которого после prefix есть "/", превращается в папку;
// маркер самой папки (ключ == prefix) в листинг не попадает.
func BuildListing(prefix string, objects []ObjectAttrs, prefixes []string) *Listing {
	listing := &Listing{
		Files:          []BlobItem{},
		Subdirectories: []BlobItem{},
	}
	folders := make(map[string]struct{})

	addFolder := func(fullPath string) {
		if _, ok := folders[fullPath]; ok {
			return
		}
		folders[fullPath] = struct{}{}
		listing.Subdirectories = append(listing.Subdirectories, BlobItem{
			Name:     strings.TrimSuffix(fullPath[len(prefix):], PathSeparator),
			FullPath: fullPath,
			Type:     KindFolder,
		})
	}

	for _, p := range prefixes {
		if strings.HasPrefix(p, prefix) && len(p) > len(prefix) {
			addFolder(p)
		}
	}

	for _, obj := range objects {
		if !strings.HasPrefix(obj.Path, prefix) {
			continue
		}

		rel := obj.Path[len(prefix):]
		if rel == "" {
			continue
		}

		if idx := strings.Index(rel, PathSeparator); idx >= 0 {
			addFolder(prefix + rel[:idx+1])
			continue
		}

		item := BlobItem{
			Name:        rel,
			FullPath:    obj.Path,
			Size:        obj.Size,
			ContentType: obj.ContentType,
			Type:        KindFile,
		}
		if !obj.Updated.IsZero() {
			updated := obj.Updated
			item.Updated = &updated
		}
		listing.Files = append(listing.Files, item)
	}

	sort.Slice(listing.Files, func(i, j int) bool { return listing.Files[i].FullPath < listing.Files[j].FullPath })
	sort.Slice(listing.Subdirectories, func(i, j int) bool {
		return listing.Subdirectories[i].FullPath < listing.Subdirectories[j].FullPath
	})

	return listing
}

// IsFolderPath: путь папки оканчивается разделителем.
func IsFolderPath(p string) bool {
	return strings.HasSuffix(p, PathSeparator)
}

// FolderPath собирает путь маркера папки из родительского префикса и имени.
func FolderPath(prefix, name string) string {
	return prefix + strings.TrimSpace(name) + PathSeparator
}

// IndexPrefixForFolder выводит префикс документов индекса для папки контента:
// убирается завершающий "/", первый оставшийся "/" заменяется на "_".
// "brand/collection/" -> "brand_collection".
func IndexPrefixForFolder(folderPath string) string {
	trimmed := strings.TrimSuffix(folderPath, PathSeparator)
	return strings.Replace(trimmed, PathSeparator, "_", 1)
}

// IndexPrefixForPath выводит префикс документов индекса для пути в бакете контента:
// для файла берётся папка, в которой он лежит. "brand/collection/a.pdf" -> "brand_collection".
func IndexPrefixForPath(p string) string {
	if !IsFolderPath(p) {
		if idx := strings.LastIndex(p, PathSeparator); idx >= 0 {
			p = p[:idx+1]
		}
	}

	return IndexPrefixForFolder(p)
}

// SignedURLOptions — параметры временной ссылки на объект.
type SignedURLOptions struct {
	TTL    time.Duration
	Method string // GET по умолчанию
}
