package usecase

import (
	"encoding/json"

	"github.com/DRSN-tech/catalog-gateway/internal/domain"
)

// FILES

// UploadFile — файл из multipart/form-data, целиком в памяти.
type UploadFile struct {
	Name        string // имя файла без каталогов
	Data        []byte
	ContentType string
}

type UploadFilesReq struct {
	Prefix string
	Files  []UploadFile
}

// UploadedFile — результат загрузки одного файла.
type UploadedFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

type UploadFilesRes struct {
	Files []UploadedFile
}

// FOLDERS

type CreateFolderReq struct {
	FolderName string
	Prefix     string
}

// SEARCH

// SearchReq: languageCode запроса к движку задаётся конфигом, язык ответа клиенту решает HTTP-слой.
type SearchReq struct {
	Query string
}

// SearchRes — ответ поиска: поля верхнего уровня как есть и сессия для генерации ответа.
type SearchRes struct {
	Fields  map[string]json.RawMessage
	Session *domain.SearchSession
}

type AnswerReq struct {
	Query   string
	Session domain.SearchSession
}

type AnswerRes struct {
	AnswerText string
}

// INGEST

type IngestReq struct {
	Path string
}

// MAPPERS

func NewUploadFile(name string, data []byte, contentType string) *UploadFile {
	return &UploadFile{
		Name:        name,
		Data:        data,
		ContentType: contentType,
	}
}

func NewUploadFilesReq(prefix string, files []UploadFile) *UploadFilesReq {
	return &UploadFilesReq{
		Prefix: prefix,
		Files:  files,
	}
}

func NewUploadFilesRes(files []UploadedFile) *UploadFilesRes {
	return &UploadFilesRes{Files: files}
}

func NewCreateFolderReq(folderName, prefix string) *CreateFolderReq {
	return &CreateFolderReq{
		FolderName: folderName,
		Prefix:     prefix,
	}
}

func NewSearchReq(query string) *SearchReq {
	return &SearchReq{
		Query: query,
	}
}

func NewSearchRes(fields map[string]json.RawMessage, session *domain.SearchSession) *SearchRes {
	return &SearchRes{
		Fields:  fields,
		Session: session,
	}
}

func NewAnswerReq(query string, session domain.SearchSession) *AnswerReq {
	return &AnswerReq{
		Query:   query,
		Session: session,
	}
}

func NewAnswerRes(text string) *AnswerRes {
	return &AnswerRes{AnswerText: text}
}

func NewIngestReq(path string) *IngestReq {
	return &IngestReq{Path: path}
}
