package http

import (
	"fmt"
	"net/http"

	"github.com/DRSN-tech/catalog-gateway/internal/usecase"
	"github.com/DRSN-tech/catalog-gateway/pkg/logger"
)

const uploadMaxMemory = 32 << 20

// FileHandler — файловый браузер бакета контента.
type FileHandler struct {
	fileUsecase   usecase.FileUC
	logger        logger.Logger
	maxUploadSize int64
}

func NewFileHandler(fileUsecase usecase.FileUC, logger logger.Logger, maxUploadSize int64) *FileHandler {
	return &FileHandler{
		fileUsecase:   fileUsecase,
		logger:        logger,
		maxUploadSize: maxUploadSize,
	}
}

type DeleteFileRequest struct {
	FilePath string `json:"filePath"`
}

type MoveFileRequest struct {
	FilePath    string `json:"filePath"`
	Destination string `json:"destination"`
}

type ViewFileResponse struct {
	ViewURL string `json:"viewUrl"`
}

type UploadFilesResponse struct {
	Message       string                 `json:"message"`
	UploadedFiles []usecase.UploadedFile `json:"uploadedFiles"`
}

// listFiles
//
//	@Summary	Содержимое папки
//	@Tags		files
//	@Produce	json
//	@Param		prefix	query		string	false	"Префикс папки, пустой для корня"
//	@Success	200		{object}	domain.Listing
//	@Failure	500		{object}	ErrorResponse
//	@Router		/api/files/list [get]
func (f *FileHandler) listFiles(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	listing, err := f.fileUsecase.ListFiles(r.Context(), prefix)
	if err != nil {
		f.logger.Errorf(err, "list files under %q", prefix)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, listing)
}

// deleteFile
//
//	@Summary	Удаление файла
//	@Tags		files
//	@Accept		json
//	@Produce	json
//	@Param		body	body		DeleteFileRequest	true	"Файл"
//	@Success	200		{object}	MessageResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/api/files/delete [delete]
func (f *FileHandler) deleteFile(w http.ResponseWriter, r *http.Request) {
	var req DeleteFileRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if err := f.fileUsecase.DeleteFile(r.Context(), req.FilePath); err != nil {
		f.logger.Warnf("delete file %s: %v", req.FilePath, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewMessageResponse(fmt.Sprintf("File '%s' deleted successfully.", req.FilePath)))
}

// viewFile
//
//	@Summary	Временная ссылка на чтение файла
//	@Tags		files
//	@Produce	json
//	@Param		filePath	query		string	true	"Путь файла"
//	@Success	200			{object}	ViewFileResponse
//	@Failure	400			{object}	ErrorResponse
//	@Failure	404			{object}	ErrorResponse
//	@Router		/api/files/view [get]
func (f *FileHandler) viewFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("filePath")

	url, err := f.fileUsecase.ViewFile(r.Context(), path)
	if err != nil {
		f.logger.Warnf("view file %s: %v", path, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, ViewFileResponse{ViewURL: url})
}

// uploadFiles
//
//	@Summary	Загрузка файлов в папку
//	@Tags		files
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		files	formData	file	true	"Файлы"
//	@Param		prefix	formData	string	false	"Папка назначения"
//	@Success	200		{object}	UploadFilesResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/api/files/upload [post]
func (f *FileHandler) uploadFiles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, f.maxUploadSize)

	if err := ensureMultipartForm(r, uploadMaxMemory); err != nil {
		f.logger.Warnf("%d %v: %s", http.StatusBadRequest, err, r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files, err := parseUploadFiles(r.MultipartForm.File["files"])
	if err != nil {
		f.logger.Warnf("%d %v", http.StatusBadRequest, err)
		WriteError(w, err)
		return
	}

	res, err := f.fileUsecase.UploadFiles(r.Context(), usecase.NewUploadFilesReq(r.FormValue("prefix"), files))
	if err != nil {
		f.logger.Errorf(err, "upload files")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, UploadFilesResponse{
		Message:       "Files uploaded successfully.",
		UploadedFiles: res.Files,
	})
}

// moveFile
//
//	@Summary	Перемещение файла
//	@Tags		files
//	@Accept		json
//	@Produce	json
//	@Param		body	body		MoveFileRequest	true	"Источник и назначение"
//	@Success	200		{object}	MessageResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse
//	@Router		/api/files/move [patch]
func (f *FileHandler) moveFile(w http.ResponseWriter, r *http.Request) {
	var req MoveFileRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if err := f.fileUsecase.MoveFile(r.Context(), req.FilePath, req.Destination); err != nil {
		f.logger.Warnf("move %s -> %s: %v", req.FilePath, req.Destination, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewMessageResponse(fmt.Sprintf("File moved to '%s'.", req.Destination)))
}
