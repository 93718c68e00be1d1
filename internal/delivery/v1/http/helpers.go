package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/DRSN-tech/catalog-gateway/internal/infrastructure"
	"github.com/DRSN-tech/catalog-gateway/internal/usecase"
	"github.com/DRSN-tech/catalog-gateway/pkg/e"
	"github.com/jimlawless/whereami"
)

type ErrorResponse struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:  code,
		Error: message,
	}
}

func NewMessageResponse(message string) *MessageResponse {
	return &MessageResponse{Message: message}
}

// publicErrors — ошибки, текст которых можно отдать клиенту. Порядок важен: первая совпавшая выигрывает.
var publicErrors = []error{
	e.ErrExpectedMultipart,
	e.ErrInvalidFieldType,
	e.ErrInvalidJSONBody,
	e.ErrFilePathRequired,
	e.ErrDestinationRequired,
	e.ErrNoFiles,
	e.ErrInvalidFileName,
	e.ErrFileTooLarge,
	e.ErrInvalidFolderName,
	e.ErrInvalidPrefix,
	e.ErrFolderPathNoSlash,
	e.ErrRootFolderDelete,
	e.ErrQueryRequired,
	e.ErrProductRequired,
	e.ErrProductIDRequired,
	e.ErrItemIndexRequired,
	e.ErrUnknownUpdateFormat,
	e.ErrInvalidPrice,
	e.ErrPricePrecision,
	e.ErrNegativeMeasure,
	e.ErrUnsupportedCurrency,
	e.ErrIngestPathRequired,
	e.ErrObjectNotFound,
	e.ErrProductNotFound,
	e.ErrProductLineNotFound,
	e.ErrObjectExists,
	e.ErrFolderExists,
	e.ErrProxy,
	e.ErrIngestNotConfigured,
	e.ErrIngestFailed,
}

// ToHTTPResponse выбирает статус по категории ошибки и текст по первой совпавшей публичной ошибке.
// Детали внутренних ошибок клиенту не отдаются.
func ToHTTPResponse(err error) (int, string) {
	code := statusFor(err)

	// имя поля и ожидаемый тип безопасно отдать клиенту
	var fieldErr *e.FieldTypeError
	if errors.As(err, &fieldErr) {
		return code, fieldErr.Error()
	}

	for _, pub := range publicErrors {
		if errors.Is(err, pub) {
			return code, e.Message(pub)
		}
	}

	switch code {
	case http.StatusBadRequest:
		return code, e.Message(e.ErrStatusBadRequest)
	case http.StatusNotFound:
		return code, e.ErrNotFound.Error()
	case http.StatusConflict:
		return code, e.ErrConflict.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, e.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, e.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса в dst. Пустое или битое тело даёт e.ErrInvalidJSONBody.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return e.Wrap(whereami.WhereAmI(), e.ErrFileTooLarge)
		}
		return e.Wrap(err.Error(), e.ErrInvalidJSONBody)
	}

	return nil
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return e.Wrap(whereami.WhereAmI(), e.ErrFileTooLarge)
		}
		return e.Wrap(err.Error(), e.ErrExpectedMultipart)
	}

	return nil
}

// parseUploadFiles читает файлы формы целиком в память.
func parseUploadFiles(files []*multipart.FileHeader) ([]usecase.UploadFile, error) {
	if len(files) == 0 {
		return nil, e.ErrNoFiles
	}

	result := make([]usecase.UploadFile, 0, len(files))
	for _, fh := range files {
		data, err := readFile(fh)
		if err != nil {
			return nil, err
		}

		contentType := infrastructure.DetectContentType(fh.Filename, fh.Header.Get("Content-Type"), data)
		result = append(result, *usecase.NewUploadFile(fh.Filename, data, contentType))
	}

	return result, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return data, nil
}
