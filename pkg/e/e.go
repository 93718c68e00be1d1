package e

import (
	"errors"
	"fmt"
)

// Категории ошибок. Каждая конкретная ошибка ниже оборачивает одну из них,
// по категории определяется HTTP-статус.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
	ErrUpstream        = errors.New("upstream failure")
)

var (
	// 400 Bad Request
	ErrStatusBadRequest     = fmt.Errorf("%w: bad request", ErrInvalidArgument)
	ErrExpectedMultipart    = fmt.Errorf("%w: expected multipart/form-data", ErrInvalidArgument)
	ErrInvalidJSONBody      = fmt.Errorf("%w: invalid JSON body", ErrInvalidArgument)
	ErrInvalidFieldType     = fmt.Errorf("%w: invalid field type", ErrInvalidArgument)
	ErrFilePathRequired     = fmt.Errorf("%w: File path is required.", ErrInvalidArgument)
	ErrDestinationRequired  = fmt.Errorf("%w: Destination path is required.", ErrInvalidArgument)
	ErrNoFiles              = fmt.Errorf("%w: No files selected.", ErrInvalidArgument)
	ErrInvalidFileName      = fmt.Errorf("%w: Invalid file name.", ErrInvalidArgument)
	ErrFileTooLarge         = fmt.Errorf("%w: file too large", ErrInvalidArgument)
	ErrInvalidFolderName    = fmt.Errorf("%w: Invalid folder name. Make sure the folder name does not contain / character.", ErrInvalidArgument)
	ErrInvalidPrefix        = fmt.Errorf("%w: Invalid prefix. Must be empty or end with /", ErrInvalidArgument)
	ErrFolderPathNoSlash    = fmt.Errorf("%w: Invalid folder path. Must end with /", ErrInvalidArgument)
	ErrRootFolderDelete     = fmt.Errorf("%w: Refusing to delete the bucket root", ErrInvalidArgument)
	ErrQueryRequired        = fmt.Errorf("%w: Query parameter is required", ErrInvalidArgument)
	ErrProductRequired      = fmt.Errorf("%w: product is required", ErrInvalidArgument)
	ErrProductIDRequired    = fmt.Errorf("%w: product id is required", ErrInvalidArgument)
	ErrItemIndexRequired    = fmt.Errorf("%w: numeric itemIndex is required", ErrInvalidArgument)
	ErrUnknownUpdateFormat  = fmt.Errorf("%w: unknown update format", ErrInvalidArgument)
	ErrInvalidPrice         = fmt.Errorf("%w: invalid price", ErrInvalidArgument)
	ErrPricePrecision       = fmt.Errorf("%w: price must have at most 2 decimal places", ErrInvalidArgument)
	ErrNegativeMeasure      = fmt.Errorf("%w: dimensions, warranty and lead time must not be negative", ErrInvalidArgument)
	ErrUnsupportedCurrency  = fmt.Errorf("%w: unsupported currency", ErrInvalidArgument)
	ErrIngestPathRequired   = fmt.Errorf("%w: path is required", ErrInvalidArgument)

	// 404 Not Found
	ErrObjectNotFound      = fmt.Errorf("%w: File not found.", ErrNotFound)
	ErrProductNotFound     = fmt.Errorf("%w: Product not found.", ErrNotFound)
	ErrProductLineNotFound = fmt.Errorf("%w: No product line matches id and itemIndex.", ErrNotFound)

	// 409 Conflict
	ErrObjectExists = fmt.Errorf("%w: Destination already exists.", ErrConflict)
	ErrFolderExists = fmt.Errorf("%w: Folder already exists.", ErrConflict)

	// 500 Internal Server Error
	ErrInternalServerError  = errors.New("internal server error")
	ErrProxy                = fmt.Errorf("%w: Error proxying request", ErrUpstream)
	ErrIngestNotConfigured  = fmt.Errorf("%w: INGEST_WEBHOOK_URL is not set", ErrUpstream)
	ErrIngestFailed         = fmt.Errorf("%w: Failed to refresh data", ErrUpstream)
	ErrIncorrectEnvVariable = errors.New("incorrect environment variable")
)

// FieldTypeError: поле JSON пришло не того типа, например "lead_time_days":"5".
type FieldTypeError struct {
	Field    string
	Expected string
}

func (f *FieldTypeError) Error() string {
	return fmt.Sprintf("field %s must be %s", f.Field, f.Expected)
}

func (f *FieldTypeError) Unwrap() error {
	return ErrInvalidFieldType
}

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// Mark помечает причину err публичной ошибкой sentinel; обе доступны через errors.Is.
func Mark(sentinel, err error) error {
	return fmt.Errorf("%w: %w", sentinel, err)
}

// Message возвращает текст ошибки без префикса категории,
// пригодный для ответа клиенту.
func Message(err error) string {
	text := err.Error()
	for _, category := range []error{ErrNotFound, ErrInvalidArgument, ErrConflict, ErrUpstream} {
		prefix := category.Error() + ": "
		if len(text) > len(prefix) && text[:len(prefix)] == prefix {
			return text[len(prefix):]
		}
	}

	return text
}
