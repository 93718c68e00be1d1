package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/DRSN-tech/catalog-gateway/pkg/e"
	"github.com/shopspring/decimal"
)

// Форматы документа индекса.
const (
	FormatDocument = "document"
	FormatJSONL    = "jsonl"
)

// UpdateRequest — обновление товара в индексе: SingleDocumentUpdate или JSONLPatchUpdate.
type UpdateRequest interface {
	// ObjectPath возвращает ключ документа в бакете индекса.
	ObjectPath() string
	isUpdateRequest()
}

// SingleDocumentUpdate перезаписывает <product_id>.json целиком.
type SingleDocumentUpdate struct {
	ProductID string
	Product   *Product
	Raw       json.RawMessage // исходный JSON товара, сохраняется как есть
}

func (SingleDocumentUpdate) isUpdateRequest() {}

func (u SingleDocumentUpdate) ObjectPath() string {
	return DocumentPath(u.ProductID)
}

// JSONLPatchUpdate заменяет одну строку <id>.json с совпадающими id и itemIndex.
type JSONLPatchUpdate struct {
	ID        string
	ItemIndex decimal.Decimal
	Product   *Product
	Raw       json.RawMessage
}

func (JSONLPatchUpdate) isUpdateRequest() {}

func (u JSONLPatchUpdate) ObjectPath() string {
	return DocumentPath(u.ID)
}

// DocumentPath возвращает ключ документа товара в бакете индекса.
func DocumentPath(id string) string {
	return id + ".json"
}

// DocumentID: обратное преобразование ключа в идентификатор.
func DocumentID(path string) string {
	return strings.TrimSuffix(path, ".json")
}

// NewUpdateRequest строит вариант обновления. format задаётся явно ("document" | "jsonl");
// если он пуст, наличие поля id у товара выбирает JSONL, иначе документ целиком.
func NewUpdateRequest(raw json.RawMessage, format string) (UpdateRequest, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, e.ErrProductRequired
	}

	var product Product
	if err := json.Unmarshal(raw, &product); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &e.FieldTypeError{Field: typeErr.Field, Expected: jsonKind(typeErr.Type)}
		}
		return nil, e.Wrap(err.Error(), e.ErrInvalidJSONBody)
	}

	if err := product.Validate(); err != nil {
		return nil, err
	}

	compacted := new(bytes.Buffer)
	if err := json.Compact(compacted, raw); err != nil {
		return nil, e.Wrap(err.Error(), e.ErrInvalidJSONBody)
	}

	if format == "" {
		format = FormatDocument
		if product.ID != "" {
			format = FormatJSONL
		}
	}

	switch format {
	case FormatDocument:
		if strings.TrimSpace(product.ProductID) == "" {
			return nil, e.ErrProductIDRequired
		}
		return SingleDocumentUpdate{
			ProductID: product.ProductID,
			Product:   &product,
			Raw:       compacted.Bytes(),
		}, nil
	case FormatJSONL:
		if strings.TrimSpace(product.ID) == "" {
			return nil, e.ErrProductIDRequired
		}
		idx, ok := NumericValue(product.ItemIndex)
		if !ok {
			return nil, e.ErrItemIndexRequired
		}
		return JSONLPatchUpdate{
			ID:        product.ID,
			ItemIndex: idx,
			Product:   &product,
			Raw:       compacted.Bytes(),
		}, nil
	default:
		return nil, e.ErrUnknownUpdateFormat
	}
}

// NumericValue приводит значение JSON (число или строку с числом) к decimal.
func NumericValue(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}

// jsonKind называет тип поля так, как его видит клиент JSON.
func jsonKind(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "a valid value"
	}

	switch t.Kind() {
	case reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "a number"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Slice, reflect.Array:
		return "an array"
	default:
		return "an object"
	}
}
