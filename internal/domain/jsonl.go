package domain

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// PatchJSONL заменяет первую строку, у которой id совпадает и itemIndex численно равен itemIndex,
// на replacement. Пустые строки отбрасываются, строки с битым JSON остаются как есть.
// Результат всегда оканчивается "\n". replaced == false, если подходящей строки не было.
func PatchJSONL(content []byte, id string, itemIndex decimal.Decimal, replacement []byte) (out []byte, replaced bool) {
	lines := bytes.Split(content, []byte("\n"))

	var buf bytes.Buffer
	for _, line := range lines {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		if !replaced && lineMatches(line, id, itemIndex) {
			buf.Write(replacement)
			replaced = true
		} else {
			buf.Write(line)
		}
		buf.WriteByte('\n')
	}

	return buf.Bytes(), replaced
}

func lineMatches(line []byte, id string, itemIndex decimal.Decimal) bool {
	var record struct {
		ID        any `json:"id"`
		ItemIndex any `json:"itemIndex"`
	}

	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	if err := dec.Decode(&record); err != nil {
		return false
	}

	lineID, ok := record.ID.(string)
	if !ok || lineID != id {
		return false
	}

	idx, ok := NumericValue(record.ItemIndex)
	return ok && idx.Equal(itemIndex)
}

// SplitDocument разбирает документ индекса: один JSON-объект возвращается как есть,
// несколько строк JSONL как массив. Битые строки пропускаются.
func SplitDocument(content []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(content)
	if json.Valid(trimmed) {
		return trimmed, nil
	}

	items := make([]json.RawMessage, 0)
	for _, line := range bytes.Split(trimmed, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		items = append(items, json.RawMessage(line))
	}

	return json.Marshal(items)
}
