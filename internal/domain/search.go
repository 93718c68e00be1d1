package domain

import "encoding/json"

// SearchSession — серверная сессия поиска, которую возвращает движок.
// Живёт только в рамках одного запроса: сразу передаётся в генерацию ответа.
type SearchSession struct {
	Name    string
	QueryID string
}

func (s *SearchSession) Valid() bool {
	return s != nil && s.Name != "" && s.QueryID != ""
}

// SearchResult — сырой ответ поиска (поля верхнего уровня) и сводка, если она есть.
type SearchResult struct {
	Fields        map[string]json.RawMessage
	SummaryAnswer string
}

// MarshalJSON отдаёт поля ответа поиска вместе с summaryAnswer.
func (r *SearchResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(r.Fields)+1)
	for k, v := range r.Fields {
		out[k] = v
	}

	if r.SummaryAnswer != "" {
		summary, err := json.Marshal(r.SummaryAnswer)
		if err != nil {
			return nil, err
		}
		out["summaryAnswer"] = summary
	}

	return json.Marshal(out)
}
