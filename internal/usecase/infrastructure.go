package usecase

import "context"

// SearchInfra — поисковый движок с генерацией ответов.
type SearchInfra interface {
	Search(ctx context.Context, req *SearchReq) (*SearchRes, error)
	Answer(ctx context.Context, req *AnswerReq) (*AnswerRes, error)
}

// IngestInfra запускает конвейер построения структурированных данных товара.
type IngestInfra interface {
	RequestIngest(ctx context.Context, req *IngestReq) error
}
