package usecase

import (
	"context"
	"strings"

	"github.com/DRSN-tech/catalog-gateway/internal/domain"
	"github.com/DRSN-tech/catalog-gateway/pkg/e"
	"github.com/DRSN-tech/catalog-gateway/pkg/logger"
)

// NoSummaryAnswer — ответ движка, когда сводку построить не удалось. В результат не попадает.
const NoSummaryAnswer = "A summary could not be generated for your search query. Here are some search results."

// SearchUseCase ищет по каталогу и дополняет выдачу сгенерированной сводкой.
type SearchUseCase struct {
	searchInfra SearchInfra
	logger      logger.Logger
}

func NewSearchUC(searchInfra SearchInfra, logger logger.Logger) *SearchUseCase {
	return &SearchUseCase{
		searchInfra: searchInfra,
		logger:      logger,
	}
}

// Search выполняет поиск и, если движок вернул сессию, запрашивает ответ в её рамках.
// Повторов нет: любая ошибка движка возвращается как e.ErrProxy.
func (s *SearchUseCase) Search(ctx context.Context, req *SearchReq) (*domain.SearchResult, error) {
	const op = "SearchUseCase.Search"

	if strings.TrimSpace(req.Query) == "" {
		return nil, e.Wrap(op, e.ErrQueryRequired)
	}

	searchRes, err := s.searchInfra.Search(ctx, req)
	if err != nil {
		return nil, e.Wrap(op, e.Mark(e.ErrProxy, err))
	}

	result := &domain.SearchResult{Fields: searchRes.Fields}
	if !searchRes.Session.Valid() {
		s.logger.Debugf("Search response has no session, skipping answer. query: %q", req.Query)
		return result, nil
	}

	answerRes, err := s.searchInfra.Answer(ctx, NewAnswerReq(req.Query, *searchRes.Session))
	if err != nil {
		return nil, e.Wrap(op, e.Mark(e.ErrProxy, err))
	}

	if answerRes.AnswerText != "" && answerRes.AnswerText != NoSummaryAnswer {
		result.SummaryAnswer = answerRes.AnswerText
	}

	return result, nil
}
