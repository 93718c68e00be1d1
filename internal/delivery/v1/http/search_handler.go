package http

import (
	"net/http"

	"github.com/DRSN-tech/catalog-gateway/internal/usecase"
	"github.com/DRSN-tech/catalog-gateway/pkg/logger"
)

type SearchHandler struct {
	searchUsecase usecase.SearchUC
	logger        logger.Logger
}

func NewSearchHandler(searchUsecase usecase.SearchUC, logger logger.Logger) *SearchHandler {
	return &SearchHandler{searchUsecase: searchUsecase, logger: logger}
}

// search
//
//	@Summary		Поиск по каталогу со сводкой
//	@Description	Ответ движка как есть, плюс summaryAnswer, если сводку удалось построить
//	@Tags			search
//	@Produce		json
//	@Param			query	query		string	true	"Запрос"
//	@Param			locale	query		string	false	"en или zh"
//	@Success		200		{object}	map[string]interface{}
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/search [get]
func (s *SearchHandler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	res, err := s.searchUsecase.Search(r.Context(), usecase.NewSearchReq(query))
	if err != nil {
		s.logger.Errorf(err, "search %q", query)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, res)
}
