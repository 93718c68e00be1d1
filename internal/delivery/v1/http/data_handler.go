package http

import (
	"encoding/json"
	"net/http"

	"github.com/DRSN-tech/catalog-gateway/internal/domain"
	"github.com/DRSN-tech/catalog-gateway/internal/usecase"
	"github.com/DRSN-tech/catalog-gateway/pkg/logger"
)

// DataHandler — документы товаров в бакете индекса и запуск их построения.
type DataHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewDataHandler(productUsecase usecase.ProductUC, logger logger.Logger) *DataHandler {
	return &DataHandler{productUsecase: productUsecase, logger: logger}
}

type ProductsListResponse struct {
	Products []domain.ProductMetadata `json:"products"`
}

type DeleteProductRequest struct {
	ProductID string `json:"productId"`
}

type UpdateProductRequest struct {
	Product json.RawMessage `json:"product" swaggertype:"object"`
	Format  string          `json:"format,omitempty" enums:"document,jsonl"`
}

type IngestRequest struct {
	Path string `json:"path"`
}

// findProduct
//
//	@Summary		Документ товара или список товаров
//	@Description	Без id возвращает все документы индекса, с id — содержимое <id>.json (JSONL отдаётся массивом)
//	@Tags			data
//	@Produce		json
//	@Param			id	query		string	false	"Идентификатор товара"
//	@Success		200	{object}	ProductsListResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/data/find [get]
func (d *DataHandler) findProduct(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")

	if id == "" {
		products, err := d.productUsecase.ListProducts(r.Context())
		if err != nil {
			d.logger.Errorf(err, "list products")
			WriteError(w, err)
			return
		}

		WriteSuccess(w, http.StatusOK, ProductsListResponse{Products: products})
		return
	}

	doc, err := d.productUsecase.FindProduct(r.Context(), id)
	if err != nil {
		d.logger.Warnf("find product %s: %v", id, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, doc)
}

// deleteProduct
//
//	@Summary	Удаление документа товара
//	@Tags		data
//	@Accept		json
//	@Produce	json
//	@Param		body	body		DeleteProductRequest	true	"Товар"
//	@Success	200		{object}	MessageResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/api/data/delete [delete]
func (d *DataHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	var req DeleteProductRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if err := d.productUsecase.DeleteProduct(r.Context(), req.ProductID); err != nil {
		d.logger.Warnf("delete product %s: %v", req.ProductID, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewMessageResponse("Product deleted"))
}

// updateProduct
//
//	@Summary		Обновление товара в индексе
//	@Description	format=document перезаписывает <product_id>.json, format=jsonl заменяет строку с тем же id и itemIndex.
//	@Description	Без format: наличие product.id выбирает jsonl.
//	@Tags			data
//	@Accept			json
//	@Produce		json
//	@Param			body	body		UpdateProductRequest	true	"Товар"
//	@Success		200		{object}	MessageResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/data/update [post]
func (d *DataHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	update, err := domain.NewUpdateRequest(req.Product, req.Format)
	if err != nil {
		d.logger.Warnf("%d invalid update: %v", http.StatusBadRequest, err)
		WriteError(w, err)
		return
	}

	if err := d.productUsecase.UpdateProduct(r.Context(), update); err != nil {
		d.logger.Warnf("update product %s: %v", update.ObjectPath(), err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewMessageResponse("Product updated"))
}

// requestIngest
//
//	@Summary	Запуск построения данных товара по пути в бакете контента
//	@Tags		data
//	@Accept		json
//	@Produce	json
//	@Param		body	body		IngestRequest	true	"Путь"
//	@Success	200		{object}	MessageResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	500		{object}	ErrorResponse
//	@Router		/api/data/new [post]
func (d *DataHandler) requestIngest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if err := d.productUsecase.RequestIngest(r.Context(), req.Path); err != nil {
		d.logger.Errorf(err, "request ingest for %s", req.Path)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewMessageResponse("Data received"))
}
