package http

import (
	"fmt"
	"net/http"

	"github.com/DRSN-tech/catalog-gateway/internal/usecase"
	"github.com/DRSN-tech/catalog-gateway/pkg/logger"
)

type FolderHandler struct {
	folderUsecase usecase.FolderUC
	logger        logger.Logger
}

func NewFolderHandler(folderUsecase usecase.FolderUC, logger logger.Logger) *FolderHandler {
	return &FolderHandler{folderUsecase: folderUsecase, logger: logger}
}

type CreateFolderRequest struct {
	FolderName string `json:"folderName"`
	Prefix     string `json:"prefix"`
}

type CreateFolderResponse struct {
	Message string `json:"message"`
	Path    string `json:"path"`
}

type DeleteFolderRequest struct {
	FolderPath string `json:"folderPath"`
}

// createFolder
//
//	@Summary	Создание папки
//	@Tags		folders
//	@Accept		json
//	@Produce	json
//	@Param		body	body		CreateFolderRequest	true	"Имя и родительская папка"
//	@Success	200		{object}	CreateFolderResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse
//	@Router		/api/folders/create [post]
func (f *FolderHandler) createFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	path, err := f.folderUsecase.CreateFolder(r.Context(), usecase.NewCreateFolderReq(req.FolderName, req.Prefix))
	if err != nil {
		f.logger.Warnf("create folder %q under %q: %v", req.FolderName, req.Prefix, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, CreateFolderResponse{
		Message: fmt.Sprintf("Folder '%s' created successfully.", req.FolderName),
		Path:    path,
	})
}

// deleteFolder
//
//	@Summary		Удаление папки
//	@Description	Удаляет всё под папкой в бакете контента и связанные документы индекса
//	@Tags			folders
//	@Accept			json
//	@Produce		json
//	@Param			body	body		DeleteFolderRequest	true	"Папка"
//	@Success		200		{object}	MessageResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/folders/delete [delete]
func (f *FolderHandler) deleteFolder(w http.ResponseWriter, r *http.Request) {
	var req DeleteFolderRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if err := f.folderUsecase.DeleteFolder(r.Context(), req.FolderPath); err != nil {
		f.logger.Errorf(err, "delete folder %s", req.FolderPath)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewMessageResponse(
		fmt.Sprintf("Folder '%s' and its contents deleted successfully.", req.FolderPath),
	))
}
