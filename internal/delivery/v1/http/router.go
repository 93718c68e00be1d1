package http

import (
	"net/http"

	_ "github.com/DRSN-tech/catalog-gateway/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/catalog-gateway/internal/usecase"
	"github.com/DRSN-tech/catalog-gateway/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router      *chi.Mux
	logger      logger.Logger
	corsOrigins []string
}

// NewRouter: пустой corsOrigins разрешает любые источники.
func NewRouter(router *chi.Mux, logger logger.Logger, corsOrigins []string) *Router {
	return &Router{router: router, logger: logger, corsOrigins: corsOrigins}
}

type HealthResponse struct {
	Status string `json:"status"`
}

func (r *Router) Init(fileUC usecase.FileUC, folderUC usecase.FolderUC, prUC usecase.ProductUC, searchUC usecase.SearchUC, maxUploadSize int64) {
	origins := r.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.router.Use(
		middleware.RequestID,
		middleware.RealIP,
		RequestLogger(r.logger),
		middleware.Recoverer,
		Metrics,
		cors.New(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"*"},
		}).Handler,
	)

	r.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteSuccess(w, http.StatusOK, HealthResponse{Status: "ok"})
	})
	r.router.Handle("/metrics", promhttp.Handler())
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Route("/api", func(api chi.Router) {
		registerDataRoutes(api, NewDataHandler(prUC, r.logger))
		registerFileRoutes(api, NewFileHandler(fileUC, r.logger, maxUploadSize))
		registerFolderRoutes(api, NewFolderHandler(folderUC, r.logger))
		registerSearchRoutes(api, NewSearchHandler(searchUC, r.logger))
	})
}

func registerDataRoutes(router chi.Router, h *DataHandler) {
	router.Route("/data", func(d chi.Router) {
		d.Get("/find", h.findProduct)
		d.Delete("/delete", h.deleteProduct)
		d.Post("/update", h.updateProduct)
		d.Post("/new", h.requestIngest)
	})
}

func registerFileRoutes(router chi.Router, h *FileHandler) {
	router.Route("/files", func(f chi.Router) {
		f.Get("/list", h.listFiles)
		f.Delete("/delete", h.deleteFile)
		f.Get("/view", h.viewFile)
		f.Post("/upload", h.uploadFiles)
		f.Patch("/move", h.moveFile)
	})
}

func registerFolderRoutes(router chi.Router, h *FolderHandler) {
	router.Route("/folders", func(f chi.Router) {
		f.Post("/create", h.createFolder)
		f.Delete("/delete", h.deleteFolder)
	})
}

func registerSearchRoutes(router chi.Router, h *SearchHandler) {
	router.With(Locale).Get("/search", h.search)
}
