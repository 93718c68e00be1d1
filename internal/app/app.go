package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/catalog-gateway/internal/cfg"
	v1Http "github.com/DRSN-tech/catalog-gateway/internal/delivery/v1/http"
	"github.com/DRSN-tech/catalog-gateway/internal/infrastructure/discovery"
	"github.com/DRSN-tech/catalog-gateway/internal/infrastructure/ingest"
	"github.com/DRSN-tech/catalog-gateway/internal/infrastructure/kafka"
	gcsRepo "github.com/DRSN-tech/catalog-gateway/internal/repository/gcs"
	s3Repo "github.com/DRSN-tech/catalog-gateway/internal/repository/minio"
	"github.com/DRSN-tech/catalog-gateway/internal/repository/redis"
	"github.com/DRSN-tech/catalog-gateway/internal/repository/redis/converter"
	"github.com/DRSN-tech/catalog-gateway/internal/usecase"
	"github.com/DRSN-tech/catalog-gateway/pkg/closer"
	"github.com/DRSN-tech/catalog-gateway/pkg/clients"
	"github.com/DRSN-tech/catalog-gateway/pkg/e"
	"github.com/DRSN-tech/catalog-gateway/pkg/gcpcred"
	"github.com/DRSN-tech/catalog-gateway/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
	topicTimeout    = 10 * time.Second
)

// App: граф зависимостей сервиса, собранный один раз при старте.
type App struct {
	cfg     *config.Config
	logger  logger.Logger
	httpSrv *v1Http.Server
	closer  *closer.Closer
}

type buckets struct {
	content usecase.ObjectRepository
	index   usecase.ObjectRepository
}

func NewApp(cfg *config.Config, logger logger.Logger) (*App, error) {
	cl := closer.NewCloser(0)

	fail := func(err error) (*App, error) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if closeErr := cl.Close(shutdownCtx); closeErr != nil {
			logger.Warnf("cleanup after failed start: %v", closeErr)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	cred, err := gcpcred.Load(cfg.GCP.ServiceAccount)
	if err != nil {
		logger.Errorf(err, "failed to load service account")
		return fail(err)
	}

	repos, err := initBuckets(ctx, cfg, cred, cl, logger)
	if err != nil {
		return fail(err)
	}

	cacheRepo, err := initCache(ctx, cfg, cl, logger)
	if err != nil {
		return fail(err)
	}

	ingestInfra := initIngest(cfg, cl, logger)

	tokenSource, err := cred.TokenSource(context.Background(), gcpcred.CloudPlatformScope)
	if err != nil {
		logger.Errorf(err, "failed to initialize search token source")
		return fail(err)
	}
	searchInfra := discovery.NewClient(context.Background(), tokenSource, cfg.Search, logger)

	fileUC := usecase.NewFileUC(repos.content, logger, cfg.Storage.SignedURLTTL, cfg.Storage.UploadConcurrency)
	folderUC := usecase.NewFolderUC(repos.content, repos.index, cacheRepo, logger)
	productUC := usecase.NewProductUC(repos.index, cacheRepo, ingestInfra, cfg.Ingest.PathPrefix, logger)
	searchUC := usecase.NewSearchUC(searchInfra, logger)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, logger, cfg.Http.CORSAllowedOrigins)
	router.Init(fileUC, folderUC, productUC, searchUC, cfg.Storage.MaxUploadSize)

	httpSrv := v1Http.NewServer(r, cfg.Http)

	return &App{
		cfg:     cfg,
		logger:  logger,
		httpSrv: httpSrv,
		closer:  cl,
	}, nil
}

// Run блокируется до сигнала остановки или падения HTTP-сервера.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	// === Ожидание сигнала или ошибки ===
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	// === Graceful shutdown ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.httpSrv.Stop(shutdownCtx); err != nil {
		a.logger.Errorf(err, "HTTP server shutdown error")
	} else {
		a.logger.Infof("HTTP server stopped")
	}

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("%v", err)
	}

	a.logger.Infof("Application shutdown complete")

	return appErr
}

// initBuckets выбирает бэкенд хранилища: GCS в проде, MinIO локально.
func initBuckets(ctx context.Context, cfg *config.Config, cred *gcpcred.Credential, cl *closer.Closer, logger logger.Logger) (*buckets, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendMinio:
		minioClient, err := clients.NewMinIOClient(cfg.Minio)
		if err != nil {
			logger.Errorf(err, "failed to initialize minio client")
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		for _, bucket := range []string{cfg.Storage.BucketName, cfg.Storage.IndexBucketName} {
			if err := clients.EnsureBucket(ctx, minioClient, bucket); err != nil {
				logger.Errorf(err, "failed to initialize MinIO bucket %s", bucket)
				return nil, e.Wrap(whereami.WhereAmI(), err)
			}
		}

		return &buckets{
			content: s3Repo.NewObjectRepo(minioClient, cfg.Storage.BucketName),
			index:   s3Repo.NewObjectRepo(minioClient, cfg.Storage.IndexBucketName),
		}, nil
	default:
		storageClient, err := clients.NewStorageClient(ctx, cred)
		if err != nil {
			logger.Errorf(err, "failed to initialize storage client")
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		cl.AddErr("gcs", storageClient.Close)

		return &buckets{
			content: gcsRepo.NewObjectRepo(storageClient, cfg.Storage.BucketName, cred),
			index:   gcsRepo.NewObjectRepo(storageClient, cfg.Storage.IndexBucketName, cred),
		}, nil
	}
}

// initCache возвращает nil, если REDIS_ADDR не задан: usecase тогда работает без кэша.
func initCache(ctx context.Context, cfg *config.Config, cl *closer.Closer, logger logger.Logger) (usecase.CacheRepository, error) {
	if cfg.Redis.Addr == "" {
		logger.Infof("REDIS_ADDR is not set, document cache disabled")
		return nil, nil
	}

	redisClient := clients.NewRedisClient(cfg.Redis)
	cl.AddErr("redis", redisClient.Close)

	if err := redisClient.Ping(ctx); err != nil {
		logger.Errorf(err, "failed to connect to redis")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return redis.NewCacheRepo(redisClient, converter.DocumentConverter{}, cfg.Redis, logger), nil
}

// initIngest собирает получателей запросов на построение данных; nil, если не настроен ни один.
func initIngest(cfg *config.Config, cl *closer.Closer, logger logger.Logger) usecase.IngestInfra {
	dispatcher := ingest.NewDispatcher(logger)

	if cfg.Ingest.WebhookURL != "" {
		dispatcher.Add("webhook", ingest.NewWebhook(cfg.Ingest.WebhookURL, cfg.Ingest.Timeout))
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(logger, cfg.Kafka)
		if err := producer.EnsureTopic(topicTimeout); err != nil {
			logger.Warnf("Kafka topic %s is not ready: %v", cfg.Kafka.Topic, err)
		}
		cl.AddErr("kafka", producer.Close)
		dispatcher.Add("kafka", producer)
	}

	if dispatcher.Empty() {
		logger.Warnf("INGEST_WEBHOOK_URL and KAFKA_BROKERS are not set, ingest requests will fail")
		return nil
	}

	return dispatcher
}
