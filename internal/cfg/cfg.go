package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/catalog-gateway/pkg/e"
	"github.com/DRSN-tech/catalog-gateway/pkg/logger"
	"github.com/jimlawless/whereami"
)

const (
	StorageBackendGCS   = "gcs"
	StorageBackendMinio = "minio"
)

type Config struct {
	GCP     *GCPCfg
	Storage *StorageCfg
	Minio   *MinIOCfg
	Search  *SearchCfg
	Ingest  *IngestCfg
	Http    *HTTPConfig
	Redis   *RedisCfg
	Kafka   *KafkaCfg
}

type GCPCfg struct {
	ServiceAccount string // base64 JSON ключа сервисного аккаунта
	ProjectID      string
}

type StorageCfg struct {
	Backend           string
	BucketName        string // бакет с исходными файлами товаров
	IndexBucketName   string // бакет с документами для поискового индекса
	SignedURLTTL      time.Duration
	UploadConcurrency int
	MaxUploadSize     int64
}

type MinIOCfg struct {
	MinioEndpoint     string
	MinioRootUser     string
	MinioRootPassword string
	MinioUseSSL       bool
}

type SearchCfg struct {
	Endpoint     string
	ProjectID    string
	AppID        string
	LanguageCode string
	TimeZone     string
	Timeout      time.Duration
}

type IngestCfg struct {
	WebhookURL string
	PathPrefix string
	Timeout    time.Duration
}

type HTTPConfig struct {
	Port               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	CORSAllowedOrigins []string
}

// RedisCfg: кэш документов индекса. Пустой Addr отключает кэш.
type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	ProductTTL  time.Duration
}

// KafkaCfg: публикация запросов на переиндексацию. Пустой Brokers отключает публикацию.
type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	gcp, err := loadGCPCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	storage, err := loadStorageCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	search, err := loadSearchCfg(log, gcp)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	ingest, err := loadIngestCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		GCP:     gcp,
		Storage: storage,
		Minio:   minio,
		Search:  search,
		Ingest:  ingest,
		Http:    http,
		Redis:   redis,
		Kafka:   kafka,
	}, nil
}

func loadGCPCfg(log logger.Logger) (*GCPCfg, error) {
	sa := getEnv("GCP_SERVICE_ACCOUNT")
	if sa == "" {
		err := fmt.Errorf("GCP_SERVICE_ACCOUNT is required")
		log.Errorf(err, "missing GCP_SERVICE_ACCOUNT")
		return nil, err
	}

	return &GCPCfg{
		ServiceAccount: sa,
		ProjectID:      getEnv("GCP_PROJECT_ID"),
	}, nil
}

func loadStorageCfg(log logger.Logger) (*StorageCfg, error) {
	const (
		defaultSignedURLTTL      = 15 * time.Minute
		defaultUploadConcurrency = 4
		defaultMaxUploadSize     = 200 << 20
	)

	backend := strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", StorageBackendGCS))
	if backend != StorageBackendGCS && backend != StorageBackendMinio {
		err := fmt.Errorf("STORAGE_BACKEND must be %q or %q", StorageBackendGCS, StorageBackendMinio)
		log.Errorf(err, "invalid STORAGE_BACKEND")
		return nil, err
	}

	bucket := getEnv("GCP_BUCKET_NAME")
	if bucket == "" {
		err := fmt.Errorf("GCP_BUCKET_NAME is required")
		log.Errorf(err, "missing GCP_BUCKET_NAME")
		return nil, err
	}

	indexBucket := getEnv("GCP_INDEX_BUCKET_NAME")
	if indexBucket == "" {
		err := fmt.Errorf("GCP_INDEX_BUCKET_NAME is required")
		log.Errorf(err, "missing GCP_INDEX_BUCKET_NAME")
		return nil, err
	}

	ttl, err := parseDurationEnv("SIGNED_URL_TTL", defaultSignedURLTTL)
	if err != nil {
		log.Errorf(err, "invalid SIGNED_URL_TTL")
		return nil, err
	}

	concurrency, err := parseIntEnv("UPLOAD_CONCURRENCY", defaultUploadConcurrency)
	if err != nil || concurrency <= 0 {
		err = e.Wrap("UPLOAD_CONCURRENCY", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid UPLOAD_CONCURRENCY")
		return nil, err
	}

	maxUpload, err := parseIntEnv("MAX_UPLOAD_SIZE", defaultMaxUploadSize)
	if err != nil {
		log.Errorf(err, "invalid MAX_UPLOAD_SIZE")
		return nil, err
	}

	return &StorageCfg{
		Backend:           backend,
		BucketName:        bucket,
		IndexBucketName:   indexBucket,
		SignedURLTTL:      ttl,
		UploadConcurrency: concurrency,
		MaxUploadSize:     int64(maxUpload),
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL   = false
		defaultEndpoint = "minio:9000"
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint),
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
	}, nil
}

func loadSearchCfg(log logger.Logger, gcp *GCPCfg) (*SearchCfg, error) {
	const (
		defaultEndpoint     = "https://discoveryengine.googleapis.com"
		defaultLanguageCode = "en-US"
		defaultTimeZone     = "Asia/Taipei"
		defaultTimeout      = 30 * time.Second
	)

	timeout, err := parseDurationEnv("SEARCH_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid SEARCH_TIMEOUT")
		return nil, err
	}

	return &SearchCfg{
		Endpoint:     strings.TrimRight(getEnvOrDefault("SEARCH_API_ENDPOINT", defaultEndpoint), "/"),
		ProjectID:    getEnvOrDefault("SEARCH_PROJECT_ID", gcp.ProjectID),
		AppID:        getEnv("SEARCH_APP_ID"),
		LanguageCode: getEnvOrDefault("SEARCH_LANGUAGE_CODE", defaultLanguageCode),
		TimeZone:     getEnvOrDefault("SEARCH_TIME_ZONE", defaultTimeZone),
		Timeout:      timeout,
	}, nil
}

func loadIngestCfg(log logger.Logger) (*IngestCfg, error) {
	const defaultTimeout = 15 * time.Second

	timeout, err := parseDurationEnv("INGEST_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid INGEST_TIMEOUT")
		return nil, err
	}

	return &IngestCfg{
		WebhookURL: getEnv("INGEST_WEBHOOK_URL"),
		PathPrefix: getEnv("INGEST_PATH_PREFIX"),
		Timeout:    timeout,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 30 * time.Second
		defaultWriteTimeout = 60 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:               port,
		ReadTimeout:        readTimeout,
		WriteTimeout:       writeTimeout,
		IdleTimeout:        idleTimeout,
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS")),
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultDB          = 0
		defaultMaxRetries  = 3
		defaultDialTimeout = 5 * time.Second
		defaultTimeout     = 3 * time.Second
		defaultProductTTL  = 3 * time.Minute
	)

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("REDIS_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid REDIS_MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("REDIS_DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DIAL_TIMEOUT")
		return nil, err
	}

	timeout, err := parseDurationEnv("REDIS_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_TIMEOUT")
		return nil, err
	}

	productTTL, err := parseDurationEnv("PRODUCT_TTL", defaultProductTTL)
	if err != nil {
		log.Errorf(err, "invalid PRODUCT_TTL")
		return nil, err
	}

	return &RedisCfg{
		Addr:        getEnv("REDIS_ADDR"),
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		ProductTTL:  productTTL,
	}, nil
}

func loadKafkaCfg(log logger.Logger) (*KafkaCfg, error) {
	const (
		defaultTopic             = "catalog.ingest"
		defaultNetworkMode       = "tcp"
		defaultPartitions        = 1
		defaultReplicationFactor = 1
	)

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		log.Errorf(err, "invalid KAFKA_PARTITIONS")
		return nil, err
	}

	replicationFactor, err := parseIntEnv("KAFKA_REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		log.Errorf(err, "invalid KAFKA_REPLICATION_FACTOR")
		return nil, err
	}

	return &KafkaCfg{
		Brokers:           splitList(getEnv("KAFKA_BROKERS")),
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.Wrap(key, e.ErrIncorrectEnvVariable)
	}

	return intValue, nil
}

func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
