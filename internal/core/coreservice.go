package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jo-hoe/plantdoctor/internal/backend/cache"
	"github.com/jo-hoe/plantdoctor/internal/backend/database"
	"github.com/jo-hoe/plantdoctor/internal/backend/prediction"
	"github.com/jo-hoe/plantdoctor/internal/backend/storage"
	"github.com/redis/go-redis/v9"
)

const cachePingTimeout = 3 * time.Second

// CoreService owns everything a request needs: the upload store, the
// predictor and the prediction log.
type CoreService struct {
	config          *ServiceConfig
	databaseService database.DatabaseService
	fileStore       *storage.FileStore
	predictor       prediction.Predictor
	redisClient     *redis.Client
	now             func() time.Time
}

// UploadResult is the outcome of one processed upload.
type UploadResult struct {
	Record *database.UploadRecord
	Result prediction.Result
}

func NewCoreService(config *ServiceConfig) (*CoreService, error) {
	if !prediction.DefaultRegistry.IsRegistered(config.Predictor.Name) {
		return nil, fmt.Errorf("unknown predictor %q (available: %s)",
			config.Predictor.Name, strings.Join(prediction.DefaultRegistry.GetRegisteredNames(), ", "))
	}

	fileStore, err := storage.NewFileStore(config.UploadDir)
	if err != nil {
		return nil, err
	}
	slog.Info("upload directory ready", "dir", fileStore.Dir())

	databaseService, err := getDatabaseService(config)
	if err != nil {
		slog.Error("failed to initialize database service", "error", err)
		return nil, err
	}

	predictor, err := prediction.DefaultRegistry.Create(config.Predictor.Name, config.Predictor.Params)
	if err != nil {
		_ = databaseService.Close()
		return nil, fmt.Errorf("failed to initialize predictor: %w", err)
	}
	slog.Info("predictor initialized", "name", config.Predictor.Name)
	if classifier, ok := predictor.(*prediction.Classifier); ok && !classifier.Enabled() {
		slog.Warn("classifier has no model; every upload is labeled as not loaded",
			"label", prediction.LabelModelNotLoaded)
	}

	service := NewCoreServiceWith(config, databaseService, fileStore, predictor)
	service.enableCache()
	return service, nil
}

// NewCoreServiceWith assembles a CoreService from already constructed parts.
func NewCoreServiceWith(config *ServiceConfig, databaseService database.DatabaseService,
	fileStore *storage.FileStore, predictor prediction.Predictor) *CoreService {
	return &CoreService{
		config:          config,
		databaseService: databaseService,
		fileStore:       fileStore,
		predictor:       predictor,
		now:             time.Now,
	}
}

// enableCache wraps the predictor with the Redis cache when an address is
// configured and reachable. The mock predictor is random and never cached.
func (service *CoreService) enableCache() {
	cfg := service.config.Cache
	if cfg.Address == "" || service.config.Predictor.Name == "mock" {
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cachePingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("prediction cache unavailable; continuing without it", "address", cfg.Address, "error", err)
		_ = client.Close()
		return
	}

	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	service.predictor = cache.NewCachingPredictor(service.predictor, cache.NewPredictionCache(client, ttl))
	service.redisClient = client
	slog.Info("prediction cache enabled", "address", cfg.Address, "ttl", ttl)
}

// ProcessUpload stores the upload, predicts on the stored bytes and appends
// the result to the log.
func (service *CoreService) ProcessUpload(ctx context.Context, filename string, src io.Reader) (*UploadResult, error) {
	name, err := storage.SanitizeFilename(filename)
	if err != nil {
		return nil, err
	}

	path, err := service.fileStore.Save(name, src)
	if err != nil {
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}

	imageData, err := service.fileStore.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	start := time.Now()
	result := service.predictor.Predict(ctx, imageData)
	slog.Info("prediction complete",
		"filename", name,
		"outcome", result.Outcome.String(),
		"disease", result.Label,
		"confidence", result.Confidence,
		"duration_ms", time.Since(start).Milliseconds())

	record, err := service.databaseService.AppendUpload(ctx, &database.UploadRecord{
		Filename:   name,
		Disease:    result.Label,
		Confidence: result.Confidence,
		Timestamp:  service.now().Format(database.TimestampLayout),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record prediction: %w", err)
	}

	return &UploadResult{Record: record, Result: result}, nil
}

// History returns all prediction records, newest first.
func (service *CoreService) History(ctx context.Context) ([]*database.UploadRecord, error) {
	return service.databaseService.GetAllUploads(ctx)
}

func (service *CoreService) Close() error {
	var errs []error
	if service.predictor != nil {
		errs = append(errs, service.predictor.Close())
	}
	if service.redisClient != nil {
		errs = append(errs, service.redisClient.Close())
	}
	if service.databaseService != nil {
		errs = append(errs, service.databaseService.Close())
	}
	return errors.Join(errs...)
}

func getDatabaseService(config *ServiceConfig) (database.DatabaseService, error) {
	databaseService, err := database.NewDatabase(config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("database initialized successfully", "type", config.Database.Type)
	return databaseService, nil
}
