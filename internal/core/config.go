package core

import (
	"fmt"
	"os"

	"github.com/jo-hoe/plantdoctor/internal/common"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = 5000
	defaultUploadDir      = "uploads"
	defaultMaxUploadBytes = 10 << 20
	defaultDatabaseType   = "sqlite"
	defaultDatabaseFile   = "history.db"
	defaultPredictor      = "onnx"
	defaultCacheTTL       = 24 * 60 * 60
)

// PredictorConfig selects a predictor by name. All other keys are passed
// to the predictor factory as parameters.
type PredictorConfig struct {
	Name   string         `yaml:"name" validate:"required"`
	Params map[string]any `yaml:",inline"`
}

type Database struct {
	Type             string `yaml:"type" validate:"required,oneof=sqlite"`
	ConnectionString string `yaml:"connectionString" validate:"required"`
}

// CacheConfig configures the optional Redis prediction cache. An empty
// address disables caching.
type CacheConfig struct {
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db" validate:"min=0"`
	TTLSeconds int    `yaml:"ttlSeconds" validate:"min=0"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allowOrigins"`
}

type ServiceConfig struct {
	Port           int             `yaml:"port" validate:"min=1,max=65535"`
	UploadDir      string          `yaml:"uploadDir" validate:"required"`
	MaxUploadBytes int64           `yaml:"maxUploadBytes" validate:"min=1"`
	Database       Database        `yaml:"database"`
	Predictor      PredictorConfig `yaml:"predictor"`
	Cache          CacheConfig     `yaml:"cache"`
	CORS           CORSConfig      `yaml:"cors"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *ServiceConfig {
	config := &ServiceConfig{}
	applyDefaults(config)
	return config
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var config ServiceConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	applyDefaults(&config)

	if err := common.NewGenericEchoValidator().Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}

	return &config, nil
}

func applyDefaults(config *ServiceConfig) {
	if config.Port == 0 {
		config.Port = defaultPort
	}
	if config.UploadDir == "" {
		config.UploadDir = defaultUploadDir
	}
	if config.MaxUploadBytes == 0 {
		config.MaxUploadBytes = defaultMaxUploadBytes
	}
	if config.Database.Type == "" {
		config.Database.Type = defaultDatabaseType
	}
	if config.Database.ConnectionString == "" {
		config.Database.ConnectionString = defaultDatabaseFile
	}
	if config.Predictor.Name == "" {
		config.Predictor.Name = defaultPredictor
	}
	if config.Predictor.Params == nil {
		config.Predictor.Params = map[string]any{}
	}
	if config.Cache.TTLSeconds == 0 {
		config.Cache.TTLSeconds = defaultCacheTTL
	}
	if len(config.CORS.AllowOrigins) == 0 {
		config.CORS.AllowOrigins = []string{"*"}
	}
}
