package core

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}
	return configPath
}

func TestLoadConfig_Success(t *testing.T) {
	configPath := writeConfig(t, `port: 8080
uploadDir: /tmp/leaves
database:
  type: sqlite
  connectionString: ":memory:"
predictor:
  name: onnx
  modelPath: models/plant.onnx
  layout: nchw
cache:
  address: localhost:6379
  ttlSeconds: 60
`)

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != 8080 {
		t.Errorf("Expected port to be 8080, got %d", config.Port)
	}
	if config.UploadDir != "/tmp/leaves" {
		t.Errorf("Expected uploadDir '/tmp/leaves', got '%s'", config.UploadDir)
	}
	if config.Database.ConnectionString != ":memory:" {
		t.Errorf("Expected connectionString ':memory:', got '%s'", config.Database.ConnectionString)
	}
	if config.Predictor.Name != "onnx" {
		t.Errorf("Expected predictor 'onnx', got '%s'", config.Predictor.Name)
	}
	if got := config.Predictor.Params["modelPath"]; got != "models/plant.onnx" {
		t.Errorf("Expected inline modelPath param, got %v", got)
	}
	if got := config.Predictor.Params["layout"]; got != "nchw" {
		t.Errorf("Expected inline layout param, got %v", got)
	}
	if config.Cache.Address != "localhost:6379" || config.Cache.TTLSeconds != 60 {
		t.Errorf("Unexpected cache config: %+v", config.Cache)
	}
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "predictor:\n  name: mock\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != defaultPort {
		t.Errorf("Expected default port %d, got %d", defaultPort, config.Port)
	}
	if config.UploadDir != defaultUploadDir {
		t.Errorf("Expected default upload dir, got '%s'", config.UploadDir)
	}
	if config.MaxUploadBytes != defaultMaxUploadBytes {
		t.Errorf("Expected default max upload bytes, got %d", config.MaxUploadBytes)
	}
	if config.Database.Type != "sqlite" || config.Database.ConnectionString != defaultDatabaseFile {
		t.Errorf("Unexpected database defaults: %+v", config.Database)
	}
	if len(config.CORS.AllowOrigins) != 1 || config.CORS.AllowOrigins[0] != "*" {
		t.Errorf("Expected CORS to allow all origins, got %v", config.CORS.AllowOrigins)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	config, err := LoadConfig("/path/that/does/not/exist/config.yaml")
	if err == nil {
		t.Fatal("Expected error for non-existent file, got nil")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected error to wrap fs.ErrNotExist, got %v", err)
	}
	if config != nil {
		t.Error("Expected config to be nil when file doesn't exist")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unsupported database", "database:\n  type: postgres\n"},
		{"port out of range", "port: 70000\n"},
		{"negative ttl", "cache:\n  ttlSeconds: -1\n"},
		{"malformed yaml", "port: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.content)); err == nil {
				t.Error("Expected error for invalid config")
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.Predictor.Name != "onnx" {
		t.Errorf("Expected default predictor onnx, got %s", config.Predictor.Name)
	}
	if config.Predictor.Params == nil {
		t.Error("Expected non-nil predictor params")
	}
}
