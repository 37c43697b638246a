package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.Address != ":8080" {
		t.Errorf("Server.Address = %q", cfg.Server.Address)
	}
	if cfg.JWT.Expiration != 168*time.Hour {
		t.Errorf("JWT.Expiration = %v", cfg.JWT.Expiration)
	}
	if cfg.Database.Driver != DriverMongo || cfg.Storage.Driver != DriverS3 {
		t.Errorf("drivers = %q/%q", cfg.Database.Driver, cfg.Storage.Driver)
	}
	if cfg.RateLimit.AuthRequests != 10 || cfg.RateLimit.AuthWindow != 15*time.Minute {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Upload.MaxBytes != 20<<20 {
		t.Errorf("Upload.MaxBytes = %d", cfg.Upload.MaxBytes)
	}
	if cfg.S3.Breaker.FailureThreshold != 5 || cfg.S3.Breaker.Timeout != 30*time.Second {
		t.Errorf("Breaker = %+v", cfg.S3.Breaker)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := strings.Join([]string{
		"server:",
		"  address: \":9090\"",
		"database:",
		"  driver: memory",
		"jwt:",
		"  secret: from-file",
		"  expiration: 2h",
	}, "\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Errorf("Server.Address = %q", cfg.Server.Address)
	}
	if cfg.Database.Driver != DriverMemory {
		t.Errorf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.JWT.Secret != "from-env" {
		t.Errorf("JWT.Secret = %q, env should win", cfg.JWT.Secret)
	}
	if cfg.JWT.Expiration != 2*time.Hour {
		t.Errorf("JWT.Expiration = %v", cfg.JWT.Expiration)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{Driver: DriverMemory},
			Storage:  StorageConfig{Driver: DriverMemory},
			JWT:      JWTConfig{Secret: "s", Expiration: time.Hour},
			Upload:   UploadConfig{MaxBytes: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing secret", func(c *Config) { c.JWT.Secret = "  " }, true},
		{"unknown database driver", func(c *Config) { c.Database.Driver = "postgres" }, true},
		{"unknown storage driver", func(c *Config) { c.Storage.Driver = "gcs" }, true},
		{"s3 without bucket", func(c *Config) { c.Storage.Driver = DriverS3 }, true},
		{"s3 with bucket", func(c *Config) { c.Storage.Driver = DriverS3; c.S3.BucketName = "media" }, false},
		{"zero upload limit", func(c *Config) { c.Upload.MaxBytes = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
