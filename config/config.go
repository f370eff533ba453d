/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suparena/tablekit/blob"
	"github.com/suparena/tablekit/datastore/ddb"
	"github.com/suparena/tablekit/errors"
)

// DefaultEnvFile is loaded by Load when no env file is named.
const DefaultEnvFile = ".env"

// Config is the runtime configuration of tablekit tools.
type Config struct {
	Tables TablesConfig `yaml:"tables" envPrefix:"TABLEKIT_DDB_"`
	Blobs  BlobsConfig  `yaml:"blobs" envPrefix:"TABLEKIT_BLOB_"`
	Log    LogConfig    `yaml:"log" envPrefix:"TABLEKIT_LOG_"`
}

// TablesConfig locates the DynamoDB service.
type TablesConfig struct {
	Region    string `yaml:"region" env:"REGION"`
	Endpoint  string `yaml:"endpoint" env:"ENDPOINT"`
	AccessKey string `yaml:"accessKey" env:"ACCESS_KEY"`
	SecretKey string `yaml:"secretKey" env:"SECRET_KEY"`
}

// BlobsConfig locates the blob service. See blob.Config.
type BlobsConfig struct {
	ConnectionString string        `yaml:"connectionString" env:"CONNECTION_STRING"`
	AccountName      string        `yaml:"accountName" env:"ACCOUNT_NAME"`
	AccountKey       string        `yaml:"accountKey" env:"ACCOUNT_KEY"`
	ServiceURL       string        `yaml:"serviceURL" env:"SERVICE_URL"`
	MaxRetries       int32         `yaml:"maxRetries" env:"MAX_RETRIES"`
	RetryDelay       time.Duration `yaml:"retryDelay" env:"RETRY_DELAY"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	JSON  bool `yaml:"json" env:"JSON"`
	Debug bool `yaml:"debug" env:"DEBUG"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Blobs: BlobsConfig{
			MaxRetries: blob.DefaultMaxRetries,
			RetryDelay: blob.DefaultRetryDelay,
		},
	}
}

// Load reads the environment after loading the given .env files. Without
// files, DefaultEnvFile is loaded when it exists. Variables already set in
// the process win over .env files.
func Load(envFiles ...string) (Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// LoadFile reads a YAML configuration file, then applies environment
// overrides.
func LoadFile(path string, envFiles ...string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(DefaultEnvFile); stderrors.Is(err, fs.ErrNotExist) {
			return nil
		}
		files = []string{DefaultEnvFile}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

// Validate checks the settings that can be checked without I/O.
func (c Config) Validate() error {
	if err := c.Tables.Validate(); err != nil {
		return err
	}
	return c.Blobs.Validate()
}

// Validate checks the table settings.
func (t TablesConfig) Validate() error {
	if t.Region == "" && t.Endpoint == "" {
		return errors.NewValidationError("tables.region", "a region or endpoint is required")
	}
	if (t.AccessKey == "") != (t.SecretKey == "") {
		return errors.NewValidationError("tables.accessKey", "access key and secret key must be set together")
	}
	return nil
}

// Validate checks the blob settings.
func (b BlobsConfig) Validate() error {
	if (b.AccountName == "") != (b.AccountKey == "") {
		return errors.NewValidationError("blobs.accountName", "account name and key must be set together")
	}
	if b.MaxRetries < 0 {
		return errors.NewValidationError("blobs.maxRetries", "must not be negative")
	}
	if b.RetryDelay < 0 {
		return errors.NewValidationError("blobs.retryDelay", "must not be negative")
	}
	return nil
}

// HasBlobs reports whether a blob service is configured.
func (c Config) HasBlobs() bool {
	b := c.Blobs
	return b.ConnectionString != "" || b.AccountName != "" || b.ServiceURL != ""
}

// DynamoDB returns the client settings for package ddb.
func (t TablesConfig) DynamoDB() ddb.ClientConfig {
	return ddb.ClientConfig{
		AccessKey: t.AccessKey,
		SecretKey: t.SecretKey,
		Region:    t.Region,
		Endpoint:  t.Endpoint,
	}
}

// Blob returns the client settings for package blob.
func (b BlobsConfig) Blob() blob.Config {
	return blob.Config{
		ConnectionString: b.ConnectionString,
		AccountName:      b.AccountName,
		AccountKey:       b.AccountKey,
		ServiceURL:       b.ServiceURL,
		MaxRetries:       b.MaxRetries,
		RetryDelay:       b.RetryDelay,
	}
}
