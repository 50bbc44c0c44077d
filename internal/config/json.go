package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/dvcurate/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from an explicit zero.
type JsonConfig struct {
	ServiceURL      *string         `json:"service_url"`
	APIKey          *string         `json:"api_key"`
	DatasetPID      *string         `json:"dataset_pid"`
	DataDirectory   *string         `json:"data_directory"`
	ManifestPath    *string         `json:"manifest"`
	Retries         *int            `json:"retries"`
	RetryDelay      *timex.Duration `json:"retry_delay"`
	RequestTimeout  *timex.Duration `json:"request_timeout"`
	TransferTimeout *timex.Duration `json:"transfer_timeout"`
	LogLevel        *string         `json:"log_level"`
	LogFormat       *string         `json:"log_format"`
	JournalDSN      *string         `json:"journal_dsn"`
	MetricsTextfile *string         `json:"metrics_textfile"`
	S3Region        *string         `json:"s3_region"`
	S3Endpoint      *string         `json:"s3_endpoint"`
	S3AccessKey     *string         `json:"s3_access_key"`
	S3SecretKey     *string         `json:"s3_secret_key"`
	S3UsePathStyle  *bool           `json:"s3_use_path_style"`
}

// LoadJSON overlays cfg with the fields present in the JSON file at path.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.ServiceURL, jc.ServiceURL)
	setString(&cfg.APIKey, jc.APIKey)
	setString(&cfg.DatasetPID, jc.DatasetPID)
	setString(&cfg.DataDirectory, jc.DataDirectory)
	setString(&cfg.ManifestPath, jc.ManifestPath)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.JournalDSN, jc.JournalDSN)
	setString(&cfg.MetricsTextfile, jc.MetricsTextfile)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3Endpoint, jc.S3Endpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)

	if jc.Retries != nil {
		cfg.Retries = *jc.Retries
	}
	if jc.RetryDelay != nil {
		cfg.RetryDelay = jc.RetryDelay.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.TransferTimeout != nil {
		cfg.TransferTimeout = jc.TransferTimeout.Duration
	}
	if jc.S3UsePathStyle != nil {
		cfg.S3UsePathStyle = *jc.S3UsePathStyle
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
