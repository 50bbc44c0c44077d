package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "DVCURATE_"

// LoadEnv overlays cfg with DVCURATE_* variables. Values from envFile are
// used only where the process environment does not set the variable. A
// missing envFile is not an error.
func LoadEnv(cfg *Config, envFile string) error {
	vars := map[string]string{}
	if envFile != "" {
		fileVars, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read env file %s: %w", envFile, err)
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}

	lookup := func(name string) (string, bool) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			return v, true
		}
		v, ok := vars[envPrefix+name]
		return v, ok
	}

	stringVars := map[string]*string{
		"SERVICE_URL":      &cfg.ServiceURL,
		"API_KEY":          &cfg.APIKey,
		"DATASET_PID":      &cfg.DatasetPID,
		"DATA_DIR":         &cfg.DataDirectory,
		"MANIFEST":         &cfg.ManifestPath,
		"LOG_LEVEL":        &cfg.LogLevel,
		"LOG_FORMAT":       &cfg.LogFormat,
		"JOURNAL_DSN":      &cfg.JournalDSN,
		"METRICS_TEXTFILE": &cfg.MetricsTextfile,
		"S3_REGION":        &cfg.S3Region,
		"S3_ENDPOINT":      &cfg.S3Endpoint,
		"S3_ACCESS_KEY":    &cfg.S3AccessKey,
		"S3_SECRET_KEY":    &cfg.S3SecretKey,
	}
	for name, dst := range stringVars {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"RETRY_DELAY":      &cfg.RetryDelay,
		"REQUEST_TIMEOUT":  &cfg.RequestTimeout,
		"TRANSFER_TIMEOUT": &cfg.TransferTimeout,
	}
	for name, dst := range durations {
		if v, ok := lookup(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, name, err)
			}
			*dst = d
		}
	}

	if v, ok := lookup("RETRIES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sRETRIES: %w", envPrefix, err)
		}
		cfg.Retries = n
	}
	if v, ok := lookup("S3_PATH_STYLE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sS3_PATH_STYLE: %w", envPrefix, err)
		}
		cfg.S3UsePathStyle = b
	}
	return nil
}
