// Package config loads runtime configuration for the dvcurate CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c/--config (see LoadJSON).
//  3. A .env file and the process environment, DVCURATE_* variables
//     (see LoadEnv). Process variables win over the .env file.
//  4. Command-line flags, applied by the cli package.
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "30s" or
// integer nanoseconds:
//
//	{
//	  "service_url": "https://demo.dataverse.org",
//	  "dataset_pid": "doi:10.70122/FK2/ABCDEF",
//	  "data_directory": "/data/ledger-1871",
//	  "manifest": "/data/ledger-1871/manifest.csv",
//	  "retries": 10,
//	  "request_timeout": "60s",
//	  "transfer_timeout": "30m"
//	}
package config
