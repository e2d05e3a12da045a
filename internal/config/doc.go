// Package config provides configuration management for feed-downloader.
//
// Settings are layered, lowest precedence first:
//   - Built-in defaults (DefaultSettings)
//   - A YAML, JSON or TOML config file
//   - FEEDDL_* environment variables (FEEDDL_DOWNLOAD_MAX_PARALLEL=8)
//   - Command line flags bound with WithFlags
//
// # Loading
//
//	settings, err := config.Load("feed-dl.yaml", config.WithFlags(cmd.Flags(), map[string]string{
//	    "download.max_parallel": "parallel",
//	}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Conversion
//
// Settings converts to the option structs of the packages it configures:
// WorkerConfig, ManagerConfig, ClientOptions and NewStore.
package config
