// Package config loads runtime configuration for the cloudservice CLI.
//
// Sources, later ones win: built-in defaults, an optional JSON file selected
// with -c/-config (or the CONFIG environment variable), then flags.
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "request_timeout": "30s",
//	  "download_dir": "."
//	}
package config
