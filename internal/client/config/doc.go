// Package config loads runtime configuration for the CryptoEx terminal
// client.
//
// Sources, in order of precedence (later wins):
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags -a, -d, -i and -w.
//
// Example JSON:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "database_path": "cryptoex.db",
//	  "online_check_interval": "3s",
//	  "watch_interval": "5s",
//	  "request_timeout": "10s"
//	}
package config
