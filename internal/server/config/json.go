package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/cryptoex/internal/flagx"
	"github.com/dmitrijs2005/cryptoex/internal/timex"
)

// JsonConfig is the DTO for JSON config files. Durations accept "30s" or
// integer nanoseconds. Absent keys leave the current value alone.
type JsonConfig struct {
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	DefaultPin                   string         `json:"default_pin"`
	StrictSell                   *bool          `json:"strict_sell"`
	PriceFeedURL                 string         `json:"price_feed_url"`
	PriceFeedIDs                 []string       `json:"price_feed_ids"`
	PriceFeedInterval            timex.Duration `json:"price_feed_interval"`
	PriceFeedTimeout             timex.Duration `json:"price_feed_timeout"`
	RedisURL                     string         `json:"redis_url"`
	PriceCacheTTL                timex.Duration `json:"price_cache_ttl"`
	KafkaBrokers                 []string       `json:"kafka_brokers"`
	KafkaTopic                   string         `json:"kafka_topic"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	StatementLinkTTL             timex.Duration `json:"statement_link_ttl"`
	CORSOrigins                  []string       `json:"cors_origins"`
	LogFormat                    string         `json:"log_format"`
	LogLevel                     string         `json:"log_level"`
}

// parseJson overlays the file given with -c/-config. An unreadable file or
// invalid JSON panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setStr(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setStr(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setStr(&config.DatabaseDSN, c.DatabaseDSN)
	setStr(&config.SecretKey, c.SecretKey)
	setDur(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDur(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setStr(&config.DefaultPin, c.DefaultPin)
	if c.StrictSell != nil {
		config.StrictSell = *c.StrictSell
	}
	setStr(&config.PriceFeedURL, c.PriceFeedURL)
	setList(&config.PriceFeedIDs, c.PriceFeedIDs)
	setDur(&config.PriceFeedInterval, c.PriceFeedInterval)
	setDur(&config.PriceFeedTimeout, c.PriceFeedTimeout)
	setStr(&config.RedisURL, c.RedisURL)
	setDur(&config.PriceCacheTTL, c.PriceCacheTTL)
	setList(&config.KafkaBrokers, c.KafkaBrokers)
	setStr(&config.KafkaTopic, c.KafkaTopic)
	setStr(&config.S3RootUser, c.S3RootUser)
	setStr(&config.S3RootPassword, c.S3RootPassword)
	setStr(&config.S3Bucket, c.S3Bucket)
	setStr(&config.S3Region, c.S3Region)
	setStr(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDur(&config.StatementLinkTTL, c.StatementLinkTTL)
	setList(&config.CORSOrigins, c.CORSOrigins)
	setStr(&config.LogFormat, c.LogFormat)
	setStr(&config.LogLevel, c.LogLevel)
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setList(dst *[]string, v []string) {
	if v != nil {
		*dst = v
	}
}

func setDur(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
