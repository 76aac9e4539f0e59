package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/cryptoex/internal/flagx"
	"github.com/joho/godotenv"
)

const envPrefix = "CRYPTOEX_"

// parseEnv loads the dotenv file named by -envfile (if any) into the
// process environment, without overriding variables already set, and then
// applies every CRYPTOEX_* variable found. Malformed values panic.
func parseEnv(config *Config) {
	if file := flagx.EnvFileFlags(); file != "" {
		if err := godotenv.Load(file); err != nil {
			panic(err)
		}
	}

	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}
	list := func(name string, dst *[]string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = splitList(v)
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}

	str("GRPC_ADDR", &config.EndpointAddrGRPC)
	str("HTTP_ADDR", &config.EndpointAddrHTTP)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	dur("ACCESS_TOKEN_TTL", &config.AccessTokenValidityDuration)
	dur("REFRESH_TOKEN_TTL", &config.RefreshTokenValidityDuration)
	str("DEFAULT_PIN", &config.DefaultPin)

	if v, ok := os.LookupEnv(envPrefix + "STRICT_SELL"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		config.StrictSell = b
	}

	str("PRICE_FEED_URL", &config.PriceFeedURL)
	list("PRICE_FEED_IDS", &config.PriceFeedIDs)
	dur("PRICE_FEED_INTERVAL", &config.PriceFeedInterval)
	dur("PRICE_FEED_TIMEOUT", &config.PriceFeedTimeout)
	str("REDIS_URL", &config.RedisURL)
	dur("PRICE_CACHE_TTL", &config.PriceCacheTTL)

	list("KAFKA_BROKERS", &config.KafkaBrokers)
	str("KAFKA_TOPIC", &config.KafkaTopic)

	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	dur("STATEMENT_LINK_TTL", &config.StatementLinkTTL)

	list("CORS_ORIGINS", &config.CORSOrigins)
	str("LOG_FORMAT", &config.LogFormat)
	str("LOG_LEVEL", &config.LogLevel)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
