package config

import "time"

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 8080
	defaultEnv        = "development"

	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	defaultDBDriver   = DriverMySQL
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "site_core"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultSQLitePath = "site-core.db"

	defaultRedisHost = "localhost"
	defaultRedisPort = 6379
	defaultRedisDB   = 0

	defaultTokenURL        = "https://oauth2.googleapis.com/token"
	defaultTokenInfoURL    = "https://oauth2.googleapis.com/tokeninfo"
	defaultInspectURL      = "https://searchconsole.googleapis.com/v1/urlInspection/index:inspect"
	defaultPublishURL      = "https://indexing.googleapis.com/v3/urlNotifications:publish"
	defaultRequestTimeout  = 30 * time.Second
	defaultInspectSchedule = "0 3 * * *"
	defaultRefreshSchedule = "*/45 * * * *"

	minSecretKeyLen = 16
)

// Environment overrides, applied after the YAML file (and after .env is loaded).
const (
	EnvDSN       = "SITE_CORE_DSN"
	EnvRedisURL  = "SITE_CORE_REDIS_URL"
	EnvJWTSecret = "SITE_CORE_JWT_SECRET"
	EnvBaseURL   = "SITE_CORE_BASE_URL"

	EnvIndexingSecretKey = "SITE_CORE_INDEXING_SECRET_KEY"
)
