package config

const (
	// EnvPrefix scopes every environment variable this service reads.
	EnvPrefix = "BUILDBAZAAR"

	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags (tests, error text).
const (
	EnvAppEnv   = "BUILDBAZAAR_APP_ENV"
	EnvPort     = "BUILDBAZAAR_APP_PORT"
	EnvDBDSN    = "BUILDBAZAAR_DB_DSN"
	EnvDBHost   = "BUILDBAZAAR_DB_HOST"
	EnvDBUser   = "BUILDBAZAAR_DB_USER"
	EnvDBName   = "BUILDBAZAAR_DB_NAME"
	EnvRedisURL = "BUILDBAZAAR_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
