package config

const (
	EnvPrefix = "DURENT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	PushProviderExpo = "expo"
	PushProviderFCM  = "fcm"

	EnvAppEnv   = "DURENT_APP_ENV"
	EnvPort     = "DURENT_APP_PORT"
	EnvDBDSN    = "DURENT_DB_DSN"
	EnvDBHost   = "DURENT_DB_HOST"
	EnvDBUser   = "DURENT_DB_USER"
	EnvDBName   = "DURENT_DB_NAME"
	EnvRedisURL = "DURENT_REDIS_URL"

	EnvJWTSecret = "DURENT_JWT_SECRET"
	EnvJWTIssuer = "DURENT_JWT_ISSUER"

	EnvUseSQLite               = "DURENT_USE_SQLITE"
	EnvPushProvider            = "DURENT_PUSH_PROVIDER"
	EnvFirebaseCredentialsFile = "DURENT_FIREBASE_CREDENTIALS_FILE"
	EnvFirebaseCredentialsJSON = "DURENT_FIREBASE_CREDENTIALS_JSON"
	EnvSchedulerTimezone       = "DURENT_SCHEDULER_TIMEZONE"
	EnvReminderLeadDays        = "DURENT_REMINDER_LEAD_DAYS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
