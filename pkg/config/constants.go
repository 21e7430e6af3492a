package config

const (
	EnvPrefix = "CHANNELSTOCK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "CHANNELSTOCK_DB_DSN"
	EnvDBHost = "CHANNELSTOCK_DB_HOST"
	EnvDBUser = "CHANNELSTOCK_DB_USER"
	EnvDBName = "CHANNELSTOCK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
