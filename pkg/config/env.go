package config

// EnvPrefix is the envconfig prefix shared by every binary.
const EnvPrefix = "motocafe"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "MOTOCAFE_DB_DSN"
	EnvDBHost = "MOTOCAFE_DB_HOST"
	EnvDBUser = "MOTOCAFE_DB_USER"
	EnvDBName = "MOTOCAFE_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
