package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server     Server
	Database   Database
	JWT        JWT
	Log        Log
	Attempts   Attempts
	Gemini     Gemini
	HRInvite   string
	CORSOrigin []string
}

type Server struct {
	Port    string
	GinMode string
}

type Database struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

type JWT struct {
	Secret     string
	Expiration time.Duration
}

type Log struct {
	Level  string
	Pretty bool
}

type Attempts struct {
	EnforceAssignment  bool
	AutoSubmitSchedule string
	AutoSubmitBatch    int
}

type Gemini struct {
	ApiKey string
	Model  string
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_PORT", "5432")
	viper.SetDefault("DATABASE_SSLMODE", "disable")
	viper.SetDefault("DATABASE_SQLITE_PATH", "competency.db")
	viper.SetDefault("JWT_EXPIRATION_HOURS", 24)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_PRETTY", false)
	viper.SetDefault("ENFORCE_ASSIGNMENT", true)
	viper.SetDefault("AUTO_SUBMIT_SCHEDULE", "@every 30s")
	viper.SetDefault("AUTO_SUBMIT_BATCH_SIZE", 100)
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Server.GinMode = viper.GetString("GIN_MODE")
	config.Database.Driver = viper.GetString("DATABASE_DRIVER")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")
	config.Database.SSLMode = viper.GetString("DATABASE_SSLMODE")
	config.Database.SQLitePath = viper.GetString("DATABASE_SQLITE_PATH")

	config.JWT.Secret = viper.GetString("JWT_SECRET")
	config.JWT.Expiration = time.Duration(viper.GetInt("JWT_EXPIRATION_HOURS")) * time.Hour

	config.Log.Level = viper.GetString("LOG_LEVEL")
	config.Log.Pretty = viper.GetBool("LOG_PRETTY")

	config.Attempts.EnforceAssignment = viper.GetBool("ENFORCE_ASSIGNMENT")
	config.Attempts.AutoSubmitSchedule = viper.GetString("AUTO_SUBMIT_SCHEDULE")
	config.Attempts.AutoSubmitBatch = viper.GetInt("AUTO_SUBMIT_BATCH_SIZE")

	config.Gemini.ApiKey = viper.GetString("GEMINI_API_KEY")
	config.Gemini.Model = viper.GetString("GEMINI_MODEL")

	config.HRInvite = viper.GetString("HR_INVITE_CODE")
	config.CORSOrigin = viper.GetStringSlice("CORS_ALLOWED_ORIGINS")

	if config.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET is not set; tokens will be signed with an empty key")
	}

	log.Info().
		Str("port", config.Server.Port).
		Str("dbDriver", config.Database.Driver).
		Str("dbHost", config.Database.Host).
		Str("dbName", config.Database.Name).
		Bool("enforceAssignment", config.Attempts.EnforceAssignment).
		Str("autoSubmitSchedule", config.Attempts.AutoSubmitSchedule).
		Bool("geminiEnabled", config.Gemini.ApiKey != "").
		Msg("Config loaded")
	return &config, nil
}
