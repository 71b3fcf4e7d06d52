package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	CORSAllowOrigins       string
	DatabaseURL            string
	NATSURL                string
	JWTSecret              string
	JWTTTL                 time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	SendgridAPIKey         string
	MailFromName           string
	MailFromAddress        string
	InviteBaseURL          string
	ReminderInterval       time.Duration
	ReminderWindow         time.Duration
	MaxUploadBytes         int
	AIProvider             string
	OpenAIAPIKey           string
	OpenAIModel            string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CLASSOPS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "ClassOps API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("cloudinary.folder", "classops/uploads")
	v.SetDefault("mail.from_name", "ClassOps")
	v.SetDefault("reminder.interval", "10m")
	v.SetDefault("reminder.window", "24h")
	v.SetDefault("max_upload_bytes", 20*1024*1024)
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("openai.model", "gpt-4o-mini")

	jwtTTL, err := time.ParseDuration(v.GetString("jwt.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt ttl: %w", err)
	}

	reminderInterval, err := time.ParseDuration(v.GetString("reminder.interval"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid reminder interval: %w", err)
	}

	reminderWindow, err := time.ParseDuration(v.GetString("reminder.window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid reminder window: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		CORSAllowOrigins:       v.GetString("cors.allow_origins"),
		DatabaseURL:            v.GetString("database.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTTTL:                 jwtTTL,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		SendgridAPIKey:         v.GetString("sendgrid.api_key"),
		MailFromName:           v.GetString("mail.from_name"),
		MailFromAddress:        v.GetString("mail.from_address"),
		InviteBaseURL:          v.GetString("invite.base_url"),
		ReminderInterval:       reminderInterval,
		ReminderWindow:         reminderWindow,
		MaxUploadBytes:         v.GetInt("max_upload_bytes"),
		AIProvider:             strings.ToLower(v.GetString("ai.provider")),
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		OpenAIModel:            v.GetString("openai.model"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 * 1024 * 1024
	}

	return cfg, nil
}
