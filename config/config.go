package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	LogFile           string `mapstructure:"LOG_FILE"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Payment gateways.
	StripeKey         string `mapstructure:"STRIPE_KEY"`
	RazorpayKeyID     string `mapstructure:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string `mapstructure:"RAZORPAY_KEY_SECRET"`

	// Object storage: "cloudinary" or "gcs".
	StorageDriver       string `mapstructure:"STORAGE_DRIVER"`
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`
	GCSBucket           string `mapstructure:"GCS_BUCKET"`
	GCSCredentialsFile  string `mapstructure:"GCS_CREDENTIALS_FILE"`

	// Notification channels. Empty values disable the channel.
	SMTPHost                string `mapstructure:"SMTP_HOST"`
	SMTPPort                int    `mapstructure:"SMTP_PORT"`
	SMTPUser                string `mapstructure:"SMTP_USER"`
	SMTPPassword            string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom                string `mapstructure:"SMTP_FROM"`
	TwilioAccountSID        string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken         string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFrom              string `mapstructure:"TWILIO_FROM"`
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
	WorkerConcurrency       int    `mapstructure:"WORKER_CONCURRENCY"`

	// Lifecycle event stream. Comma separated broker list.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`

	UploadMaxBytes     int64 `mapstructure:"UPLOAD_MAX_BYTES"`
	CancelOnFullRefund bool  `mapstructure:"CANCEL_ON_FULL_REFUND"`
}

var defaults = map[string]any{
	"APP_PORT":                  "8080",
	"ENV":                       "development",
	"JWT_SECRET":                "",
	"LOG_LEVEL":                 "info",
	"LOG_FILE":                  "",
	"MAX_REQUESTS_PER_MIN":      100,
	"DATABASE_URL":              "mongodb://localhost:27017",
	"DATABASE_NAME":             "medbook",
	"REDIS_ADDR":                "localhost:6379",
	"REDIS_PASSWORD":            "",
	"REDIS_CACHE_DB":            0,
	"REDIS_QUEUE_DB":            1,
	"STRIPE_KEY":                "",
	"RAZORPAY_KEY_ID":           "",
	"RAZORPAY_KEY_SECRET":       "",
	"STORAGE_DRIVER":            "cloudinary",
	"CLOUDINARY_CLOUD_NAME":     "",
	"CLOUDINARY_API_KEY":        "",
	"CLOUDINARY_API_SECRET":     "",
	"GCS_BUCKET":                "",
	"GCS_CREDENTIALS_FILE":      "",
	"SMTP_HOST":                 "",
	"SMTP_PORT":                 587,
	"SMTP_USER":                 "",
	"SMTP_PASSWORD":             "",
	"SMTP_FROM":                 "",
	"TWILIO_ACCOUNT_SID":        "",
	"TWILIO_AUTH_TOKEN":         "",
	"TWILIO_FROM":               "",
	"FIREBASE_CREDENTIALS_FILE": "",
	"WORKER_CONCURRENCY":        10,
	"KAFKA_BROKERS":             "",
	"KAFKA_TOPIC":               "booking-events",
	"UPLOAD_MAX_BYTES":          10 << 20,
	"CANCEL_ON_FULL_REFUND":     true,
}

// Load reads config.yaml from the working directory or ./config, overlays environment
// variables and falls back to defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Brokers splits KAFKA_BROKERS into addresses, dropping blanks.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
