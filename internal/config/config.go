package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// StaffCredential is the single shared login for one branch.
type StaffCredential struct {
	Username     string
	PasswordHash string // bcrypt
}

type Config struct {
	Env                string
	HTTPAddr           string
	DatabaseURL        string
	Timezone           string
	JWTSecret          string
	JWTExpirySeconds   int64
	RabbitMQURL        string
	RabbitMQWorkerMode string
	CorsAllowedOrigins []string

	// Dashboard refresh cadence. The defaults are the product constants;
	// env overrides exist for test and staging rigs only.
	OrderPollInterval   time.Duration
	BookingPollInterval time.Duration
	HousefullThrottle   time.Duration

	StaffLogins map[string]StaffCredential

	SMSProviderURL   string
	SMSAPIKey        string
	EmailProviderURL string
	EmailAPIKey      string
	EmailFrom        string
	CallProviderURL  string
	CallAPIKey       string

	ObjectStoreEndpoint        string
	ObjectStoreRegion          string
	ObjectStoreAccessKeyID     string
	ObjectStoreSecretAccessKey string
	ObjectStoreBucket          string
	ObjectStorePublicBaseURL   string
	ObjectStoreStorageClass    string
}

func Load() Config {
	cfg := Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8094"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Timezone:           getEnv("TIMEZONE", "Asia/Kolkata"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTExpirySeconds:   getEnvInt64("JWT_EXPIRY", 43200),
		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		RabbitMQWorkerMode: getEnv("RABBITMQ_WORKER_MODE", "daemon"),
		CorsAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),

		OrderPollInterval:   getEnvDuration("ORDER_POLL_INTERVAL", 3*time.Second),
		BookingPollInterval: getEnvDuration("BOOKING_POLL_INTERVAL", 10*time.Minute),
		HousefullThrottle:   getEnvDuration("HOUSEFULL_ALERT_THROTTLE", 30*time.Minute),

		StaffLogins: parseStaffLogins(getEnv("STAFF_LOGINS", "")),

		SMSProviderURL:   getEnv("SMS_PROVIDER_URL", ""),
		SMSAPIKey:        getEnv("SMS_API_KEY", ""),
		EmailProviderURL: getEnv("EMAIL_PROVIDER_URL", ""),
		EmailAPIKey:      getEnv("EMAIL_API_KEY", ""),
		EmailFrom:        getEnv("EMAIL_FROM", ""),
		CallProviderURL:  getEnv("CALL_PROVIDER_URL", ""),
		CallAPIKey:       getEnv("CALL_API_KEY", ""),

		ObjectStoreEndpoint:        getEnv("OBJECT_STORE_ENDPOINT", ""),
		ObjectStoreRegion:          getEnv("OBJECT_STORE_REGION", "auto"),
		ObjectStoreAccessKeyID:     getEnv("OBJECT_STORE_ACCESS_KEY_ID", ""),
		ObjectStoreSecretAccessKey: getEnv("OBJECT_STORE_SECRET_ACCESS_KEY", ""),
		ObjectStoreBucket:          getEnv("OBJECT_STORE_BUCKET", ""),
		ObjectStorePublicBaseURL:   getEnv("OBJECT_STORE_PUBLIC_BASE_URL", ""),
		ObjectStoreStorageClass:    getEnv("OBJECT_STORE_STORAGE_CLASS", "STANDARD"),
	}

	if cfg.OrderPollInterval <= 0 {
		cfg.OrderPollInterval = 3 * time.Second
	}
	if cfg.BookingPollInterval <= 0 {
		cfg.BookingPollInterval = 10 * time.Minute
	}

	return cfg
}

// parseStaffLogins reads "location:username:bcryptHash" triples separated by
// commas. Bcrypt hashes never contain commas or further colons past the
// scheme prefix, so a 3-way SplitN is safe.
func parseStaffLogins(raw string) map[string]StaffCredential {
	out := make(map[string]StaffCredential)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.SplitN(part, ":", 3)
		if len(fields) != 3 {
			continue
		}
		location := strings.TrimSpace(fields[0])
		username := strings.TrimSpace(fields[1])
		hash := strings.TrimSpace(fields[2])
		if location == "" || username == "" || hash == "" {
			continue
		}
		out[location] = StaffCredential{Username: username, PasswordHash: hash}
	}
	return out
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
