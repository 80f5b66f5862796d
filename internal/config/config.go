package config

import (
	"fmt"
	"os"
	"strings"
)

type Config struct {
	DatabaseURL string

	HTTPAddr    string
	MetricsAddr string

	TemporalHostPort  string
	TemporalNamespace string
	TaskQueue         string

	TemporalTLSCert       string
	TemporalTLSKey        string
	TemporalTLSCACert     string
	TemporalTLSServerName string

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	JWTSecret string
	JWTIssuer string

	TicketWebhookURL  string
	RenditionProfiles string
	LogLevel          string
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: getEnv("MEDIAVAULT_DATABASE_URL", ""),

		HTTPAddr:    getEnv("MEDIAVAULT_HTTP_ADDR", ":8080"),
		MetricsAddr: getEnv("MEDIAVAULT_METRICS_ADDR", ":9091"),

		TemporalHostPort:  getEnv("TEMPORAL_HOSTPORT", "localhost:7233"),
		TemporalNamespace: getEnv("TEMPORAL_NAMESPACE", "default"),
		TaskQueue:         getEnv("TEMPORAL_TASKQUEUE", "mediavault-tasks"),

		TemporalTLSCert:       getEnv("TEMPORAL_TLS_CERT", ""),
		TemporalTLSKey:        getEnv("TEMPORAL_TLS_KEY", ""),
		TemporalTLSCACert:     getEnv("TEMPORAL_TLS_CA_CERT", ""),
		TemporalTLSServerName: getEnv("TEMPORAL_TLS_SERVER_NAME", ""),

		S3Endpoint:  getEnv("MEDIAVAULT_S3_ENDPOINT", "http://localhost:9000"),
		S3Region:    getEnv("MEDIAVAULT_S3_REGION", "us-east-1"),
		S3Bucket:    getEnv("MEDIAVAULT_S3_BUCKET", "mediavault"),
		S3AccessKey: getEnv("MEDIAVAULT_S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("MEDIAVAULT_S3_SECRET_KEY", ""),

		JWTSecret: getEnv("MEDIAVAULT_JWT_SECRET", ""),
		JWTIssuer: getEnv("MEDIAVAULT_JWT_ISSUER", "mediavault"),

		TicketWebhookURL:  getEnv("MEDIAVAULT_TICKET_WEBHOOK_URL", ""),
		RenditionProfiles: getEnv("MEDIAVAULT_RENDITION_PROFILES", "renditions.yaml"),
		LogLevel:          getEnv("MEDIAVAULT_LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// Validate checks the keys the given service actually needs: both services
// share the database, object store and Temporal, but only the API issues
// session tokens.
func (c *Config) Validate(service string) error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "MEDIAVAULT_DATABASE_URL")
	}
	if c.S3AccessKey == "" {
		missing = append(missing, "MEDIAVAULT_S3_ACCESS_KEY")
	}
	if c.S3SecretKey == "" {
		missing = append(missing, "MEDIAVAULT_S3_SECRET_KEY")
	}
	if service == "core-api" && c.JWTSecret == "" {
		missing = append(missing, "MEDIAVAULT_JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if (c.TemporalTLSCert == "") != (c.TemporalTLSKey == "") {
		return fmt.Errorf("TEMPORAL_TLS_CERT and TEMPORAL_TLS_KEY must both be set")
	}
	if service == "core-api" && len(c.JWTSecret) < 32 {
		return fmt.Errorf("MEDIAVAULT_JWT_SECRET must be at least 32 bytes")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
