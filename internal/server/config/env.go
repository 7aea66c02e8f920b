package config

import "os"

// parseEnv overlays configuration from environment variables. The secrets
// (salt, encryption key, JWT secret, SMTP password) are the values most
// deployments supply this way.
func parseEnv(config *Config) {
	if v := os.Getenv("ENDPOINT_ADDR_HTTP"); v != "" {
		config.EndpointAddrHTTP = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		config.JWTSecret = v
	}
	if v := os.Getenv("TOKEN_SALT"); v != "" {
		config.TokenSalt = v
	}
	if v := os.Getenv("ENCRYPTION_KEY"); v != "" {
		config.EncryptionSecret = v
	}
	if v := os.Getenv("SMTP_ADDR"); v != "" {
		config.SMTPAddr = v
	}
	if v := os.Getenv("SMTP_FROM"); v != "" {
		config.SMTPFrom = v
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		config.SMTPUser = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		config.SMTPPassword = v
	}
}
