package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/credvault/internal/flagx"
	"github.com/dmitrijs2005/credvault/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "120s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its non-empty fields are copied
// into the runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddrHTTP        string         `json:"endpoint_addr_http"`
	DatabaseDSN             string         `json:"database_dsn"`
	JWTSecret               string         `json:"jwt_secret"`
	SessionValidityDuration timex.Duration `json:"session_validity_duration"`
	TokenSalt               string         `json:"token_salt"`
	EncryptionSecret        string         `json:"encryption_secret"`
	OtpValidityDuration     timex.Duration `json:"otp_validity_duration"`
	OtpSweepInterval        timex.Duration `json:"otp_sweep_interval"`
	SMTPAddr                string         `json:"smtp_addr"`
	SMTPFrom                string         `json:"smtp_from"`
	SMTPUser                string         `json:"smtp_user"`
	SMTPPassword            string         `json:"smtp_password"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags; when
// neither is set, no JSON file is loaded. Absent fields keep their current
// (default) values. If the file cannot be read or contains invalid JSON,
// the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.JWTSecret != "" {
		config.JWTSecret = c.JWTSecret
	}
	if c.SessionValidityDuration.Duration != 0 {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	if c.TokenSalt != "" {
		config.TokenSalt = c.TokenSalt
	}
	if c.EncryptionSecret != "" {
		config.EncryptionSecret = c.EncryptionSecret
	}
	if c.OtpValidityDuration.Duration != 0 {
		config.OtpValidityDuration = c.OtpValidityDuration.Duration
	}
	if c.OtpSweepInterval.Duration != 0 {
		config.OtpSweepInterval = c.OtpSweepInterval.Duration
	}
	if c.SMTPAddr != "" {
		config.SMTPAddr = c.SMTPAddr
	}
	if c.SMTPFrom != "" {
		config.SMTPFrom = c.SMTPFrom
	}
	if c.SMTPUser != "" {
		config.SMTPUser = c.SMTPUser
	}
	if c.SMTPPassword != "" {
		config.SMTPPassword = c.SMTPPassword
	}
}
