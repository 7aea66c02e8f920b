package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/credvault/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      session token validity, minutes
//	-k string   lookup-token salt
//	-e string   PII encryption secret
//	-o int      OTP validity, seconds
//	-w int      OTP sweep interval, hours
//	-m string   SMTP endpoint (host:port)
//	-f string   SMTP from address
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration
// flags are accepted as integers and converted to time.Duration values.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-k", "-e", "-o", "-w", "-m", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.JWTSecret, "s", config.JWTSecret, "secret key")
	fs.StringVar(&config.TokenSalt, "k", config.TokenSalt, "lookup token salt")
	fs.StringVar(&config.EncryptionSecret, "e", config.EncryptionSecret, "encryption secret")
	fs.StringVar(&config.SMTPAddr, "m", config.SMTPAddr, "SMTP endpoint (host:port)")
	fs.StringVar(&config.SMTPFrom, "f", config.SMTPFrom, "SMTP from address")

	sessionValidity := fs.Int("t", int(config.SessionValidityDuration.Minutes()), "session_validity_duration (in minutes)")
	otpValidity := fs.Int("o", int(config.OtpValidityDuration.Seconds()), "otp_validity_duration (in seconds)")
	sweepInterval := fs.Int("w", int(config.OtpSweepInterval.Hours()), "otp_sweep_interval (in hours)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionValidityDuration = time.Duration(*sessionValidity) * time.Minute
	config.OtpValidityDuration = time.Duration(*otpValidity) * time.Second
	config.OtpSweepInterval = time.Duration(*sweepInterval) * time.Hour
}
