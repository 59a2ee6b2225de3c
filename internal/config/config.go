package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	AppURL         string // externally reachable base URL, used in email links
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	SMTPHost       string // outbound mail server host
	SMTPPort       int    // outbound mail server port
	SMTPUser       string // SMTP auth username (empty disables auth)
	SMTPPass       string // SMTP auth password
	MailFrom       string // From address on outbound mail
	AuditLogFile   string // file path for the authorization audit log
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Mail settings are
// optional: when SMTP_HOST is unset the mail consumer logs jobs instead of
// delivering them.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),                              // environment (dev/test/prod)
		Port:           must("APP_PORT"),                             // port to bind the HTTP server
		AppURL:         getenv("APP_URL", "http://localhost:3000"),   // base URL embedded in email links
		DBUser:         must("DB_USER"),                              // database user
		DBPass:         os.Getenv("DB_PASS"),                         // database password (empty allowed)
		DBHost:         must("DB_HOST"),                              // database host
		DBPort:         must("DB_PORT"),                              // database port
		DBName:         must("DB_NAME"),                              // database name
		JWTSecret:      must("JWT_SECRET"),                           // secret used for signing JWTs
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),              // TTL for access tokens in minutes
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),            // TTL for refresh tokens in days
		BcryptCost:     mustInt("BCRYPT_COST"),                       // bcrypt cost factor
		SMTPHost:       os.Getenv("SMTP_HOST"),                       // SMTP host (optional)
		SMTPPort:       atoi(getenv("SMTP_PORT", "587")),             // SMTP port
		SMTPUser:       os.Getenv("SMTP_USER"),                       // SMTP username (optional)
		SMTPPass:       os.Getenv("SMTP_PASS"),                       // SMTP password (optional)
		MailFrom:       getenv("MAIL_FROM", "noreply@treenetra.com"), // From header on outbound mail
		AuditLogFile:   getenv("AUDIT_LOG_FILE", "logs/audit.log"),   // authorization audit trail
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
