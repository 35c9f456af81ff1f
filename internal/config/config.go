package config // package config loads application configuration from environment variables

import (
	"fmt"
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"
)

// minSecretLen is the shortest JWT_SECRET the server accepts.
const minSecretLen = 32

// minBcryptCost is the lowest bcrypt cost accepted for password hashing.
const minBcryptCost = 10

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env    string // application environment (development, production)
	Port   string // HTTP port to listen on
	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret     string        // secret used to sign session JWTs, never defaulted
	SessionTTL    time.Duration // lifetime of a session token
	SessionCookie string        // name of the session cookie
	BcryptCost    int           // bcrypt cost for password hashing

	OTPTTL                   time.Duration // lifetime of a one-time passcode
	OTPInvalidatePrior       bool          // drop outstanding codes when a new one is issued
	ResetTokenTTL            time.Duration // lifetime of a password reset token
	RequireEmailVerification bool          // refuse login until the identity is OTP-verified
	RequestTimeout           time.Duration // upper bound on store and mail calls per request

	Mail MailConfig

	BrokerURL          string // RabbitMQ URL for auth events; empty disables publishing
	AuthEventsConsumer bool   // run the auth-events log consumer in-process
	AuthEventsLog      string // file the consumer appends to
}

// MailConfig holds SMTP relay credentials for OTP delivery.
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool { return c.Env == "production" }

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:    must("APP_ENV"),
		Port:   must("APP_PORT"),
		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"), // empty allowed
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		JWTSecret:     must("JWT_SECRET"),
		SessionTTL:    envDur("SESSION_TTL", 24*time.Hour),
		SessionCookie: envStr("SESSION_COOKIE", "auth_token"),
		BcryptCost:    mustInt("BCRYPT_COST"),

		OTPTTL:                   envDur("OTP_TTL", 10*time.Minute),
		OTPInvalidatePrior:       envBool("OTP_INVALIDATE_PRIOR", true),
		ResetTokenTTL:            envDur("RESET_TOKEN_TTL", time.Hour),
		RequireEmailVerification: envBool("REQUIRE_EMAIL_VERIFICATION", false),
		RequestTimeout:           envDur("REQUEST_TIMEOUT", 5*time.Second),

		Mail: MailConfig{
			Host:     must("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", 587),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     must("MAIL_FROM"),
		},

		BrokerURL:          envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
		AuthEventsConsumer: envBool("AUTH_EVENTS_CONSUMER", false),
		AuthEventsLog:      envStr("AUTH_EVENTS_LOG", "logs/auth.log"),
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return cfg
}

// Validate checks cross-field constraints that env parsing alone cannot
// express.
func (c Config) Validate() error {
	if len(c.JWTSecret) < minSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLen)
	}
	if c.BcryptCost < minBcryptCost {
		return fmt.Errorf("BCRYPT_COST must be >= %d", minBcryptCost)
	}
	if c.OTPTTL <= 0 || c.ResetTokenTTL <= 0 || c.SessionTTL <= 0 {
		return fmt.Errorf("OTP_TTL, RESET_TOKEN_TTL and SESSION_TTL must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return nil
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
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
