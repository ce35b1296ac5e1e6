// Package config provides functionality for managing configuration options
// for the application using command-line flags and environment variables.
package config

import (
	"flag"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// Addr defines the server's listening address (ip:port).
	Addr string

	// BaseURL is the base URL public profile links are built from.
	BaseURL string

	// BaseHost is the apex domain the service is mounted on. Custom
	// domains are validated against it.
	BaseHost string

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string

	// ObjectStoreDir is the root directory of the file-backed object store.
	ObjectStoreDir string

	// ObjectBaseURL is prepended to object keys to form public URLs.
	ObjectBaseURL string

	// JWTSecret signs session tokens.
	JWTSecret string

	// TrustedSubnet guards the internal stats endpoints.
	TrustedSubnet string

	// GRPCPort is the port of the ops gRPC server; 0 disables it.
	GRPCPort int

	// DeleteAccountEnabled is the kill switch for destructive account
	// deletion. MFA is still verified when it is off.
	DeleteAccountEnabled bool

	// StripeKey is the payment-provider API key.
	StripeKey string

	// StripePriceID is the premium-tier price used for checkout sessions.
	StripePriceID string

	// BillingReturnURL is where checkout and portal sessions send the user back.
	BillingReturnURL string

	// OAuthClientID, OAuthClientSecret and OAuthRedirectURL configure the
	// sign-in provider.
	OAuthClientID     string
	OAuthClientSecret string
	OAuthRedirectURL  string

	// MailAPIURL and MailAPIKey configure the best-effort notification mailer.
	MailAPIURL string
	MailAPIKey string

	// EnablePprof indicates whether to enable pprof for performance profiling.
	EnablePprof bool

	// EnableHTTPS indicates whether to enable https.
	EnableHTTPS bool
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Addr, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.BaseURL, "b", "http://localhost:8080", "public base url")
	flag.StringVar(&options.BaseHost, "host", "linkdrop.local", "apex domain")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.ObjectStoreDir, "o", "objects", "object store root dir")
	flag.StringVar(&options.ObjectBaseURL, "u", "http://localhost:8080/files", "public object base url")
	flag.StringVar(&options.TrustedSubnet, "t", "", "trusted subnet for internal endpoints")
	flag.IntVar(&options.GRPCPort, "g", 0, "ops grpc port, 0 disables")
	flag.BoolVar(&options.EnablePprof, "p", false, "enable pprof")
	flag.BoolVar(&options.EnableHTTPS, "s", false, "enable https")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. A .env file in the working directory is loaded
// first, if present. It returns a pointer to the Options struct containing
// the parsed configuration values, immutable for the process lifetime.
func Parse() *Options {
	// Missing .env is fine; real deployments pass env directly.
	_ = godotenv.Load()

	flag.Parse()

	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		options.Addr = addr
	}

	if baseURL := os.Getenv("BASE_URL"); baseURL != "" {
		options.BaseURL = baseURL
	}

	if baseHost := os.Getenv("BASE_HOST"); baseHost != "" {
		options.BaseHost = baseHost
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}

	if dir := os.Getenv("OBJECT_STORE_DIR"); dir != "" {
		options.ObjectStoreDir = dir
	}

	if u := os.Getenv("OBJECT_BASE_URL"); u != "" {
		options.ObjectBaseURL = u
	}

	if subnet := os.Getenv("TRUSTED_SUBNET"); subnet != "" {
		options.TrustedSubnet = subnet
	}

	if port := os.Getenv("GRPC_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			options.GRPCPort = p
		}
	}

	options.JWTSecret = os.Getenv("JWT_SECRET")
	if options.JWTSecret == "" {
		options.JWTSecret = "supersecretkey"
	}

	// Deletion stays available unless the switch says otherwise.
	options.DeleteAccountEnabled = true
	if enabled := os.Getenv("FEATURE_DELETE_ACCOUNT"); enabled != "" {
		if v, err := strconv.ParseBool(enabled); err == nil {
			options.DeleteAccountEnabled = v
		}
	}

	options.StripeKey = os.Getenv("STRIPE_SECRET_KEY")
	options.StripePriceID = os.Getenv("STRIPE_PRICE_ID")
	options.BillingReturnURL = os.Getenv("BILLING_RETURN_URL")
	if options.BillingReturnURL == "" {
		options.BillingReturnURL = options.BaseURL + "/dashboard"
	}

	options.OAuthClientID = os.Getenv("OAUTH_CLIENT_ID")
	options.OAuthClientSecret = os.Getenv("OAUTH_CLIENT_SECRET")
	options.OAuthRedirectURL = os.Getenv("OAUTH_REDIRECT_URL")

	options.MailAPIURL = os.Getenv("MAIL_API_URL")
	options.MailAPIKey = os.Getenv("MAIL_API_KEY")

	if enableHTTPS := os.Getenv("ENABLE_HTTPS"); enableHTTPS != "" {
		httpMode, err := strconv.ParseBool(enableHTTPS)
		if err != nil {
			options.EnableHTTPS = false
		}

		options.EnableHTTPS = httpMode
	}

	return options
}
