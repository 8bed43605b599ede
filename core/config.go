package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName            string
		Build              string
		Env                string
		Debug              bool
		TestMode           bool
		SecretKey          string
		FrontendBaseURL    string
		RollbarToken       string
		SendgridApiKey     string
		DefaultFromAddress string
		DefaultFromName    string

		Server   ServerConfig
		Database DatabaseConfig
		Gateway  GatewayConfig
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | mongodb
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		MongoURI      string
	}

	// GatewayConfig holds the Razorpay credentials.
	GatewayConfig struct {
		KeyID     string
		KeySecret string
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c DatabaseConfig) IsMongo() bool {
	return c.Engine == "mongodb"
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.DefaultFromName, Address: c.DefaultFromAddress}
}

// NewConfig reads the configuration from the environment (optionally seeded by config/.env.<env>).
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("debug", true)
	v.SetDefault("appName", "FeeDesk")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "8c#k2!w%sq+d1_xt$g9=ofz0u(h3r@p7e5m^jn4b&ya)vil6")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromAddress", "noreply@college.edu")
	v.SetDefault("defaultFromName", "College Fee System")

	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddress", ":5000")
	v.SetDefault("serverDebugHost", ":5001")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 30*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 90*24*time.Hour)

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbName", "feedesk")
	v.SetDefault("dbUser", "feedesk")
	v.SetDefault("dbPassword", "feedesk")
	v.SetDefault("dbAdminUser", "postgres")
	v.SetDefault("dbAdminPassword", "postgres")
	v.SetDefault("dbDisableTLS", true)
	v.SetDefault("mongoURI", "mongodb://localhost:27017")

	v.SetDefault("razorpayKeyID", "")
	v.SetDefault("razorpayKeySecret", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:            v.GetString("appName"),
		Build:              v.GetString("build"),
		Env:                env,
		Debug:              v.GetBool("debug"),
		TestMode:           v.GetBool("testMode"),
		SecretKey:          v.GetString("secretKey"),
		FrontendBaseURL:    v.GetString("frontendBaseURL"),
		RollbarToken:       v.GetString("rollbarToken"),
		SendgridApiKey:     v.GetString("sendgridApiKey"),
		DefaultFromAddress: v.GetString("defaultFromAddress"),
		DefaultFromName:    v.GetString("defaultFromName"),
		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			Address:                   v.GetString("serverAddress"),
			DebugHost:                 v.GetString("serverDebugHost"),
			ShutdownTimeout:           v.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetString("dbPort"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
			MongoURI:      v.GetString("mongoURI"),
		},
		Gateway: GatewayConfig{
			KeyID:     cleanSecret(v.GetString("razorpayKeyID")),
			KeySecret: cleanSecret(v.GetString("razorpayKeySecret")),
		},
	}
}

// NewTestConfig returns a Config suitable for tests: no .env lookup, no external services.
func NewTestConfig() *Config {
	return &Config{
		AppName:            "FeeDesk",
		Build:              "test",
		Env:                "TEST",
		Debug:              false,
		TestMode:           true,
		SecretKey:          "test-secret",
		FrontendBaseURL:    "http://localhost:3000",
		DefaultFromAddress: "noreply@college.edu",
		DefaultFromName:    "College Fee System",
		Server: ServerConfig{
			Address:                   ":0",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Gateway: GatewayConfig{KeyID: "rzp_test_key", KeySecret: "rzp_test_secret"},
	}
}

// cleanSecret drops quotes that commonly leak into secrets copied from dashboards.
func cleanSecret(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

func (c *Config) String() string {
	return fmt.Sprintf("%s (%s, build %s)", c.AppName, c.Env, c.Build)
}
