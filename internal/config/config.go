// Package config loads runtime settings. Values come from environment
// variables, optionally layered over a TOML file named by CONFIG_FILE.
// Environment variables always win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/iliyamo/annotation-tracker/internal/database"
)

// Config holds the settings shared by the server and the exporter.
type Config struct {
	Env          string   // application environment (dev, test, prod)
	Port         string   // HTTP port to listen on
	DBDriver     string   // mysql, postgres or sqlite3
	DBDSN        string   // driver-specific data source name
	JWTSecret    string   // secret used to sign access tokens
	AccessTTLMin int      // access token lifetime in minutes
	BcryptCost   int      // bcrypt cost for password hashing
	AdminEmails  []string // accounts registered with these emails become admins
	RabbitMQURL  string   // broker for audit events; empty disables them
	AuditEnabled bool     // run the audit consumer in-process
	AuditLogDir  string   // directory receiving annotation.log
}

// File is the layout of the optional TOML config file.
type File struct {
	Server struct {
		Env  string `toml:"env"`
		Port string `toml:"port"`
	} `toml:"server"`

	Database struct {
		Driver   string `toml:"driver"`
		DSN      string `toml:"dsn"`
		User     string `toml:"user"`
		Password string `toml:"password"`
		Host     string `toml:"host"`
		Port     string `toml:"port"`
		Name     string `toml:"name"`
	} `toml:"database"`

	Auth struct {
		JWTSecret         string   `toml:"jwt_secret"`
		AccessTokenTTLMin int      `toml:"access_token_ttl_min"`
		BcryptCost        int      `toml:"bcrypt_cost"`
		AdminEmails       []string `toml:"admin_emails"`
	} `toml:"auth"`

	Audit struct {
		Enabled     bool   `toml:"enabled"`
		RabbitMQURL string `toml:"rabbitmq_url"`
		LogDir      string `toml:"log_dir"`
	} `toml:"audit"`

	Export struct {
		Schedule string   `toml:"schedule"`
		Dir      string   `toml:"dir"`
		Formats  []string `toml:"formats"`
	} `toml:"export"`
}

// ReadFile parses a TOML config file.
func ReadFile(path string) (File, error) {
	var f File
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("error reading config file: %w", err)
	}
	if err := toml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return f, nil
}

// Load builds the Config from CONFIG_FILE (when set) and the
// environment. JWT_SECRET must be provided by one of them.
func Load() (Config, error) {
	f, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	return FromFile(f)
}

// LoadFile reads the file named by CONFIG_FILE, or returns an empty
// File when the variable is unset.
func LoadFile() (File, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		return File{}, nil
	}
	return ReadFile(path)
}

// FromFile applies environment overrides and defaults on top of f.
func FromFile(f File) (Config, error) {
	cfg := Config{
		Env:          envStr("APP_ENV", or(f.Server.Env, "dev")),
		Port:         envStr("APP_PORT", or(f.Server.Port, "5000")),
		DBDriver:     strings.ToLower(envStr("DB_DRIVER", or(f.Database.Driver, database.DriverMySQL))),
		DBDSN:        envStr("DB_DSN", f.Database.DSN),
		JWTSecret:    envStr("JWT_SECRET", f.Auth.JWTSecret),
		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", orInt(f.Auth.AccessTokenTTLMin, 1440)),
		BcryptCost:   envInt("BCRYPT_COST", orInt(f.Auth.BcryptCost, 10)),
		AdminEmails:  envList("ADMIN_EMAILS", f.Auth.AdminEmails),
		RabbitMQURL:  envStr("RABBITMQ_URL", f.Audit.RabbitMQURL),
		AuditEnabled: envBool("AUDIT_ENABLED", f.Audit.Enabled),
		AuditLogDir:  envStr("AUDIT_LOG_DIR", or(f.Audit.LogDir, "logs")),
	}

	if cfg.DBDSN == "" {
		switch cfg.DBDriver {
		case database.DriverMySQL:
			cfg.DBDSN = database.MySQLDSN(
				envStr("DB_USER", f.Database.User),
				envStr("DB_PASS", f.Database.Password),
				envStr("DB_HOST", or(f.Database.Host, "localhost")),
				envStr("DB_PORT", or(f.Database.Port, "3306")),
				envStr("DB_NAME", or(f.Database.Name, "annotations")),
			)
		case database.DriverSQLite:
			cfg.DBDSN = "file:annotations.db?_foreign_keys=on"
		default:
			return Config{}, fmt.Errorf("DB_DSN is required for driver %q", cfg.DBDriver)
		}
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("missing required setting: JWT_SECRET")
	}
	if cfg.AccessTTLMin <= 0 {
		return Config{}, fmt.Errorf("invalid ACCESS_TOKEN_TTL_MIN: %d", cfg.AccessTTLMin)
	}
	return cfg, nil
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
