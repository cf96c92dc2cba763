package app

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/aussiebroadwan/realmauth/internal/auth/mail"
	"github.com/aussiebroadwan/realmauth/internal/auth/store/drivers/mysql"
	"github.com/aussiebroadwan/realmauth/pkg/httpx"
	"github.com/aussiebroadwan/realmauth/pkg/jwtx"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

type Config struct {
	Env                 string        `koanf:"env"`         // dev, staging, prod (default: dev)
	Port                int           `koanf:"port"`        // HTTP server port (default: 8080)
	PublicURL           string        `koanf:"public_url"`  // Base of the links put in emails
	PepperFile          string        `koanf:"pepper_file"` // Key for recovery tokens, created on first start (default: ./pepper)
	ShutdownGracePeriod time.Duration `koanf:"shutdown_grace_period"`

	Log       LogConfig      `koanf:"log"`
	JWT       JWTConfig      `koanf:"jwt"`
	Auth      AuthConfig     `koanf:"auth"`
	Accounts  AccountsConfig `koanf:"accounts"`
	Tokens    TokensConfig   `koanf:"tokens"`
	Mail      MailConfig     `koanf:"mail"`
	RateLimit httpx.Profiles `koanf:"rate_limit"`
}

type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error (default: info)
	Format string `koanf:"format"` // json, text (default: json)
	File   string `koanf:"file"`   // Optional: also write to this rotated file

	Output io.Writer `koanf:"-"` // Overrides stdout. Used by tests.
}

type JWTConfig struct {
	// Secret signs session tokens. It must match the secret of any other
	// service that verifies them. Required outside dev.
	Secret string        `koanf:"secret"`
	Issuer string        `koanf:"issuer"`
	TTL    time.Duration `koanf:"ttl"`
}

type AuthConfig struct {
	InviteCode         string `koanf:"invite_code"`
	RequireActivation  bool   `koanf:"require_activation"`
	TempPasswordLength int    `koanf:"temp_password_length"`
	RealmID            int32  `koanf:"realm_id"`
}

type AccountsConfig struct {
	// Driver is "sqlite" (a local replica, for development) or "mysql" (the
	// AzerothCore auth database).
	Driver string       `koanf:"driver"`
	MySQL  mysql.Config `koanf:"mysql"`
}

type TokensConfig struct {
	File string `koanf:"file"` // SQLite database holding activation and recovery tokens
}

type MailConfig struct {
	Transport   string          `koanf:"transport"` // log, smtp, nats (default: log)
	SendTimeout time.Duration   `koanf:"send_timeout"`
	SMTP        mail.SMTPConfig `koanf:"smtp"`
	NATS        NATSConfig      `koanf:"nats"`
}

type NATSConfig struct {
	URL           string `koanf:"url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// DefaultConfig returns the settings used for anything left unconfigured.
func DefaultConfig() Config {
	return Config{
		Env:                 "dev",
		Port:                8080,
		PublicURL:           "http://localhost:8080",
		PepperFile:          "pepper",
		ShutdownGracePeriod: 10 * time.Second,
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		JWT: JWTConfig{
			TTL: jwtx.DefaultSessionTTL,
		},
		Auth: AuthConfig{
			TempPasswordLength: 9,
			RealmID:            1,
		},
		Accounts: AccountsConfig{
			Driver: "sqlite",
			MySQL: mysql.Config{
				Host:         "",
				Port:         3306,
				User:         "acore",
				Database:     "acore_auth",
				MaxOpenConns: 10,
				SlowQuery:    mysql.DefaultSlowQuery,
			},
		},
		Tokens: TokensConfig{
			File: "auth.db",
		},
		Mail: MailConfig{
			Transport:   "log",
			SendTimeout: mail.DefaultSendTimeout,
			SMTP:        mail.SMTPConfig{Port: 587},
			NATS:        NATSConfig{SubjectPrefix: mail.DefaultSubjectPrefix},
		},
		RateLimit: httpx.DefaultProfiles(),
	}
}

// envKeys maps environment variables onto config keys. The unprefixed names
// are the ones existing deployments already set.
var envKeys = map[string]string{
	"ENV":                            "env",
	"PORT":                           "port",
	"AUTH_PUBLIC_URL":                "public_url",
	"AUTH_PEPPER_FILE":               "pepper_file",
	"SHUTDOWN_GRACE_PERIOD":          "shutdown_grace_period",
	"LOG_LEVEL":                      "log.level",
	"LOG_FORMAT":                     "log.format",
	"LOG_FILE":                       "log.file",
	"JWT_SECRET":                     "jwt.secret",
	"JWT_TTL":                        "jwt.ttl",
	"JWT_ISSUER":                     "jwt.issuer",
	"INVITE_CODE":                    "auth.invite_code",
	"AUTH_REQUIRE_ACTIVATION":        "auth.require_activation",
	"AUTH_TEMP_PASSWORD_LENGTH":      "auth.temp_password_length",
	"AUTH_REALM_ID":                  "auth.realm_id",
	"AUTH_ACCOUNTS_DRIVER":           "accounts.driver",
	"DB_HOST":                        "accounts.mysql.host",
	"DB_PORT":                        "accounts.mysql.port",
	"DB_USER":                        "accounts.mysql.user",
	"DB_PASSWORD":                    "accounts.mysql.password",
	"DB_AUTH_DATABASE":               "accounts.mysql.database",
	"DB_MAX_OPEN_CONNS":              "accounts.mysql.max_open_conns",
	"AUTH_DATABASE_FILE":             "tokens.file",
	"AUTH_MAIL_TRANSPORT":            "mail.transport",
	"AUTH_MAIL_SEND_TIMEOUT":         "mail.send_timeout",
	"SMTP_HOST":                      "mail.smtp.host",
	"SMTP_PORT":                      "mail.smtp.port",
	"SMTP_USERNAME":                  "mail.smtp.username",
	"SMTP_PASSWORD":                  "mail.smtp.password",
	"SMTP_FROM":                      "mail.smtp.from",
	"NATS_URL":                       "mail.nats.url",
	"AUTH_MAIL_NATS_SUBJECT":         "mail.nats.subject_prefix",
	"AUTH_RATE_LIMIT_STRICT":         "rate_limit.strict.requests",
	"AUTH_RATE_LIMIT_MODERATE":       "rate_limit.moderate.requests",
	"AUTH_RATE_LIMIT_LENIENT":        "rate_limit.lenient.requests",
	"AUTH_RATE_LIMIT_STRICT_BURST":   "rate_limit.strict.burst",
	"AUTH_RATE_LIMIT_MODERATE_BURST": "rate_limit.moderate.burst",
	"AUTH_RATE_LIMIT_LENIENT_BURST":  "rate_limit.lenient.burst",
}

// envKey keeps the variables listed in envKeys. Empty values are dropped so
// they do not blank out the file or defaults.
func envKey(name, value string) (string, any) {
	key, ok := envKeys[name]
	if !ok || value == "" {
		return "", nil
	}
	return key, value
}

// Flags returns the command-line flags that override configuration. Flag
// names are config keys.
func Flags() *pflag.FlagSet {
	def := DefaultConfig()

	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.String("env", def.Env, "environment (dev, staging, prod)")
	fs.Int("port", def.Port, "HTTP listen port")
	fs.String("public_url", def.PublicURL, "public base URL used in email links")
	fs.String("log.level", def.Log.Level, "log level (debug, info, warn, error)")
	fs.String("log.format", def.Log.Format, "log format (json, text)")
	fs.String("accounts.driver", def.Accounts.Driver, "account database driver (sqlite, mysql)")
	fs.String("tokens.file", def.Tokens.File, "token database file")
	fs.String("mail.transport", def.Mail.Transport, "mail transport (log, smtp, nats)")
	return fs
}

// LoadConfig layers defaults, the optional YAML file at path, the
// environment and finally flags.
func LoadConfig(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_INVALID").With("path", path).Wrapf(err, "load config file")
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{TransformFunc: envKey}), nil); err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").Wrapf(err, "load environment")
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, oops.Code("CONFIG_INVALID").Wrapf(err, "load flags")
		}
	}

	cfg := DefaultConfig()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").Wrapf(err, "decode config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	var errs []error

	switch c.Env {
	case "dev", "staging", "prod":
	default:
		errs = append(errs, errors.New("env must be dev, staging or prod"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, errors.New("port out of range"))
	}
	if strings.TrimSpace(c.PublicURL) == "" {
		errs = append(errs, errors.New("public_url is required"))
	}
	if c.JWT.Secret == "" && !c.IsDev() {
		errs = append(errs, errors.New("jwt.secret is required outside dev"))
	}
	if c.JWT.Secret != "" && len(c.JWT.Secret) < 16 && !c.IsDev() {
		errs = append(errs, errors.New("jwt.secret must be at least 16 characters"))
	}

	switch c.Accounts.Driver {
	case "sqlite":
	case "mysql":
		if c.Accounts.MySQL.Host == "" {
			errs = append(errs, errors.New("accounts.mysql.host is required for the mysql driver"))
		}
	default:
		errs = append(errs, errors.New("accounts.driver must be sqlite or mysql"))
	}
	if c.Tokens.File == "" {
		errs = append(errs, errors.New("tokens.file is required"))
	}

	switch c.Mail.Transport {
	case "log":
	case "smtp":
		if c.Mail.SMTP.Host == "" || c.Mail.SMTP.From == "" {
			errs = append(errs, errors.New("mail.smtp.host and mail.smtp.from are required for smtp"))
		}
	case "nats":
		if c.Mail.NATS.URL == "" {
			errs = append(errs, errors.New("mail.nats.url is required for nats"))
		}
	default:
		errs = append(errs, errors.New("mail.transport must be log, smtp or nats"))
	}

	if err := errors.Join(errs...); err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return nil
}

// IsDev reports whether development conveniences are allowed.
func (c Config) IsDev() bool {
	return c.Env == "dev"
}
