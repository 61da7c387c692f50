package config

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	BaseURL string `yaml:"base_url" env:"SOCIAL_BASE_URL"`

	HTTP HTTPConfig `yaml:"http"`

	Database DatabaseConfig `yaml:"database"`

	Storage StorageConfig `yaml:"storage"`

	Logging LoggingConfig `yaml:"logging"`

	Security SecurityConfig `yaml:"security"`

	Bootstrap BootstrapConfig `yaml:"bootstrap"`
}

type HTTPConfig struct {
	Address       string `yaml:"address" env:"SOCIAL_HTTP_ADDRESS"`
	MaxUploadMB   int    `yaml:"max_upload_mb" env:"SOCIAL_HTTP_MAX_UPLOAD_MB"`
	SecureCookies bool   `yaml:"secure_cookies" env:"SOCIAL_HTTP_SECURE_COOKIES"`

	// TrustProxyHeaders makes the login rate limiter key on X-Forwarded-For.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers" env:"SOCIAL_HTTP_TRUST_PROXY_HEADERS"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver" env:"SOCIAL_DB_DRIVER"` // "sqlite" | "postgres"
	Path     string `yaml:"path" env:"SOCIAL_DB_PATH"`     // sqlite only
	URL      string `yaml:"url" env:"SOCIAL_DB_URL"`
	Host     string `yaml:"host" env:"SOCIAL_DB_HOST"`
	Port     int    `yaml:"port" env:"SOCIAL_DB_PORT"`
	User     string `yaml:"user" env:"SOCIAL_DB_USER"`
	Password string `yaml:"password" env:"SOCIAL_DB_PASSWORD"`
	Name     string `yaml:"name" env:"SOCIAL_DB_NAME"`
	SSLMode  string `yaml:"sslmode" env:"SOCIAL_DB_SSLMODE"` // e.g. "disable" | "require"
}

type StorageConfig struct {
	UploadDir string `yaml:"upload_dir" env:"SOCIAL_UPLOAD_DIR"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"SOCIAL_LOG_LEVEL"`   // "debug" | "info" | "warn" | "error"
	Format string `yaml:"format" env:"SOCIAL_LOG_FORMAT"` // "text" | "json"
}

type SecurityConfig struct {
	JWTSecret       string        `yaml:"jwt_secret" env:"SOCIAL_JWT_SECRET"`
	LoginRateLimit  int           `yaml:"login_rate_limit" env:"SOCIAL_LOGIN_RATE_LIMIT"`
	LoginRateWindow time.Duration `yaml:"login_rate_window" env:"SOCIAL_LOGIN_RATE_WINDOW"`
}

// BootstrapConfig holds the account created when the user table is empty.
type BootstrapConfig struct {
	AdminUsername string `yaml:"admin_username" env:"SOCIAL_ADMIN_USERNAME"`
	AdminEmail    string `yaml:"admin_email" env:"SOCIAL_ADMIN_EMAIL"`
	AdminPassword string `yaml:"admin_password" env:"SOCIAL_ADMIN_PASSWORD"`
}

func (c *Config) Defaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8000"
	}
	if c.HTTP.MaxUploadMB == 0 {
		c.HTTP.MaxUploadMB = 10
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	if c.Database.Path == "" {
		c.Database.Path = "social_media.db"
	}
	if c.Database.Driver == DriverPostgres {
		if c.Database.Host == "" {
			c.Database.Host = "db"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.User == "" {
			c.Database.User = "socialmedia"
		}
		if c.Database.Name == "" {
			c.Database.Name = "socialmedia"
		}
		if c.Database.Password == "" {
			c.Database.Password = "password"
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	}
	if c.Storage.UploadDir == "" {
		c.Storage.UploadDir = "static/uploads"
	}
	if c.Security.JWTSecret == "" {
		c.Security.JWTSecret = "change-me"
	}
	if c.Security.LoginRateLimit == 0 {
		c.Security.LoginRateLimit = 10
	}
	if c.Security.LoginRateWindow == 0 {
		c.Security.LoginRateWindow = time.Minute
	}
	if c.Bootstrap.AdminUsername == "" {
		c.Bootstrap.AdminUsername = "admin"
	}
	if c.Bootstrap.AdminEmail == "" {
		c.Bootstrap.AdminEmail = "admin@example.com"
	}
	if c.Bootstrap.AdminPassword == "" {
		c.Bootstrap.AdminPassword = "admin"
	}
}

func (c *Config) Validate() error {
	var errs []string
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, "database.path must be set for sqlite")
		}
	case DriverPostgres:
		// DB must have either URL or (Host, User, Name)
		if c.Database.URL == "" {
			if c.Database.Host == "" || c.Database.User == "" || c.Database.Name == "" {
				errs = append(errs, "database.url or database.{host,user,name} must be set")
			}
		}
	default:
		errs = append(errs, "database.driver must be sqlite or postgres")
	}
	if c.HTTP.MaxUploadMB < 0 {
		errs = append(errs, "http.max_upload_mb must not be negative")
	}
	if c.Security.LoginRateLimit < 0 {
		errs = append(errs, "security.login_rate_limit must not be negative")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// MaxUploadBytes is the request body cap applied to post submissions.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.HTTP.MaxUploadMB) << 20
}

// AppURL returns a postgres connection URL for the application DB.
func (d *DatabaseConfig) AppURL() (string, error) {
	if d.URL != "" {
		return d.URL, nil
	}
	return d.urlFor(d.Name)
}

// MaintenanceURL points at the cluster's "postgres" database, used to create
// the application database on first start.
func (d *DatabaseConfig) MaintenanceURL() (string, error) {
	if d.URL != "" {
		u, err := url.Parse(d.URL)
		if err != nil {
			return "", err
		}
		u.Path = "/postgres"
		return u.String(), nil
	}
	return d.urlFor("postgres")
}

func (d *DatabaseConfig) urlFor(name string) (string, error) {
	if d.Host == "" || d.User == "" || d.Name == "" {
		return "", errors.New("database config incomplete: need host, user, name or set url")
	}
	u := &url.URL{
		Scheme: "postgres",
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
