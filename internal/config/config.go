package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values come from env (or an env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Session   SessionConfig
	Upload    UploadConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode accepts: disable, require, verify-ca, verify-full.
	SSLMode string

	// AutoMigrate applies the embedded schema at startup.
	AutoMigrate bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

type SessionConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

const (
	UploadBackendDisk  = "disk"
	UploadBackendMinIO = "minio"
)

type UploadConfig struct {
	Backend  string
	MaxBytes int64

	// disk backend
	Dir          string
	PublicPrefix string

	// minio backend
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
	MinIOPublicURL string
}

type RateLimitConfig struct {
	LoginAttemptsPerMinute int
	SubmitPerSecond        float64
	SubmitBurst            int
}

const defaultUploadMaxBytes = 10 << 20

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	parseErrs = append(parseErrs, loadDB(&c.DB)...)

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")

	c.Session.Secret = os.Getenv("SESSION_SECRET")
	c.Session.Issuer = strings.TrimSpace(os.Getenv("SESSION_ISSUER"))
	// Optional; default applied in Validate().
	c.Session.TTL = mustDuration("SESSION_TTL")

	c.Upload.Backend = strings.TrimSpace(os.Getenv("UPLOAD_BACKEND"))
	c.Upload.Dir = strings.TrimSpace(os.Getenv("UPLOAD_DIR"))
	c.Upload.PublicPrefix = strings.TrimSpace(os.Getenv("UPLOAD_PUBLIC_PREFIX"))
	{
		n, err := optionalInt("UPLOAD_MAX_BYTES")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Upload.MaxBytes = int64(n)
	}
	c.Upload.MinIOEndpoint = strings.TrimSpace(os.Getenv("MINIO_ENDPOINT"))
	c.Upload.MinIOAccessKey = strings.TrimSpace(os.Getenv("MINIO_ACCESS_KEY"))
	c.Upload.MinIOSecretKey = os.Getenv("MINIO_SECRET_KEY")
	c.Upload.MinIOBucket = strings.TrimSpace(os.Getenv("MINIO_BUCKET"))
	c.Upload.MinIOPublicURL = strings.TrimSpace(os.Getenv("MINIO_PUBLIC_URL"))
	{
		b, err := optionalBool("MINIO_USE_SSL")
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.Upload.MinIOUseSSL = b
	}

	{
		n, err := optionalInt("LOGIN_ATTEMPTS_PER_MINUTE")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.RateLimit.LoginAttemptsPerMinute = n
	}
	{
		v := strings.TrimSpace(os.Getenv("SUBMIT_RATE_PER_SEC"))
		if v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				parseErrs = append(parseErrs, fmt.Errorf("SUBMIT_RATE_PER_SEC must be a number, got %q", v))
			}
			c.RateLimit.SubmitPerSecond = f
		}
	}
	{
		n, err := optionalInt("SUBMIT_BURST")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.RateLimit.SubmitBurst = n
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks required values and fills defaults in place.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	errs = append(errs, c.DB.validate(c.IsProduction())...)

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Session.Secret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	} else if c.IsProduction() && len(c.Session.Secret) < 32 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 32 bytes in production"))
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = 8 * time.Hour
	}

	if c.Upload.Backend == "" {
		c.Upload.Backend = UploadBackendDisk
	}
	if c.Upload.MaxBytes <= 0 {
		c.Upload.MaxBytes = defaultUploadMaxBytes
	}
	switch c.Upload.Backend {
	case UploadBackendDisk:
		if c.Upload.Dir == "" {
			c.Upload.Dir = "static/uploads"
		}
		if c.Upload.PublicPrefix == "" {
			c.Upload.PublicPrefix = "/static/uploads"
		}
	case UploadBackendMinIO:
		if c.Upload.MinIOEndpoint == "" {
			errs = append(errs, errors.New("MINIO_ENDPOINT is required for the minio upload backend"))
		}
		if c.Upload.MinIOAccessKey == "" || c.Upload.MinIOSecretKey == "" {
			errs = append(errs, errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for the minio upload backend"))
		}
		if c.Upload.MinIOBucket == "" {
			errs = append(errs, errors.New("MINIO_BUCKET is required for the minio upload backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("UPLOAD_BACKEND must be one of disk, minio, got %q", c.Upload.Backend))
	}

	if c.RateLimit.LoginAttemptsPerMinute <= 0 {
		c.RateLimit.LoginAttemptsPerMinute = 20
	}
	if c.RateLimit.SubmitPerSecond <= 0 {
		c.RateLimit.SubmitPerSecond = 1
	}
	if c.RateLimit.SubmitBurst <= 0 {
		c.RateLimit.SubmitBurst = 5
	}

	return joinErrors(errs)
}

// LoadDB reads only APP_ENV and the DB_* variables. Operator tools that talk
// to Postgres alone use it instead of Load.
func LoadDB() (Config, error) {
	c := Config{}
	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	if err := joinErrors(loadDB(&c.DB)); err != nil {
		return Config{}, err
	}
	if err := joinErrors(c.DB.validate(c.IsProduction())); err != nil {
		return Config{}, err
	}
	return c, nil
}

func loadDB(db *DBConfig) []error {
	var parseErrs []error
	db.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		db.Port = n
	}
	db.User = strings.TrimSpace(os.Getenv("DB_USER"))
	db.Password = os.Getenv("DB_PASSWORD")
	db.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	db.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))
	{
		b, err := optionalBool("DB_AUTO_MIGRATE")
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		db.AutoMigrate = b
	}
	return parseErrs
}

func (db *DBConfig) validate(production bool) []error {
	var errs []error
	if db.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if db.Port <= 0 || db.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", db.Port))
	}
	if db.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if db.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if db.SSLMode == "" {
		if production {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			db.SSLMode = "disable"
		}
	}
	if db.SSLMode != "" && !isValidSSLMode(db.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", db.SSLMode))
	}
	return errs
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalBool(key string) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
