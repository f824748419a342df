package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"manuscript-workflow/models"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is read when CONFIG_PATH is unset. A missing default file
// is not an error; the environment alone can configure the service.
const DefaultConfigPath = "config.yaml"

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type SMTPConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	Pass          string `yaml:"pass"`
	From          string `yaml:"from"`
	SkipTLSVerify bool   `yaml:"skipTlsVerify"`
}

// Enabled reports whether e-mail delivery is configured.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != ""
}

type WorkflowConfig struct {
	DOIPrefix           string `yaml:"doiPrefix"`
	ManuscriptPrefix    string `yaml:"manuscriptPrefix"`
	AcceptanceThreshold int    `yaml:"acceptanceThreshold"`
	MaxReviewers        int    `yaml:"maxReviewers"`
	PublishRetries      int    `yaml:"publishRetries"`
}

// UserSeed is a user record loaded at startup when storage is memory, where no
// identity service backs the users table.
type UserSeed struct {
	ID          uint   `yaml:"id"`
	Username    string `yaml:"username"`
	Email       string `yaml:"email"`
	Institution string `yaml:"institution"`
	Role        string `yaml:"role"`
}

// Config represents configuration loaded from YAML and the environment.
type Config struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"logLevel"`
	Storage     string `yaml:"storage"`
	DatabaseURL string `yaml:"databaseURL"`
	DebugSQL    bool   `yaml:"debugSQL"`

	JWTSecret string `yaml:"jwtSecret"`
	JWTIssuer string `yaml:"jwtIssuer"`

	RedisAddr            string `yaml:"redisAddr"`
	RedisPassword        string `yaml:"redisPassword"`
	RedisDB              int    `yaml:"redisDB"`
	NotificationStream   string `yaml:"notificationStream"`
	SessionKeyPrefix     string `yaml:"sessionKeyPrefix"`
	SubmissionSessionTTL string `yaml:"submissionSessionTTL"`

	SMTP     SMTPConfig     `yaml:"smtp"`
	Workflow WorkflowConfig `yaml:"workflow"`

	Users []UserSeed `yaml:"users"`
}

func defaults() Config {
	return Config{
		Port:                 "8080",
		Environment:          "development",
		LogLevel:             "info",
		Storage:              StoragePostgres,
		NotificationStream:   "manuscripts:notifications",
		SessionKeyPrefix:     "manuscripts:submission",
		SubmissionSessionTTL: "24h",
		SMTP:                 SMTPConfig{Port: 587},
		Workflow: WorkflowConfig{
			DOIPrefix:           "10.5555",
			ManuscriptPrefix:    "MS",
			AcceptanceThreshold: 2,
			MaxReviewers:        5,
			PublishRetries:      3,
		},
	}
}

// Load reads .env, then the YAML file at path (CONFIG_PATH or config.yaml when
// empty), then applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file found")
	}

	cfg := defaults()
	explicit := true
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path, explicit = DefaultConfigPath, false
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setBool := func(key string, dst *bool) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setString("PORT", &cfg.Port)
	setString("ENVIRONMENT", &cfg.Environment)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("STORAGE", &cfg.Storage)
	setString("DATABASE_URL", &cfg.DatabaseURL)
	setBool("DEBUG_SQL", &cfg.DebugSQL)

	setString("JWT_SECRET", &cfg.JWTSecret)
	setString("JWT_ISSUER", &cfg.JWTIssuer)

	setString("REDIS_ADDR", &cfg.RedisAddr)
	setString("REDIS_PASSWORD", &cfg.RedisPassword)
	setInt("REDIS_DB", &cfg.RedisDB)
	setString("NOTIFICATION_STREAM", &cfg.NotificationStream)
	setString("SUBMISSION_SESSION_PREFIX", &cfg.SessionKeyPrefix)
	setString("SUBMISSION_SESSION_TTL", &cfg.SubmissionSessionTTL)

	setString("SMTP_HOST", &cfg.SMTP.Host)
	setInt("SMTP_PORT", &cfg.SMTP.Port)
	setString("SMTP_USER", &cfg.SMTP.User)
	setString("SMTP_PASS", &cfg.SMTP.Pass)
	setString("SMTP_FROM", &cfg.SMTP.From)
	setBool("SMTP_SKIP_TLS_VERIFY", &cfg.SMTP.SkipTLSVerify)

	setString("DOI_PREFIX", &cfg.Workflow.DOIPrefix)
	setString("MANUSCRIPT_PREFIX", &cfg.Workflow.ManuscriptPrefix)
	setInt("ACCEPTANCE_THRESHOLD", &cfg.Workflow.AcceptanceThreshold)
	setInt("MAX_REVIEWERS", &cfg.Workflow.MaxReviewers)
	setInt("PUBLISH_RETRIES", &cfg.Workflow.PublishRetries)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("config: port is required")
	}
	switch c.Storage {
	case StoragePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("config: databaseURL is required for postgres storage (set in config.yaml or DATABASE_URL)")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("config: unknown storage %q (want postgres or memory)", c.Storage)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("config: jwtSecret is required (set in config.yaml or JWT_SECRET)")
	}
	if _, err := c.SessionTTL(); err != nil {
		return err
	}
	if c.Workflow.AcceptanceThreshold < 1 {
		return errors.New("config: workflow.acceptanceThreshold must be >= 1")
	}
	if c.Workflow.MaxReviewers < 1 {
		return errors.New("config: workflow.maxReviewers must be >= 1")
	}
	if c.Workflow.PublishRetries < 1 {
		return errors.New("config: workflow.publishRetries must be >= 1")
	}
	if strings.TrimSpace(c.Workflow.DOIPrefix) == "" {
		return errors.New("config: workflow.doiPrefix is required")
	}
	seen := make(map[uint]bool, len(c.Users))
	for i, u := range c.Users {
		switch {
		case u.ID == 0:
			return fmt.Errorf("config: users[%d].id is required", i)
		case seen[u.ID]:
			return fmt.Errorf("config: users[%d].id %d is duplicated", i, u.ID)
		case strings.TrimSpace(u.Username) == "":
			return fmt.Errorf("config: users[%d].username is required", i)
		case !models.UserRole(u.Role).Valid():
			return fmt.Errorf("config: users[%d].role %q is not author, reviewer or admin", i, u.Role)
		}
		seen[u.ID] = true
	}
	return nil
}

// SeedUsers converts the configured user records for the memory store.
func (c Config) SeedUsers() []models.User {
	users := make([]models.User, 0, len(c.Users))
	for _, u := range c.Users {
		users = append(users, models.User{
			ID:          u.ID,
			Username:    strings.TrimSpace(u.Username),
			Email:       strings.TrimSpace(u.Email),
			Institution: strings.TrimSpace(u.Institution),
			Role:        models.UserRole(u.Role),
		})
	}
	return users
}

func (c Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

// SessionTTL parses the submission session lifetime.
func (c Config) SessionTTL() (time.Duration, error) {
	if c.SubmissionSessionTTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.SubmissionSessionTTL)
	if err != nil {
		return 0, fmt.Errorf("config: invalid submissionSessionTTL: %w", err)
	}
	return d, nil
}
