package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"manuscript-workflow/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileWithEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORAGE", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ACCEPTANCE_THRESHOLD", "")
	t.Setenv("PUBLISH_RETRIES", "")
	t.Setenv("MANUSCRIPT_PREFIX", "")
	t.Setenv("MAX_REVIEWERS", "4")
	t.Setenv("DOI_PREFIX", "10.1234")
	t.Setenv("SUBMISSION_SESSION_TTL", "2h")

	path := writeConfig(t, `
port: "9090"
storage: "memory"
jwtSecret: "file-secret"
workflow:
  acceptanceThreshold: 3
  maxReviewers: 6
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, []byte("file-secret"), cfg.JWTKey())
	assert.Equal(t, 3, cfg.Workflow.AcceptanceThreshold)
	assert.Equal(t, 4, cfg.Workflow.MaxReviewers)
	assert.Equal(t, 3, cfg.Workflow.PublishRetries)
	assert.Equal(t, "10.1234", cfg.Workflow.DOIPrefix)
	assert.Equal(t, "MS", cfg.Workflow.ManuscriptPrefix)

	ttl, err := cfg.SessionTTL()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, ttl)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := defaults()
		cfg.DatabaseURL = "postgres://localhost/manuscripts"
		cfg.JWTSecret = "secret"
		return cfg
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"postgres without url", func(c *Config) { c.DatabaseURL = "" }, "databaseURL"},
		{"unknown storage", func(c *Config) { c.Storage = "bolt" }, "unknown storage"},
		{"empty secret", func(c *Config) { c.JWTSecret = " " }, "jwtSecret"},
		{"threshold", func(c *Config) { c.Workflow.AcceptanceThreshold = 0 }, "acceptanceThreshold"},
		{"max reviewers", func(c *Config) { c.Workflow.MaxReviewers = 0 }, "maxReviewers"},
		{"retries", func(c *Config) { c.Workflow.PublishRetries = 0 }, "publishRetries"},
		{"ttl", func(c *Config) { c.SubmissionSessionTTL = "tomorrow" }, "submissionSessionTTL"},
		{"seed without id", func(c *Config) { c.Users = []UserSeed{{Username: "x", Role: "author"}} }, "users[0].id"},
		{"seed duplicate", func(c *Config) {
			c.Users = []UserSeed{{ID: 1, Username: "a", Role: "author"}, {ID: 1, Username: "b", Role: "reviewer"}}
		}, "users[1].id 1 is duplicated"},
		{"seed role", func(c *Config) { c.Users = []UserSeed{{ID: 1, Username: "a", Role: "editor"}} }, "users[0].role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMemoryStorageNeedsNoDatabase(t *testing.T) {
	cfg := defaults()
	cfg.Storage = StorageMemory
	cfg.JWTSecret = "secret"
	assert.NoError(t, cfg.Validate())
}

func TestLoadSeedUsers(t *testing.T) {
	t.Setenv("STORAGE", "")
	t.Setenv("JWT_SECRET", "")
	path := writeConfig(t, `
storage: "memory"
jwtSecret: "secret"
users:
  - id: 1
    username: editor
    email: editor@journal.test
    role: admin
  - id: 10
    username: " referee "
    email: referee@uni.test
    institution: Uni
    role: reviewer
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	users := cfg.SeedUsers()
	require.Len(t, users, 2)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
	assert.Equal(t, uint(10), users[1].ID)
	assert.Equal(t, "referee", users[1].Username)
	assert.Equal(t, models.RoleReviewer, users[1].Role)
}

func TestInitLogger(t *testing.T) {
	std := logrus.StandardLogger()
	formatter, level := std.Formatter, std.GetLevel()
	t.Cleanup(func() {
		std.SetFormatter(formatter)
		std.SetLevel(level)
	})

	l := InitLogger("production", "warn")
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())

	l = InitLogger("development", "verbose")
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}
