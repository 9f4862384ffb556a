package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var allEnvVars = []string{
	"CONFIG_FILE",
	"HOST", "PORT", "READ_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT", "ENVIRONMENT",
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE", "DB_SQLITE_PATH",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME", "DB_AUTO_MIGRATE",
	"BCRYPT_COST", "MIN_PASSWORD_LENGTH",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_RPM", "RATE_LIMIT_BURST", "RATE_LIMIT_CLEANUP",
	"LOG_LEVEL", "LOG_FORMAT",
}

func setEnvVars(vars map[string]string) {
	for k, v := range vars {
		os.Setenv(k, v)
	}
}

func clearEnvVars(vars []string) {
	for _, k := range vars {
		os.Unsetenv(k)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnvVars(allEnvVars)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error with default config, got: %v", err)
	}

	if config.Server.Host != "localhost" {
		t.Errorf("Expected default host 'localhost', got %s", config.Server.Host)
	}

	if config.Server.Port != "8080" {
		t.Errorf("Expected default port '8080', got %s", config.Server.Port)
	}

	if config.Server.Environment != "development" {
		t.Errorf("Expected default environment 'development', got %s", config.Server.Environment)
	}

	if config.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", config.Server.ShutdownTimeout)
	}

	if config.Database.Driver != "postgres" {
		t.Errorf("Expected default DB driver 'postgres', got %s", config.Database.Driver)
	}

	if config.Database.Name != "task_manager" {
		t.Errorf("Expected default DB name 'task_manager', got %s", config.Database.Name)
	}

	if config.Database.MaxOpenConns != 25 {
		t.Errorf("Expected default max open conns 25, got %d", config.Database.MaxOpenConns)
	}

	if !config.Database.AutoMigrate {
		t.Error("Expected auto migrate to be enabled by default")
	}

	if config.Auth.BCryptCost != 10 {
		t.Errorf("Expected default bcrypt cost 10, got %d", config.Auth.BCryptCost)
	}

	if config.Auth.MinPasswordLength != 6 {
		t.Errorf("Expected default min password length 6, got %d", config.Auth.MinPasswordLength)
	}

	if !config.RateLimit.Enabled {
		t.Error("Expected rate limiting to be enabled by default")
	}

	if config.RateLimit.RequestsPerMin != 100 {
		t.Errorf("Expected default requests per minute 100, got %d", config.RateLimit.RequestsPerMin)
	}

	if config.Log.Level != "info" || config.Log.Format != "text" {
		t.Errorf("Expected default log info/text, got %s/%s", config.Log.Level, config.Log.Format)
	}
}

func TestLoadConfig_CustomEnvironment(t *testing.T) {
	clearEnvVars(allEnvVars)
	envVars := map[string]string{
		"HOST":               "0.0.0.0",
		"PORT":               "9000",
		"ENVIRONMENT":        "production",
		"DB_HOST":            "db.example.com",
		"DB_PASSWORD":        "secure_password",
		"DB_MAX_OPEN_CONNS":  "50",
		"BCRYPT_COST":        "12",
		"RATE_LIMIT_ENABLED": "false",
		"RATE_LIMIT_RPM":     "200",
		"READ_TIMEOUT":       "45s",
		"LOG_LEVEL":          "debug",
		"LOG_FORMAT":         "json",
	}

	setEnvVars(envVars)
	defer clearEnvVars(allEnvVars)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error with custom config, got: %v", err)
	}

	if config.GetServerAddr() != "0.0.0.0:9000" {
		t.Errorf("Expected server addr '0.0.0.0:9000', got %s", config.GetServerAddr())
	}

	if !config.IsProduction() {
		t.Error("Expected production environment")
	}

	if config.Database.Host != "db.example.com" {
		t.Errorf("Expected DB host 'db.example.com', got %s", config.Database.Host)
	}

	if config.Database.MaxOpenConns != 50 {
		t.Errorf("Expected max open conns 50, got %d", config.Database.MaxOpenConns)
	}

	if config.Auth.BCryptCost != 12 {
		t.Errorf("Expected bcrypt cost 12, got %d", config.Auth.BCryptCost)
	}

	if config.RateLimit.Enabled {
		t.Error("Expected rate limiting to be disabled")
	}

	if config.RateLimit.RequestsPerMin != 200 {
		t.Errorf("Expected requests per minute 200, got %d", config.RateLimit.RequestsPerMin)
	}

	if config.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Expected read timeout 45s, got %v", config.Server.ReadTimeout)
	}

	if config.Log.Level != "debug" || config.Log.Format != "json" {
		t.Errorf("Expected log debug/json, got %s/%s", config.Log.Level, config.Log.Format)
	}
}

func TestLoadConfig_InvalidEnvValuesKeepDefaults(t *testing.T) {
	clearEnvVars(allEnvVars)
	setEnvVars(map[string]string{
		"DB_MAX_OPEN_CONNS":  "lots",
		"READ_TIMEOUT":       "soon",
		"RATE_LIMIT_ENABLED": "maybe",
	})
	defer clearEnvVars(allEnvVars)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if config.Database.MaxOpenConns != 25 {
		t.Errorf("Expected max open conns 25, got %d", config.Database.MaxOpenConns)
	}
	if config.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Expected read timeout 30s, got %v", config.Server.ReadTimeout)
	}
	if !config.RateLimit.Enabled {
		t.Error("Expected rate limiting to stay enabled")
	}
}

func TestLoadConfig_ProductionValidation(t *testing.T) {
	clearEnvVars(allEnvVars)
	setEnvVars(map[string]string{"ENVIRONMENT": "production"})
	defer clearEnvVars(allEnvVars)

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("Expected error for missing database password in production")
	}

	if err.Error() != "database password is required in production" {
		t.Errorf("Expected specific error message, got: %v", err)
	}
}

func TestLoadConfig_ProductionSQLiteNeedsNoPassword(t *testing.T) {
	clearEnvVars(allEnvVars)
	setEnvVars(map[string]string{"ENVIRONMENT": "production", "DB_DRIVER": "sqlite"})
	defer clearEnvVars(allEnvVars)

	if _, err := LoadConfig(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
}

func TestLoadConfig_UnsupportedDriver(t *testing.T) {
	clearEnvVars(allEnvVars)
	setEnvVars(map[string]string{"DB_DRIVER": "mysql"})
	defer clearEnvVars(allEnvVars)

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error for unsupported driver")
	}
}

func TestLoadConfig_YAMLFileWithEnvOverride(t *testing.T) {
	clearEnvVars(allEnvVars)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: "7000"
  read_timeout: 10s
database:
  driver: sqlite
  sqlite_path: /tmp/tasks.db
rate_limit:
  burst_size: 3
log:
  level: warn
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	setEnvVars(map[string]string{"CONFIG_FILE": path, "LOG_LEVEL": "error"})
	defer clearEnvVars(allEnvVars)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if config.Server.Port != "7000" {
		t.Errorf("Expected port from file '7000', got %s", config.Server.Port)
	}
	if config.Server.ReadTimeout != 10*time.Second {
		t.Errorf("Expected read timeout 10s, got %v", config.Server.ReadTimeout)
	}
	if config.Server.Host != "localhost" {
		t.Errorf("Expected default host to survive file load, got %s", config.Server.Host)
	}
	if config.GetDatabaseDSN() != "/tmp/tasks.db" {
		t.Errorf("Expected sqlite DSN '/tmp/tasks.db', got %s", config.GetDatabaseDSN())
	}
	if config.RateLimit.BurstSize != 3 {
		t.Errorf("Expected burst size 3, got %d", config.RateLimit.BurstSize)
	}
	if config.Log.Level != "error" {
		t.Errorf("Expected env to override file log level, got %s", config.Log.Level)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	clearEnvVars(allEnvVars)
	setEnvVars(map[string]string{"CONFIG_FILE": filepath.Join(t.TempDir(), "missing.yaml")})
	defer clearEnvVars(allEnvVars)

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestConfig_GetDatabaseDSN(t *testing.T) {
	config := &Config{
		Database: DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     "5432",
			User:     "testuser",
			Password: "testpass",
			Name:     "testdb",
			SSLMode:  "require",
		},
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=require"
	actual := config.GetDatabaseDSN()

	if actual != expected {
		t.Errorf("Expected DSN '%s', got '%s'", expected, actual)
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		environment string
		expected    bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
		{"", false},
	}

	for _, test := range tests {
		config := &Config{
			Server: ServerConfig{
				Environment: test.environment,
			},
		}

		if actual := config.IsProduction(); actual != test.expected {
			t.Errorf("Environment %q: expected %v, got %v", test.environment, test.expected, actual)
		}
	}
}
