package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gorevlerim.yaml")
	yml := `
database:
  driver: postgres
  url: postgres://todo@localhost/todo
  max_conns: 4
default_user_id: from-file
api_key: file-key
http:
  addr: ":9000"
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"DATABASE_DRIVER", "DATABASE_URL", "TODO_API_KEY", "HTTP_ADDR", "DATABASE_MAX_CONNS"} {
		t.Setenv(k, "") // empty values don't override
	}
	t.Setenv("TODO_USER_ID", "from-env")
	t.Setenv("DATABASE_PASSWORD", "s3cret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != DriverPostgres || cfg.Database.MaxConns != 4 {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.DefaultUserID != "from-env" {
		t.Errorf("DefaultUserID = %q, env should win", cfg.DefaultUserID)
	}
	if cfg.Database.Password != "s3cret" {
		t.Errorf("Password = %q", cfg.Database.Password)
	}
	if cfg.APIKey != "file-key" || cfg.HTTP.Addr != ":9000" {
		t.Errorf("cfg = %+v", cfg)
	}
	// untouched defaults survive
	if cfg.CORS.AllowOrigin != "*" || cfg.OAuth.ConsentURL == "" {
		t.Errorf("defaults lost: %+v %+v", cfg.CORS, cfg.OAuth)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestApplyEnvMaxConns(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.applyEnv(env(map[string]string{"DATABASE_MAX_CONNS": "12"})); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	if cfg.Database.MaxConns != 12 {
		t.Errorf("MaxConns = %d", cfg.Database.MaxConns)
	}
	if err := cfg.applyEnv(env(map[string]string{"DATABASE_MAX_CONNS": "lots"})); err == nil {
		t.Error("expected error for non-numeric DATABASE_MAX_CONNS")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "default_user_id") {
		t.Fatalf("Validate = %v, want missing default user", err)
	}

	cfg.DefaultUserID = "u1"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := cfg.ValidateServe(); err == nil {
		t.Fatal("ValidateServe should require an api key")
	}
	cfg.APIKey = "k"
	if err := cfg.ValidateServe(); err != nil {
		t.Fatalf("ValidateServe: %v", err)
	}

	cfg.Database.Driver = "mysql"
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate should reject unknown driver")
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		c := &Config{LogLevel: in}
		if got := c.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoadDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nGOREVLERIM_TEST_A=plain\nexport GOREVLERIM_TEST_B=\"quoted value\"\nGOREVLERIM_TEST_C='kept'\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOREVLERIM_TEST_C", "existing")
	// registered with t.Setenv so the values are restored after the test
	t.Setenv("GOREVLERIM_TEST_A", "")
	t.Setenv("GOREVLERIM_TEST_B", "")
	os.Unsetenv("GOREVLERIM_TEST_A")
	os.Unsetenv("GOREVLERIM_TEST_B")

	if err := LoadDotenv(path); err != nil {
		t.Fatalf("LoadDotenv: %v", err)
	}
	if got := os.Getenv("GOREVLERIM_TEST_A"); got != "plain" {
		t.Errorf("A = %q", got)
	}
	if got := os.Getenv("GOREVLERIM_TEST_B"); got != "quoted value" {
		t.Errorf("B = %q", got)
	}
	if got := os.Getenv("GOREVLERIM_TEST_C"); got != "existing" {
		t.Errorf("C = %q, existing env must win", got)
	}
}

func TestLoadDotenvMissingFile(t *testing.T) {
	if err := LoadDotenv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
}
