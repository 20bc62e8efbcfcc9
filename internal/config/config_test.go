package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// allEnvVars lists every variable Load reads; they are cleared between tests.
var allEnvVars = []string{
	"CAMPUS_ENV_FILE", "CAMPUS_DATABASE_URL", "CAMPUS_HTTP_ADDR", "CAMPUS_GRPC_ADDR",
	"CAMPUS_NATS_URL", "CAMPUS_PUBLIC_URL", "CAMPUS_CORS_ORIGINS", "CAMPUS_HOOKS_FILE",
	"CAMPUS_UPLOADS_DIR", "CAMPUS_UPLOADS_S3_BUCKET", "CAMPUS_UPLOADS_S3_REGION",
	"CAMPUS_UPLOADS_S3_ENDPOINT", "CAMPUS_UPLOADS_S3_PREFIX",
	"CAMPUS_LOG_LEVEL", "CAMPUS_LOG_FILE",
	"CAMPUS_BACKUP_INTERVAL", "CAMPUS_BACKUP_S3_BUCKET", "CAMPUS_BACKUP_S3_ENDPOINT",
	"CAMPUS_BACKUP_S3_REGION", "CAMPUS_BACKUP_S3_KEY", "CAMPUS_BACKUP_GIT_REPO",
	"CAMPUS_BACKUP_GIT_FILE", "CAMPUS_BACKUP_GIT_BRANCH",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
	// Point at a file that does not exist so a stray .env in the package
	// directory cannot leak into the test.
	t.Setenv("CAMPUS_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name         string
		env          map[string]string
		wantDB       string
		wantHTTPAddr string
		wantGRPCAddr string
		wantNATSURL  string
		wantOrigins  []string
	}{
		{
			name:         "Defaults",
			env:          map[string]string{},
			wantDB:       "campus.db",
			wantHTTPAddr: ":3001",
			wantOrigins:  []string{"*"},
		},
		{
			name: "Custom",
			env: map[string]string{
				"CAMPUS_DATABASE_URL": "postgres://db:5432/campus",
				"CAMPUS_HTTP_ADDR":    ":8080",
				"CAMPUS_GRPC_ADDR":    ":9090",
				"CAMPUS_NATS_URL":     "nats://localhost:4222",
				"CAMPUS_CORS_ORIGINS": "https://campus.example, http://localhost:5173,",
			},
			wantDB:       "postgres://db:5432/campus",
			wantHTTPAddr: ":8080",
			wantGRPCAddr: ":9090",
			wantNATSURL:  "nats://localhost:4222",
			wantOrigins:  []string{"https://campus.example", "http://localhost:5173"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.DatabaseURL != tc.wantDB {
				t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, tc.wantDB)
			}
			if cfg.HTTPAddr != tc.wantHTTPAddr {
				t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, tc.wantHTTPAddr)
			}
			if cfg.GRPCAddr != tc.wantGRPCAddr {
				t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, tc.wantGRPCAddr)
			}
			if cfg.NATSURL != tc.wantNATSURL {
				t.Errorf("NATSURL = %q, want %q", cfg.NATSURL, tc.wantNATSURL)
			}
			if len(cfg.CORSOrigins) != len(tc.wantOrigins) {
				t.Fatalf("CORSOrigins = %q, want %q", cfg.CORSOrigins, tc.wantOrigins)
			}
			for i := range tc.wantOrigins {
				if cfg.CORSOrigins[i] != tc.wantOrigins[i] {
					t.Errorf("CORSOrigins = %q, want %q", cfg.CORSOrigins, tc.wantOrigins)
				}
			}
		})
	}
}

func TestLoadUploadAndLogDefaults(t *testing.T) {
	clearAllEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.UploadsDir != "public/uploads" {
		t.Errorf("UploadsDir = %q", cfg.UploadsDir)
	}
	if cfg.UploadsS3Region != "us-east-1" {
		t.Errorf("UploadsS3Region = %q", cfg.UploadsS3Region)
	}
	if cfg.UploadsS3Prefix != "uploads/" {
		t.Errorf("UploadsS3Prefix = %q", cfg.UploadsS3Prefix)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadBackupDefaults(t *testing.T) {
	clearAllEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BackupInterval != 0 {
		t.Errorf("BackupInterval = %v, want 0 (disabled)", cfg.BackupInterval)
	}
	if cfg.BackupS3Region != "us-east-1" {
		t.Errorf("BackupS3Region = %q, want %q", cfg.BackupS3Region, "us-east-1")
	}
	if cfg.BackupS3Key != "campus/backup.jsonl" {
		t.Errorf("BackupS3Key = %q, want %q", cfg.BackupS3Key, "campus/backup.jsonl")
	}
	if cfg.BackupGitFile != "campus.jsonl" {
		t.Errorf("BackupGitFile = %q, want %q", cfg.BackupGitFile, "campus.jsonl")
	}
	if cfg.BackupGitBranch != "main" {
		t.Errorf("BackupGitBranch = %q, want %q", cfg.BackupGitBranch, "main")
	}
}

func TestLoadBackupCustom(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("CAMPUS_BACKUP_INTERVAL", "10m")
	t.Setenv("CAMPUS_BACKUP_S3_BUCKET", "my-bucket")
	t.Setenv("CAMPUS_BACKUP_S3_ENDPOINT", "http://minio:9000")
	t.Setenv("CAMPUS_BACKUP_S3_REGION", "eu-west-1")
	t.Setenv("CAMPUS_BACKUP_S3_KEY", "custom/key.jsonl")
	t.Setenv("CAMPUS_BACKUP_GIT_REPO", "/tmp/repo")
	t.Setenv("CAMPUS_BACKUP_GIT_FILE", "custom.jsonl")
	t.Setenv("CAMPUS_BACKUP_GIT_BRANCH", "backup")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BackupInterval != 10*time.Minute {
		t.Errorf("BackupInterval = %v, want 10m", cfg.BackupInterval)
	}
	if cfg.BackupS3Bucket != "my-bucket" {
		t.Errorf("BackupS3Bucket = %q", cfg.BackupS3Bucket)
	}
	if cfg.BackupS3Endpoint != "http://minio:9000" {
		t.Errorf("BackupS3Endpoint = %q", cfg.BackupS3Endpoint)
	}
	if cfg.BackupS3Region != "eu-west-1" {
		t.Errorf("BackupS3Region = %q", cfg.BackupS3Region)
	}
	if cfg.BackupS3Key != "custom/key.jsonl" {
		t.Errorf("BackupS3Key = %q", cfg.BackupS3Key)
	}
	if cfg.BackupGitRepo != "/tmp/repo" {
		t.Errorf("BackupGitRepo = %q", cfg.BackupGitRepo)
	}
	if cfg.BackupGitFile != "custom.jsonl" {
		t.Errorf("BackupGitFile = %q", cfg.BackupGitFile)
	}
	if cfg.BackupGitBranch != "backup" {
		t.Errorf("BackupGitBranch = %q", cfg.BackupGitBranch)
	}
}

func TestLoadBackupInvalidInterval(t *testing.T) {
	for _, v := range []string{"not-a-duration", "-5m"} {
		t.Run(v, func(t *testing.T) {
			clearAllEnv(t)
			t.Setenv("CAMPUS_BACKUP_INTERVAL", v)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for CAMPUS_BACKUP_INTERVAL=%q", v)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearAllEnv(t)
	path := filepath.Join(t.TempDir(), "campus.env")
	data := "CAMPUS_HTTP_ADDR=:4000\nCAMPUS_NATS_URL=nats://bus:4222\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CAMPUS_ENV_FILE", path)
	// Already-set variables win over the file. t.Setenv restores the
	// original values, but variables the file introduces must be unset by hand.
	t.Setenv("CAMPUS_HTTP_ADDR", ":5000")
	os.Unsetenv("CAMPUS_NATS_URL")
	t.Cleanup(func() { os.Unsetenv("CAMPUS_NATS_URL") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":5000" {
		t.Errorf("HTTPAddr = %q, want the environment value", cfg.HTTPAddr)
	}
	if cfg.NATSURL != "nats://bus:4222" {
		t.Errorf("NATSURL = %q, want the .env value", cfg.NATSURL)
	}
}

func TestEnvOrDefault(t *testing.T) {
	for _, tc := range []struct {
		name     string
		key      string
		envVal   string
		fallback string
		want     string
	}{
		{"EmptyUsesDefault", "TEST_ENVDEFAULT_EMPTY", "", "default-val", "default-val"},
		{"SetUsesEnv", "TEST_ENVDEFAULT_SET", "custom", "default-val", "custom"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.envVal)
			got := envOrDefault(tc.key, tc.fallback)
			if got != tc.want {
				t.Errorf("envOrDefault(%q, %q) = %q, want %q", tc.key, tc.fallback, got, tc.want)
			}
		})
	}
}
