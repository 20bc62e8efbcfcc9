package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string   // CAMPUS_DATABASE_URL (default "campus.db"; postgres:// selects Postgres)
	HTTPAddr    string   // CAMPUS_HTTP_ADDR (default ":3001")
	GRPCAddr    string   // CAMPUS_GRPC_ADDR (optional, empty = no gRPC health server)
	NATSURL     string   // CAMPUS_NATS_URL (optional, empty = no events on the bus)
	PublicURL   string   // CAMPUS_PUBLIC_URL (optional, empty = derive from each request)
	CORSOrigins []string // CAMPUS_CORS_ORIGINS (comma separated, default "*")
	HooksFile   string   // CAMPUS_HOOKS_FILE (optional, TOML hook definitions; requires NATS)

	// Uploads
	UploadsDir        string // CAMPUS_UPLOADS_DIR (default "public/uploads")
	UploadsS3Bucket   string // CAMPUS_UPLOADS_S3_BUCKET (stores images in S3 when set)
	UploadsS3Region   string // CAMPUS_UPLOADS_S3_REGION (default "us-east-1")
	UploadsS3Endpoint string // CAMPUS_UPLOADS_S3_ENDPOINT (custom endpoint for MinIO)
	UploadsS3Prefix   string // CAMPUS_UPLOADS_S3_PREFIX (default "uploads/")

	// Logging
	LogLevel string // CAMPUS_LOG_LEVEL (default "info")
	LogFile  string // CAMPUS_LOG_FILE (optional, also log to this file)

	// Backup settings
	BackupInterval   time.Duration // CAMPUS_BACKUP_INTERVAL (default 0 = disabled)
	BackupS3Bucket   string        // CAMPUS_BACKUP_S3_BUCKET (enables S3 when set)
	BackupS3Endpoint string        // CAMPUS_BACKUP_S3_ENDPOINT
	BackupS3Region   string        // CAMPUS_BACKUP_S3_REGION (default "us-east-1")
	BackupS3Key      string        // CAMPUS_BACKUP_S3_KEY (default "campus/backup.jsonl")
	BackupGitRepo    string        // CAMPUS_BACKUP_GIT_REPO (enables git when set; path to clone)
	BackupGitFile    string        // CAMPUS_BACKUP_GIT_FILE (default "campus.jsonl")
	BackupGitBranch  string        // CAMPUS_BACKUP_GIT_BRANCH (default "main")
}

// Load reads the configuration from the environment. Variables in an
// optional .env file (CAMPUS_ENV_FILE overrides the path) fill in whatever
// the environment does not already set.
func Load() (*Config, error) {
	if err := loadDotEnv(envOrDefault("CAMPUS_ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	c := &Config{
		DatabaseURL:       envOrDefault("CAMPUS_DATABASE_URL", "campus.db"),
		HTTPAddr:          envOrDefault("CAMPUS_HTTP_ADDR", ":3001"),
		GRPCAddr:          os.Getenv("CAMPUS_GRPC_ADDR"),
		NATSURL:           os.Getenv("CAMPUS_NATS_URL"),
		PublicURL:         os.Getenv("CAMPUS_PUBLIC_URL"),
		CORSOrigins:       splitList(envOrDefault("CAMPUS_CORS_ORIGINS", "*")),
		HooksFile:         os.Getenv("CAMPUS_HOOKS_FILE"),
		UploadsDir:        envOrDefault("CAMPUS_UPLOADS_DIR", "public/uploads"),
		UploadsS3Bucket:   os.Getenv("CAMPUS_UPLOADS_S3_BUCKET"),
		UploadsS3Region:   envOrDefault("CAMPUS_UPLOADS_S3_REGION", "us-east-1"),
		UploadsS3Endpoint: os.Getenv("CAMPUS_UPLOADS_S3_ENDPOINT"),
		UploadsS3Prefix:   envOrDefault("CAMPUS_UPLOADS_S3_PREFIX", "uploads/"),
		LogLevel:          envOrDefault("CAMPUS_LOG_LEVEL", "info"),
		LogFile:           os.Getenv("CAMPUS_LOG_FILE"),
		BackupS3Bucket:    os.Getenv("CAMPUS_BACKUP_S3_BUCKET"),
		BackupS3Endpoint:  os.Getenv("CAMPUS_BACKUP_S3_ENDPOINT"),
		BackupS3Region:    envOrDefault("CAMPUS_BACKUP_S3_REGION", "us-east-1"),
		BackupS3Key:       envOrDefault("CAMPUS_BACKUP_S3_KEY", "campus/backup.jsonl"),
		BackupGitRepo:     os.Getenv("CAMPUS_BACKUP_GIT_REPO"),
		BackupGitFile:     envOrDefault("CAMPUS_BACKUP_GIT_FILE", "campus.jsonl"),
		BackupGitBranch:   envOrDefault("CAMPUS_BACKUP_GIT_BRANCH", "main"),
	}

	if s := os.Getenv("CAMPUS_BACKUP_INTERVAL"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("CAMPUS_BACKUP_INTERVAL: %w", err)
		}
		if d < 0 {
			return nil, fmt.Errorf("CAMPUS_BACKUP_INTERVAL: must not be negative")
		}
		c.BackupInterval = d
	}

	return c, nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
