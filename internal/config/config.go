package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// StorageModeVolume marks deployments backed by a persistent cloud volume.
// Background removal is skipped in this mode: the volume survives restarts, so
// already-processed images would be reprocessed, and the slow transform keeps
// the instance from scaling to zero.
const StorageModeVolume = "volume"

type Config struct {
	Env  string
	Port int

	DBURL string

	JWTSecret string
	TokenTTL  time.Duration

	UploadDir   string
	StorageMode string

	MaxUploadBytes int64

	CORSOrigins []string

	OTLPEndpoint string
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")
	port := getEnvInt("PORT", 8080)
	dbURL := buildDBURL()

	secret := getEnv("JWT_SECRET", "")
	ttlDays := getEnvInt("TOKEN_TTL_DAYS", 30)

	uploadDir := getEnv("UPLOAD_DIR", "static/uploads")
	storageMode := getEnv("STORAGE_MODE", "local")

	maxUpload := int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20))

	origins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"))

	return Config{
		Env:            env,
		Port:           port,
		DBURL:          dbURL,
		JWTSecret:      secret,
		TokenTTL:       time.Duration(ttlDays) * 24 * time.Hour,
		UploadDir:      uploadDir,
		StorageMode:    storageMode,
		MaxUploadBytes: maxUpload,
		CORSOrigins:    origins,
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

// Validate rejects configurations that must not reach production. An empty
// JWT secret would make every signed token forgeable, so outside dev the
// process refuses to start without one.
func (c Config) Validate() error {
	if c.JWTSecret == "" && c.Env != "dev" {
		return fmt.Errorf("JWT_SECRET must be set when APP_ENV is %q", c.Env)
	}

	return nil
}

// SkipBackgroundRemoval reports whether item images should be left as stored.
func (c Config) SkipBackgroundRemoval() bool {
	return c.StorageMode == StorageModeVolume
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "wardrobe")
	pass := getEnv("DB_PASSWORD", "wardrobe")
	name := getEnv("DB_NAME", "wardrobe")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")

	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}
