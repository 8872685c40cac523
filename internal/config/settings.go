package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Settings struct {
	HTTPAddr  string
	PublicURL string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBTimezone string

	JWTSecret string
	JWTTTL    time.Duration

	LogFile   string
	LogLevel  string
	LogStdout bool

	StorageBackend string // "local" or "s3"
	MediaRoot      string
	MediaURL       string
	S3Bucket       string
	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3PublicURL    string

	MailURL  string
	MailFrom string

	MaxUploadBytes int64
	CORSOrigins    []string
}

// Load reads .env (if present) and the process environment.
func Load() Settings {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, relying on env vars")
	}

	return Settings{
		HTTPAddr:  getEnv("HTTP_ADDR", "0.0.0.0:8080"),
		PublicURL: strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:8080"), "/"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "gelift"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBTimezone: getEnv("DB_TIMEZONE", "UTC"),

		JWTSecret: getEnv("JWT_SECRET", "supersecret"),
		JWTTTL:    time.Duration(getEnvInt("JWT_TTL_HOURS", 72)) * time.Hour,

		LogFile:   getEnv("LOG_FILE", "./logs/app.log"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogStdout: getEnvBool("LOG_STDOUT", false),

		StorageBackend: getEnv("STORAGE_BACKEND", "local"),
		MediaRoot:      getEnv("MEDIA_ROOT", "./media"),
		MediaURL:       getEnv("MEDIA_URL", "/media/"),
		S3Bucket:       getEnv("S3_BUCKET", ""),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		S3Region:       getEnv("S3_REGION", "auto"),
		S3AccessKey:    getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretKey:    getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3PublicURL:    getEnv("S3_PUBLIC_URL", ""),

		MailURL:  getEnv("MAIL_URL", ""),
		MailFrom: getEnv("MAIL_FROM", "noreply@gelift.win.tue.nl"),

		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 10)) << 20,
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "")),
	}
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		logrus.WithField("key", key).Warnf("invalid integer %q, using %d", v, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return defaultValue
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
