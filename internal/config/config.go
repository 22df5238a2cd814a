package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	ServerPort  string
	Env         string
	StoreDriver string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	MongoURI    string
	MongoDBName string

	RedisURL string

	JWTSecret        string
	JWTTTL           time.Duration
	AllowAdminSignup bool

	CORSOrigins        []string
	RateLimitPerMinute int

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
	S3PublicURL string
	MediaFolder string
}

func Load() *Config {
	// .env is optional; real environment wins.
	_ = godotenv.Load()

	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		StoreDriver: getEnv("STORE_DRIVER", DriverPostgres),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "glamplanner"),
		DBPassword: getEnv("DB_PASSWORD", "glamplanner_dev_password"),
		DBName:     getEnv("DB_NAME", "glamplanner"),

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "glamplanner"),

		RedisURL: getEnv("REDIS_URL", ""),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTTTL:           time.Duration(getEnvInt("JWT_TTL_HOURS", 24)) * time.Hour,
		AllowAdminSignup: getEnvBool("ALLOW_ADMIN_SIGNUP", false),

		CORSOrigins:        splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,https://glamplanner.netlify.app")),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),

		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3Bucket:    getEnv("S3_BUCKET", "glamplanner-media"),
		S3UseSSL:    getEnvBool("S3_USE_SSL", true),
		S3PublicURL: getEnv("S3_PUBLIC_URL", ""),
		MediaFolder: getEnv("MEDIA_FOLDER", "gallery"),
	}
}

// Validate reports configuration that must stop startup.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.StoreDriver {
	case DriverPostgres, DriverMongo, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not one of postgres, mongo, memory", c.StoreDriver))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL_HOURS must be positive"))
	}
	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// MediaEnabled reports whether an object store is configured for uploads.
func (c *Config) MediaEnabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	parsed, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	parsed, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(raw string) []string {
	var out []string
	for _, entry := range strings.Split(raw, ",") {
		if entry = strings.TrimSpace(entry); entry != "" {
			out = append(out, entry)
		}
	}
	return out
}
