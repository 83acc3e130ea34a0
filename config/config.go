package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// 快照持久化后端
const (
	BackendFile  = "file"
	BackendMinio = "minio"
	BackendMySQL = "mysql"
	BackendRedis = "redis"
)

// Config stores the application configuration.
type Config struct {
	// Insights GraphQL 源
	OAuthToken     string
	GraphQLURL     string
	Window         string // e.g. "DAYS_30"
	TrackLimit     int
	GeoLimit       int
	PerTrackCap    int           // 逐曲目地理查询的曲目上限
	Cooldown       time.Duration // 相邻两次逐曲目请求之间的固定间隔
	RequestTimeout time.Duration

	// 快照
	SnapshotPath     string
	SnapshotBackends []string // 写入顺序，第一个同时作为读取来源
	ExportDir        string

	// HTTP 服务
	ServerPort    string
	SnapshotWatch bool

	// 日志
	LogLevel string
	LogFile  string

	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// MinIO配置
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// MySQL配置
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvMillis reads a duration expressed in milliseconds.
func getEnvMillis(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		OAuthToken:     os.Getenv("SOUNDCLOUD_OAUTH_TOKEN"),
		GraphQLURL:     getEnv("INSIGHTS_GRAPHQL_URL", "https://graph.soundcloud.com/graphql"),
		Window:         getEnv("INSIGHTS_WINDOW", "DAYS_30"),
		TrackLimit:     getEnvInt("INSIGHTS_TRACK_LIMIT", 50),
		GeoLimit:       getEnvInt("INSIGHTS_GEO_LIMIT", 50),
		PerTrackCap:    getEnvInt("INSIGHTS_PER_TRACK_CAP", 20),
		Cooldown:       getEnvMillis("INSIGHTS_COOLDOWN_MS", 300*time.Millisecond),
		RequestTimeout: time.Duration(getEnvInt("INSIGHTS_HTTP_TIMEOUT_SEC", 30)) * time.Second,

		SnapshotPath:     getEnv("SNAPSHOT_PATH", "soundcloud_insights.json"),
		SnapshotBackends: getEnvList("SNAPSHOT_BACKENDS", []string{BackendFile}),
		ExportDir:        getEnv("EXPORT_DIR", "."),

		ServerPort:    getEnv("SERVER_PORT", "5000"),
		SnapshotWatch: getEnvBool("SNAPSHOT_WATCH", true),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""), // 默认无密码
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_SEC", 600)) * time.Second,

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "soundmap"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // For password, better not to have a hardcoded default
		DBName:     getEnv("DB_NAME", "soundmap"),
	}
}

// UsesBackend reports whether name is one of the configured snapshot backends.
func (c *Config) UsesBackend(name string) bool {
	for _, b := range c.SnapshotBackends {
		if b == name {
			return true
		}
	}
	return false
}

// Validate checks the settings a collect run depends on.
func (c *Config) Validate() error {
	if c.OAuthToken == "" {
		return fmt.Errorf("SOUNDCLOUD_OAUTH_TOKEN is not set")
	}
	if c.GraphQLURL == "" {
		return fmt.Errorf("INSIGHTS_GRAPHQL_URL is empty")
	}
	if c.TrackLimit <= 0 || c.GeoLimit <= 0 {
		return fmt.Errorf("track and geo limits must be positive (got %d, %d)", c.TrackLimit, c.GeoLimit)
	}
	if c.PerTrackCap < 0 {
		return fmt.Errorf("INSIGHTS_PER_TRACK_CAP must not be negative")
	}
	if len(c.SnapshotBackends) == 0 {
		return fmt.Errorf("no snapshot backend configured")
	}
	for _, b := range c.SnapshotBackends {
		switch b {
		case BackendFile, BackendMinio, BackendMySQL, BackendRedis:
		default:
			return fmt.Errorf("unknown snapshot backend %q", b)
		}
	}
	return nil
}
