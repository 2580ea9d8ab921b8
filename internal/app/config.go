package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr       string
	RequestTimeout time.Duration
	LogLevel       string
	LogFormat      string
	UserAgent      string

	TMDBAPIKey        string
	TMDBBaseURL       string
	GeoapifyAPIKey    string
	GeoapifyBaseURL   string
	RAWGAPIKey        string
	RAWGBaseURL       string
	GoogleBooksAPIKey string
	GoogleBooksURL    string
	YouTubeAPIKey     string
	YouTubeBaseURL    string

	RedisURL      string
	MongoURI      string
	MongoDatabase string

	CacheTTL      time.Duration
	CacheDisabled bool
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		RequestTimeout: time.Duration(getEnvInt("SEARCH_TIMEOUT_SECONDS", 10)) * time.Second,
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "text")),
		UserAgent:      getEnv("SEARCH_USER_AGENT", "curately-catalog/1.0"),

		TMDBAPIKey:        strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
		TMDBBaseURL:       getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		GeoapifyAPIKey:    strings.TrimSpace(os.Getenv("GEOAPIFY_API_KEY")),
		GeoapifyBaseURL:   getEnv("GEOAPIFY_BASE_URL", "https://api.geoapify.com/v1"),
		RAWGAPIKey:        strings.TrimSpace(os.Getenv("RAWG_API_KEY")),
		RAWGBaseURL:       getEnv("RAWG_BASE_URL", "https://api.rawg.io/api"),
		GoogleBooksAPIKey: strings.TrimSpace(os.Getenv("GOOGLE_BOOKS_API_KEY")),
		GoogleBooksURL:    getEnv("GOOGLE_BOOKS_BASE_URL", "https://www.googleapis.com/books/v1"),
		YouTubeAPIKey:     strings.TrimSpace(os.Getenv("YOUTUBE_API_KEY")),
		YouTubeBaseURL:    getEnv("YOUTUBE_BASE_URL", "https://www.googleapis.com/youtube/v3"),

		RedisURL:      getEnv("REDIS_URL", ""),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DB", "curately"),

		CacheTTL:      time.Duration(getEnvInt("SEARCH_CACHE_TTL_MINUTES", 5)) * time.Minute,
		CacheDisabled: getEnvBool("SEARCH_CACHE_DISABLED", false),
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
