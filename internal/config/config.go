package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	filePath := os.Getenv(envKey + "_FILE")
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	os.Setenv(envKey, strings.TrimSpace(string(data)))
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	Speech    SpeechConfig
	OCR       OCRConfig
	Gemini    GeminiConfig
	R2        R2Config
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	PublicURL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type RateLimitConfig struct {
	UploadPerHour  int
	MinutesPerHour int
	TrimPerHour    int
}

// StorageConfig holds the local directories the server owns: uploaded videos,
// saved sessions, generated actas, and the diarization token file.
type StorageConfig struct {
	UploadDir   string
	SessionsDir string
	ActasDir    string
	TokenFile   string
}

// SpeechConfig points at the WhisperX sidecar service.
type SpeechConfig struct {
	ServiceURL  string
	Model       string
	BatchSize   int
	ComputeType string
	Timeout     int // seconds; stages run for minutes
}

// OCRConfig points at the EasyOCR sidecar service.
type OCRConfig struct {
	ServiceURL string
	Languages  []string
	GPU        bool
	Timeout    int // seconds
}

type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("GOOGLE_API_KEY")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("server.public_url", "PUBLIC_URL")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("storage.upload_dir", "UPLOAD_DIR")
	_ = viper.BindEnv("storage.sessions_dir", "SESSIONS_DIR")
	_ = viper.BindEnv("storage.actas_dir", "ACTAS_DIR")
	_ = viper.BindEnv("storage.token_file", "HF_TOKEN_FILE")
	_ = viper.BindEnv("speech.service_url", "SPEECH_SERVICE_URL")
	_ = viper.BindEnv("speech.model", "SPEECH_MODEL")
	_ = viper.BindEnv("speech.batch_size", "SPEECH_BATCH_SIZE")
	_ = viper.BindEnv("speech.compute_type", "SPEECH_COMPUTE_TYPE")
	_ = viper.BindEnv("speech.timeout", "SPEECH_TIMEOUT")
	_ = viper.BindEnv("ocr.service_url", "OCR_SERVICE_URL")
	_ = viper.BindEnv("ocr.languages", "OCR_LANGUAGES")
	_ = viper.BindEnv("ocr.gpu", "OCR_GPU")
	_ = viper.BindEnv("ocr.timeout", "OCR_TIMEOUT")
	_ = viper.BindEnv("gemini.api_key", "GOOGLE_API_KEY")
	_ = viper.BindEnv("gemini.base_url", "GEMINI_BASE_URL")
	_ = viper.BindEnv("gemini.model", "GEMINI_MODEL")
	_ = viper.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = viper.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = viper.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = viper.BindEnv("r2.public_url", "R2_PUBLIC_URL")

	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("ratelimit.upload_per_hour", 10)
	viper.SetDefault("ratelimit.minutes_per_hour", 30)
	viper.SetDefault("ratelimit.trim_per_hour", 20)
	viper.SetDefault("storage.upload_dir", "./uploads")
	viper.SetDefault("storage.sessions_dir", "./sessions")
	viper.SetDefault("storage.actas_dir", "./actas")
	viper.SetDefault("storage.token_file", "./token-huggingface")
	viper.SetDefault("speech.service_url", "http://localhost:8081")
	viper.SetDefault("speech.model", "large-v3")
	viper.SetDefault("speech.batch_size", 16)
	viper.SetDefault("speech.compute_type", "int8")
	viper.SetDefault("speech.timeout", 3600)
	viper.SetDefault("ocr.service_url", "http://localhost:8082")
	viper.SetDefault("ocr.languages", []string{"es"})
	viper.SetDefault("ocr.gpu", false)
	viper.SetDefault("ocr.timeout", 60)
	viper.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	viper.SetDefault("gemini.model", "gemini-2.0-flash")

	// Config file is optional
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      viper.GetString("server.port"),
			Env:       viper.GetString("server.env"),
			LogLevel:  viper.GetString("server.log_level"),
			PublicURL: viper.GetString("server.public_url"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("jwt.secret"),
		},
		RateLimit: RateLimitConfig{
			UploadPerHour:  viper.GetInt("ratelimit.upload_per_hour"),
			MinutesPerHour: viper.GetInt("ratelimit.minutes_per_hour"),
			TrimPerHour:    viper.GetInt("ratelimit.trim_per_hour"),
		},
		Storage: StorageConfig{
			UploadDir:   viper.GetString("storage.upload_dir"),
			SessionsDir: viper.GetString("storage.sessions_dir"),
			ActasDir:    viper.GetString("storage.actas_dir"),
			TokenFile:   viper.GetString("storage.token_file"),
		},
		Speech: SpeechConfig{
			ServiceURL:  viper.GetString("speech.service_url"),
			Model:       viper.GetString("speech.model"),
			BatchSize:   viper.GetInt("speech.batch_size"),
			ComputeType: viper.GetString("speech.compute_type"),
			Timeout:     viper.GetInt("speech.timeout"),
		},
		OCR: OCRConfig{
			ServiceURL: viper.GetString("ocr.service_url"),
			Languages:  viper.GetStringSlice("ocr.languages"),
			GPU:        viper.GetBool("ocr.gpu"),
			Timeout:    viper.GetInt("ocr.timeout"),
		},
		Gemini: GeminiConfig{
			APIKey:  viper.GetString("gemini.api_key"),
			BaseURL: viper.GetString("gemini.base_url"),
			Model:   viper.GetString("gemini.model"),
		},
		R2: R2Config{
			AccountID:       viper.GetString("r2.account_id"),
			AccessKeyID:     viper.GetString("r2.access_key_id"),
			SecretAccessKey: viper.GetString("r2.secret_access_key"),
			BucketName:      viper.GetString("r2.bucket_name"),
			PublicURL:       viper.GetString("r2.public_url"),
		},
	}

	return cfg, nil
}
