package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
	WriteTimeout    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
	UseSSL        bool
	Region        string
}

type ImageConfig struct {
	MaxBytes      int64
	FetchTimeout  time.Duration
	NormalizeJPEG bool
}

type SecurityConfig struct {
	AdminPasswordHash string
	JWTSecret         string
	JWTTTL            time.Duration
}

type ShareConfig struct {
	SiteBaseURL string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Image            ImageConfig
	Security         SecurityConfig
	Share            ShareConfig
	AllowCORSOrigins []string
}

// StorageConfigured reports whether an object store backend is set up.
// Without one, ingestion falls back to inline database persistence.
func (c *AppConfig) StorageConfigured() bool {
	return c.Storage.Endpoint != "" && c.Storage.Bucket != ""
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("DOGIFY")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")
	v.SetDefault("postgres.writetimeout", "15s")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.bucket", "dogify-bucket")
	v.SetDefault("storage.usessl", true)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("image.maxbytes", 1536*1024) // 1.5 MiB
	v.SetDefault("image.fetchtimeout", "10s")
	v.SetDefault("image.normalizejpeg", true)

	v.SetDefault("security.jwtttl", "12h")

	v.SetDefault("share.sitebaseurl", "http://localhost:8080")
}
