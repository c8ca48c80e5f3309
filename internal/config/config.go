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
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
	// PublicBaseURL is prepended to stored paths when building image URLs.
	PublicBaseURL string
}

type KafkaConfig struct {
	Brokers      []string
	SendTimeout  time.Duration
	MaxAttempts  int
	BackoffBase  time.Duration
	BackoffLimit time.Duration
}

type ConvertConfig struct {
	Quality    float32
	Workers    int
	MaxWorkers int
	QueueSize  int
}

type CleanupConfig struct {
	FailedCron      string
	UnusedCron      string
	FailedRetention time.Duration
	UnusedRetention time.Duration
	LockTTL         time.Duration
}

type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

type CatalogConfig struct {
	RefreshCron string
}

type AppConfig struct {
	Environment string
	HTTP        HTTPConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Storage     StorageConfig
	Kafka       KafkaConfig
	Convert     ConvertConfig
	Cleanup     CleanupConfig
	Outbox      OutboxConfig
	Catalog     CatalogConfig
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("IMAGESERVER")
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

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.bucket", "imageserver")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.publicbaseurl", "http://localhost:8080/images")

	v.SetDefault("kafka.brokers", "127.0.0.1:9092")
	v.SetDefault("kafka.sendtimeout", "5s")
	v.SetDefault("kafka.maxattempts", 3)
	v.SetDefault("kafka.backoffbase", "1s")
	v.SetDefault("kafka.backofflimit", "10s")

	v.SetDefault("convert.quality", 0.8)
	v.SetDefault("convert.workers", 10)
	v.SetDefault("convert.maxworkers", 20)
	v.SetDefault("convert.queuesize", 500)

	v.SetDefault("cleanup.failedcron", "0 0 3 * * *")
	v.SetDefault("cleanup.unusedcron", "0 30 3 * * *")
	v.SetDefault("cleanup.failedretention", "24h")
	v.SetDefault("cleanup.unusedretention", "48h")
	v.SetDefault("cleanup.lockttl", "10m")

	v.SetDefault("outbox.pollinterval", "1s")
	v.SetDefault("outbox.batchsize", 50)

	v.SetDefault("catalog.refreshcron", "0 30 0 * * *")
}
