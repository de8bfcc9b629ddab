package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/stegosaurus21/minicms-sub001/internal/logger"
	"github.com/stegosaurus21/minicms-sub001/internal/validator"
)

type PostgresConfig struct {
	User               string        `validate:"required"`
	Password           string        `validate:"required"`
	Host               string        `validate:"required"`
	Database           string        `validate:"required"`
	MaxIdleConnections int           `validate:"required" mapstructure:"max_idle_connections"`
	MaxOpenConnections int           `validate:"required" mapstructure:"max_open_connections"`
	ConnectionTTL      time.Duration `validate:"required" mapstructure:"connection_ttl"`
	Port               int16         `validate:"required"`
}

type JudgeConfig struct {
	// Base URL of the judge API, submissions are POSTed to {url}/submissions
	URL string `mapstructure:"url"            validate:"required,url"`
	// Externally reachable base URL of this server, used to build callback URLs
	PublicURL string `mapstructure:"public_url"     validate:"required,url"`
	// Path segment the judge must echo back on every callback
	CallbackSecret string        `mapstructure:"callback_secret" validate:"required,min=16"`
	AuthToken      string        `mapstructure:"auth_token"`
	Timeout        time.Duration `mapstructure:"timeout"         validate:"required"`
	RetryMax       int           `mapstructure:"retry_max"`
	// Concurrent judge requests per submission
	MaxParallel int `mapstructure:"max_parallel"    validate:"required,gt=0"`
}

type StorageBackend string

const (
	StorageBackendMinio StorageBackend = "minio"
	StorageBackendAzure StorageBackend = "azure"
)

type MinioConfig struct {
	Endpoint        string `mapstructure:"endpoint"          validate:"required"`
	AccessKeyID     string `mapstructure:"access_key_id"     validate:"required"`
	SecretAccessKey string `mapstructure:"secret_access_key" validate:"required"`
	SSLEnabled      bool   `mapstructure:"ssl_enabled"`
}

type AzureStorageConfig struct {
	Name     string `mapstructure:"name"      validate:"required"`
	Key      string `mapstructure:"key"       validate:"required"`
	BlobURL  string `mapstructure:"blob_url"  validate:"required"`
	QueueURL string `mapstructure:"queue_url"`
}

type StorageConfig struct {
	Minio   *MinioConfig        `mapstructure:"minio"    validate:"required_if=Backend minio"`
	Azure   *AzureStorageConfig `mapstructure:"azure"    validate:"required_if=Backend azure"`
	Backend StorageBackend      `mapstructure:"backend"  validate:"required,oneof=minio azure"`
	// Bucket (or container) holding test inputs and expected outputs
	TestData string `mapstructure:"testdata" validate:"required"`
	// Bucket (or container) receiving archived submission sources
	Archive string `mapstructure:"archive"  validate:"required"`
}

type QueueConfig struct {
	// Azure queue receiving score events, disabled when empty
	ScoreEvents string `mapstructure:"score_events"`
}

type SlogConfig struct {
	Level int `mapstructure:"level"`
}

type GormLogConfig struct {
	Level        int  `mapstructure:"level"`
	TraceQueries bool `mapstructure:"trace_queries"`
}

type LoggingConfig struct {
	Gorm    GormLogConfig `mapstructure:"gorm"`
	App     SlogConfig    `mapstructure:"app"`
	UseOTLP bool          `mapstructure:"use_otlp"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"     validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Port     int    `mapstructure:"port"     validate:"required"`
}

type RateLimitConfig struct {
	GlobalPerMinute int64 `mapstructure:"global_per_minute"`
	SubmitPerMinute int64 `mapstructure:"submit_per_minute"`
	FailOpen        bool  `mapstructure:"fail_open"`
}

type LeaderboardConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type AdminConfig struct {
	Username string `mapstructure:"username" validate:"required"`
	Token    string `mapstructure:"token"    validate:"required,min=16"`
}

// See minicms.yaml for an example config
type Config struct {
	Postgres             *PostgresConfig    `mapstructure:"postgres"               validate:"required"`
	Logging              *LoggingConfig     `mapstructure:"logging"                validate:"required"`
	Judge                *JudgeConfig       `mapstructure:"judge"                  validate:"required"`
	Storage              *StorageConfig     `mapstructure:"storage"                validate:"required"`
	Redis                *RedisConfig       `mapstructure:"redis"                  validate:"required"`
	Queue                *QueueConfig       `mapstructure:"queue"`
	RateLimit            *RateLimitConfig   `mapstructure:"ratelimit"`
	Leaderboard          *LeaderboardConfig `mapstructure:"leaderboard"            validate:"required"`
	Admin                *AdminConfig       `mapstructure:"admin"`
	ListenAddress        string             `mapstructure:"listen_address"         validate:"required"`
	GracefulShutdownSecs int64              `mapstructure:"graceful_shutdown_secs"`
}

const (
	AppLogLevel                string = "logging.app.level"
	EnvPrefix                  string = "minicms"
	UseOTLP                    string = "logging.use_otlp"
	GlobalPerMinute            string = "ratelimit.global_per_minute"
	GormLogLevel               string = "logging.gorm.level"
	GormTraceQueries           string = "logging.gorm.trace_queries"
	GracefulShutdownSecs       string = "graceful_shutdown_secs"
	JudgeAuthToken             string = "judge.auth_token"
	JudgeCallbackSecret        string = "judge.callback_secret" // #nosec
	JudgeRetryMax              string = "judge.retry_max"
	JudgeMaxParallel           string = "judge.max_parallel"
	JudgeTimeout               string = "judge.timeout"
	LeaderboardCacheTTL        string = "leaderboard.cache_ttl"
	ListenAddress              string = "listen_address"
	PostgresDatabase           string = "postgres.database"
	PostgresHost               string = "postgres.host"
	PostgresPassword           string = "postgres.password"
	PostgresPort               string = "postgres.port"
	PostgresUser               string = "postgres.user"
	PostgresMaxIdleConnections string = "postgres.max_idle_connections"
	PostgresMaxOpenConnections string = "postgres.max_open_connections"
	PostgresConnectonTTL       string = "postgres.connection_ttl"
	RateLimitFailOpen          string = "ratelimit.fail_open"
	RedisHost                  string = "redis.host"
	RedisPassword              string = "redis.password"
	RedisPort                  string = "redis.port"
	StorageBackendKey          string = "storage.backend"
	StorageAzureKey            string = "storage.azure.key"
	StorageMinioAccessKeyID    string = "storage.minio.access_key_id"
	StorageMinioSecretKey      string = "storage.minio.secret_access_key" // #nosec
	StorageMinioSSLEnabled     string = "storage.minio.ssl_enabled"
	StorageTestData            string = "storage.testdata"
	StorageArchive             string = "storage.archive"
	SubmitPerMinute            string = "ratelimit.submit_per_minute"
	AdminToken                 string = "admin.token"
)

var configReady = false
var config Config

// GetConfig loads minicms.yaml (if present) overlaid with MINICMS_* env vars. The result is
// cached for the life of the process.
func GetConfig() (*Config, error) {
	if configReady {
		logger.Logger.Debug("returning already-loaded config")
		return &config, nil
	}
	logger.Logger.Info("loading config")

	v := viper.New()

	v.SetConfigName("minicms")

	v.AddConfigPath("/etc/minicms/")
	v.AddConfigPath(".")

	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.AutomaticEnv()

	// workaround for https://github.com/spf13/viper/issues/761
	// bind env vars explicitly so they unmarshal into the nested struct
	for _, key := range []string{
		PostgresPassword,
		JudgeCallbackSecret,
		JudgeAuthToken,
		RedisPassword,
		StorageAzureKey,
		StorageMinioAccessKeyID,
		StorageMinioSecretKey,
		AdminToken,
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	v.SetDefault(ListenAddress, "[::]:1323")
	v.SetDefault(PostgresHost, "localhost")
	v.SetDefault(PostgresPort, 5432)
	v.SetDefault(PostgresMaxIdleConnections, 2)
	v.SetDefault(PostgresMaxOpenConnections, 10)
	v.SetDefault(PostgresConnectonTTL, 10*time.Minute)
	v.SetDefault(GormLogLevel, int(slog.LevelDebug))
	v.SetDefault(GormTraceQueries, false)
	v.SetDefault(AppLogLevel, int(slog.LevelDebug))

	v.SetDefault(JudgeTimeout, 10*time.Second)
	v.SetDefault(JudgeRetryMax, 3)
	v.SetDefault(JudgeMaxParallel, 8)

	v.SetDefault(StorageBackendKey, string(StorageBackendMinio))
	v.SetDefault(StorageMinioSSLEnabled, true)
	v.SetDefault(StorageTestData, "testdata")
	v.SetDefault(StorageArchive, "archive")

	v.SetDefault(RedisHost, "localhost")
	v.SetDefault(RedisPort, 6379)
	v.SetDefault(GlobalPerMinute, 0)
	v.SetDefault(SubmitPerMinute, 0)
	v.SetDefault(RateLimitFailOpen, true)

	v.SetDefault(LeaderboardCacheTTL, 30*time.Second)

	v.SetDefault(UseOTLP, false)

	v.SetDefault(GracefulShutdownSecs, 30)

	err := v.ReadInConfig()
	if err != nil {
		// ignore config file not found to allow pure env config
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	err = v.Unmarshal(&config)
	if err != nil {
		configReady = false
		return nil, err
	}

	valid := validator.Create()
	err = valid.Validate(&config)
	if err != nil {
		configReady = false
		return nil, err
	}

	configReady = true
	return &config, nil
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s",
		url.QueryEscape(c.Postgres.User),
		url.QueryEscape(c.Postgres.Password),
		c.Postgres.Host, c.Postgres.Port,
		url.QueryEscape(c.Postgres.Database),
	)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
