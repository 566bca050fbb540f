package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Storage engines available for the primary book storage.
const (
	EngineRedis  = "redis"
	EngineBolt   = "bolt"
	EngineBadger = "badger"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit               string        `yaml:"git_commit" envconfig:"BCAT_GIT_COMMIT"`
	GitTag                  string        `yaml:"git_tag" envconfig:"BCAT_GIT_TAG"`
	BuildTime               string        `yaml:"build_time" envconfig:"BCAT_BUILD_TIME"`
	IsProduction            bool          `yaml:"is_production" envconfig:"BCAT_IS_PRODUCTION"`
	LogLevel                zapcore.Level `yaml:"log_level" envconfig:"BCAT_LOG_LEVEL"`
	LogFolder               string        `yaml:"log_folder" envconfig:"BCAT_LOG_FOLDER"`
	LogMaxSize              int           `yaml:"log_max_size" envconfig:"BCAT_LOG_MAX_SIZE"`
	OpsEndpointsEnable      bool          `yaml:"ops_endpoints_enable" envconfig:"BCAT_OPS_ENDPOINTS_ENABLE"`
	ProfilerEndpointsEnable bool          `yaml:"profiler_endpoints_enable" envconfig:"BCAT_PROFILER_ENDPOINTS_ENABLE"`
	Server                  ServerConfig  `yaml:"server"`
	Storage                 StorageConfig `yaml:"storage"`
	Redis                   RedisConfig   `yaml:"redis"`
	BoltDB                  BoltDBConfig  `yaml:"boltdb"`
	Badger                  BadgerConfig  `yaml:"badger"`
	Catalog                 CatalogConfig `yaml:"catalog"`
	RateLimit               RateConfig    `yaml:"ratelimit"`
}

type ServerConfig struct {
	Host                    string        `yaml:"host" envconfig:"BCAT_SERVER_HOST"`
	Port                    string        `yaml:"port" envconfig:"BCAT_SERVER_PORT"`
	ReadTimeout             time.Duration `yaml:"read_timeout" envconfig:"BCAT_SERVER_READ_TIMEOUT"`
	WriteTimeout            time.Duration `yaml:"write_timeout" envconfig:"BCAT_SERVER_WRITE_TIMEOUT"`
	RequestTimeout          time.Duration `yaml:"request_timeout" envconfig:"BCAT_SERVER_REQUEST_TIMEOUT"` // Time to wait for a request to finish
	LongRequestWriteTimeout time.Duration `yaml:"long_request_write_timeout" envconfig:"BCAT_SERVER_LONG_REQUEST_WRITE_TIMEOUT"`
	ShutdownTimeout         time.Duration `yaml:"shutdown_timeout" envconfig:"BCAT_SERVER_SHUTDOWN_TIMEOUT"`
}

type StorageConfig struct {
	Engine  string        `yaml:"engine" envconfig:"BCAT_STORAGE_ENGINE"`
	Breaker BreakerConfig `yaml:"breaker"`
}

type BreakerConfig struct {
	Enable           bool          `yaml:"enable" envconfig:"BCAT_STORAGE_BREAKER_ENABLE"`
	MaxRequests      uint32        `yaml:"max_requests" envconfig:"BCAT_STORAGE_BREAKER_MAX_REQUESTS"`
	Interval         time.Duration `yaml:"interval" envconfig:"BCAT_STORAGE_BREAKER_INTERVAL"`
	Timeout          time.Duration `yaml:"timeout" envconfig:"BCAT_STORAGE_BREAKER_TIMEOUT"`
	FailureThreshold uint32        `yaml:"failure_threshold" envconfig:"BCAT_STORAGE_BREAKER_FAILURE_THRESHOLD"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"BCAT_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"BCAT_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"BCAT_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"BCAT_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"BCAT_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"BCAT_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"BCAT_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"BCAT_REDIS_USERNAME"`
	Password      string        `yaml:"password" envconfig:"BCAT_REDIS_PASSWORD" json:"-"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"BCAT_REDIS_DATABASE_INDEX"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"BCAT_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BCAT_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" envconfig:"BCAT_BOLTDB_BUCKET_NAME"`
}

type BadgerConfig struct {
	Dir      string `yaml:"dir" envconfig:"BCAT_BADGER_DIR"`
	InMemory bool   `yaml:"in_memory" envconfig:"BCAT_BADGER_IN_MEMORY"`
}

type CatalogConfig struct {
	RecommendMinAge int    `yaml:"recommend_min_age" envconfig:"BCAT_CATALOG_RECOMMEND_MIN_AGE"`
	RandomSeed      int64  `yaml:"random_seed" envconfig:"BCAT_CATALOG_RANDOM_SEED"`
	DefaultGroupBy  string `yaml:"default_group_by" envconfig:"BCAT_CATALOG_DEFAULT_GROUP_BY"`
}

type RateConfig struct {
	Enable  bool          `yaml:"enable" envconfig:"BCAT_RATELIMIT_ENABLE"`
	Rate    float64       `yaml:"rate" envconfig:"BCAT_RATELIMIT_RATE"`
	Burst   int           `yaml:"burst" envconfig:"BCAT_RATELIMIT_BURST"`
	Expires time.Duration `yaml:"expires" envconfig:"BCAT_RATELIMIT_EXPIRES"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and provides an instance of the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	if config.Server.ShutdownTimeout <= 0 {
		config.Server.ShutdownTimeout = 10 * time.Second
	}

	if len(config.LogFolder) == 0 {
		config.LogFolder = "logs"
	}

	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 10
	}

	if config.Catalog.RecommendMinAge <= 0 {
		config.Catalog.RecommendMinAge = DefaultRecommendMinAge
	}

	if _, err := ParseGroupField(config.Catalog.DefaultGroupBy); err != nil {
		return fmt.Errorf("invalid catalog default group by: %v", err)
	}

	if config.Storage.Breaker.FailureThreshold == 0 {
		config.Storage.Breaker.FailureThreshold = 5
	}

	switch config.Storage.Engine {
	case "", EngineRedis:
		config.Storage.Engine = EngineRedis
		if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
			return errors.New("make sure to set valid redis address and port in configuration file")
		}
	case EngineBolt:
		if len(config.BoltDB.FilePath) == 0 || len(config.BoltDB.BucketName) == 0 {
			return errors.New("make sure to set valid boltdb file path and bucket in configuration file")
		}
	case EngineBadger:
		if len(config.Badger.Dir) == 0 && !config.Badger.InMemory {
			return errors.New("make sure to set valid badger directory in configuration file")
		}
	default:
		return fmt.Errorf("unsupported storage engine %q", config.Storage.Engine)
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile("./config.yml")
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration.
	err = godotenv.Load("./config.env")
	if err != nil {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `BCAT`.
	err = LoadConfigEnvs("BCAT", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
