package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Steam    SteamConfig    `mapstructure:"steam"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Security SecurityConfig `mapstructure:"security"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"db_name"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// SteamConfig Steam Web API相关配置
type SteamConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	CheckDelay     time.Duration `mapstructure:"check_delay"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

type WorkerConfig struct {
	Concurrency   int `mapstructure:"concurrency"`
	RateLimitQPS  int `mapstructure:"rate_limit_qps"`
	QueueCapacity int `mapstructure:"queue_capacity"`
}

type SecurityConfig struct {
	AdminKey       string `mapstructure:"admin_key"`
	SubmitSignSalt string `mapstructure:"submit_sign_salt"`
}

type LogConfig struct {
	Dir string `mapstructure:"dir"`
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	// 设置环境变量映射
	viper.SetEnvPrefix("")
	viper.AutomaticEnv()

	// 设置默认值
	viper.SetDefault("PORT", "6390")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_NAME", "steam_checker")
	viper.SetDefault("HTTP_READ_TIMEOUT", "10s")
	viper.SetDefault("HTTP_WRITE_TIMEOUT", "15s")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 50)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 20)
	viper.SetDefault("STEAM_REQUEST_TIMEOUT", "10s")
	viper.SetDefault("CHECK_DELAY", "2s")
	viper.SetDefault("STEAM_MAX_RETRIES", 3)
	viper.SetDefault("WORKER_CONCURRENCY", 1)
	viper.SetDefault("RATE_LIMIT_QPS", 2)
	viper.SetDefault("QUEUE_CAPACITY", 100)
	viper.SetDefault("SUBMIT_SIGN_SALT", "5%#@!S^TE&AM*()_+K")
	viper.SetDefault("LOG_DIR", "logs")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("配置文件读取失败，使用环境变量: %v", err)
	}

	var config Config

	// 映射环境变量到配置结构
	config.Server.Port = viper.GetString("PORT")
	config.Server.ReadTimeout = viper.GetDuration("HTTP_READ_TIMEOUT")
	config.Server.WriteTimeout = viper.GetDuration("HTTP_WRITE_TIMEOUT")

	config.Database.Host = viper.GetString("DB_HOST")
	config.Database.Port = viper.GetString("DB_PORT")
	config.Database.User = viper.GetString("DB_USER")
	config.Database.Password = viper.GetString("DB_PASSWORD")
	config.Database.DBName = viper.GetString("DB_NAME")
	config.Database.MaxOpenConns = viper.GetInt("DB_MAX_OPEN_CONNS")
	config.Database.MaxIdleConns = viper.GetInt("DB_MAX_IDLE_CONNS")

	config.Steam.APIKey = viper.GetString("STEAM_API_KEY")
	config.Steam.RequestTimeout = viper.GetDuration("STEAM_REQUEST_TIMEOUT")
	config.Steam.CheckDelay = viper.GetDuration("CHECK_DELAY")
	config.Steam.MaxRetries = viper.GetInt("STEAM_MAX_RETRIES")

	config.Worker.Concurrency = viper.GetInt("WORKER_CONCURRENCY")
	config.Worker.RateLimitQPS = viper.GetInt("RATE_LIMIT_QPS")
	config.Worker.QueueCapacity = viper.GetInt("QUEUE_CAPACITY")

	config.Security.AdminKey = viper.GetString("ADMIN_KEY")
	config.Security.SubmitSignSalt = viper.GetString("SUBMIT_SIGN_SALT")

	config.Log.Dir = viper.GetString("LOG_DIR")

	return &config
}
