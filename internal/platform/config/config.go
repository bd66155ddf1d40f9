package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Booking  BookingConfig  `mapstructure:"booking"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CorsOrigins     []string      `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnectRetries  int           `mapstructure:"connect_retries"`
	RunMigrations   bool          `mapstructure:"run_migrations"`
}

type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	MaxRetries   int           `mapstructure:"max_retries"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type BookingConfig struct {
	HoldTTL       time.Duration `mapstructure:"hold_ttl"`
	LockTimeout   time.Duration `mapstructure:"lock_timeout"`
	TxTimeout     time.Duration `mapstructure:"tx_timeout"`
	PromoteGrace  time.Duration `mapstructure:"promote_grace"`
	MaxPassengers int           `mapstructure:"max_passengers"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	SweepGrace    time.Duration `mapstructure:"sweep_grace"`
	SweepBatch    int           `mapstructure:"sweep_batch"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type RabbitMQConfig struct {
	URL   string `mapstructure:"url"`
	Queue string `mapstructure:"queue"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.request_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "boat_booking")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.connect_retries", 10)
	v.SetDefault("database.run_migrations", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.pool_size", 100)
	v.SetDefault("redis.min_idle_conns", 10)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.dial_timeout", 2*time.Second)
	v.SetDefault("redis.read_timeout", time.Second)
	v.SetDefault("redis.write_timeout", time.Second)

	v.SetDefault("booking.hold_ttl", 10*time.Minute)
	v.SetDefault("booking.lock_timeout", 2*time.Second)
	v.SetDefault("booking.tx_timeout", 5*time.Second)
	v.SetDefault("booking.promote_grace", 10*time.Second)
	v.SetDefault("booking.max_passengers", 20)
	v.SetDefault("booking.sweep_interval", time.Minute)
	v.SetDefault("booking.sweep_grace", 30*time.Minute)
	v.SetDefault("booking.sweep_batch", 100)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("kafka.topic", "booking.lifecycle")
	v.SetDefault("rabbitmq.queue", "payment.outcomes")
	v.SetDefault("log.level", "info")
}

// Load reads config/config.yaml (when present) and environment overrides such
// as DATABASE_HOST or BOOKING_HOLD_TTL.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./config", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Booking.HoldTTL <= 0 {
		return errors.New("booking.hold_ttl must be positive")
	}
	if c.Booking.LockTimeout <= 0 || c.Booking.TxTimeout <= 0 {
		return errors.New("booking lock and tx timeouts must be positive")
	}
	if c.Booking.PromoteGrace < c.Booking.LockTimeout {
		return errors.New("booking.promote_grace must not be shorter than booking.lock_timeout")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Booking.MaxPassengers < 1 {
		return errors.New("booking.max_passengers must be at least 1")
	}
	if c.Booking.SweepInterval <= 0 {
		return errors.New("booking.sweep_interval must be positive")
	}
	if c.Booking.SweepBatch < 1 {
		return errors.New("booking.sweep_batch must be at least 1")
	}
	return nil
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}
