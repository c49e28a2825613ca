// Package config 提供配置管理
//
// 配置来源的优先级：环境变量 > YAML 文件 > 内置默认值。
// YAML 文件路径由 LUNBAN_CONFIG 指定，缺省不读文件。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/model"
)

// Config 应用配置
type Config struct {
	App      AppConfig          `yaml:"app"`
	Database DatabaseConfig     `yaml:"database"`
	API      APIConfig          `yaml:"api"`
	Solver   model.SolverConfig `yaml:"solver"`
	Optimize OptimizeConfig     `yaml:"optimize"`
	Metrics  MetricsConfig      `yaml:"metrics"`
	Log      logger.Config      `yaml:"log"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name string `yaml:"name"`
	Env  string `yaml:"env"`
	Port int    `yaml:"port"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// APIConfig API配置
type APIConfig struct {
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// OptimizeConfig 多种子寻优配置
type OptimizeConfig struct {
	Attempts    int  `yaml:"attempts"`
	Parallelism int  `yaml:"parallelism"`
	InProcess   bool `yaml:"in_process"` // 关闭子进程隔离，所有尝试在本进程执行
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EnvConfigPath 指定 YAML 配置文件的环境变量名
const EnvConfigPath = "LUNBAN_CONFIG"

// Load 加载配置：默认值 → YAML 文件 → 环境变量覆盖
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv(EnvConfigPath); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "读取配置文件失败")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "解析配置文件失败")
		}
	}

	applyEnv(cfg)
	cfg.Solver = cfg.Solver.Normalize()
	return cfg, nil
}

// defaults 内置默认配置
func defaults() *Config {
	return &Config{
		App: AppConfig{
			Name: "lunban",
			Env:  "development",
			Port: 7012,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "lunban",
			User:            "lunban",
			Password:        "lunban123",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		API: APIConfig{
			Timeout: 120 * time.Second,
		},
		Solver: model.DefaultSolverConfig(),
		Optimize: OptimizeConfig{
			Attempts:    4,
			Parallelism: 4,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: logger.DefaultConfig(),
	}
}

// applyEnv 环境变量覆盖
func applyEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Port = getEnvInt("APP_PORT", cfg.App.Port)
	cfg.Log.Level = getEnv("APP_LOG_LEVEL", cfg.Log.Level)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvInt("DB_PORT", cfg.Database.Port)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.SSLMode = getEnv("DB_SSL_MODE", cfg.Database.SSLMode)
	cfg.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", cfg.Database.ConnMaxLifetime)

	cfg.API.APIKey = getEnv("API_KEY", cfg.API.APIKey)
	cfg.API.Timeout = getEnvDuration("API_TIMEOUT", cfg.API.Timeout)

	cfg.Solver.Weeks = getEnvInt("SOLVER_WEEKS", cfg.Solver.Weeks)
	cfg.Solver.TimeBudget = getEnvDuration("SOLVER_TIME_BUDGET", cfg.Solver.TimeBudget)
	cfg.Solver.Workers = getEnvInt("SOLVER_WORKERS", cfg.Solver.Workers)
	cfg.Solver.Seed = int64(getEnvInt("SOLVER_SEED", int(cfg.Solver.Seed)))

	cfg.Optimize.Attempts = getEnvInt("OPTIMIZE_ATTEMPTS", cfg.Optimize.Attempts)
	cfg.Optimize.Parallelism = getEnvInt("OPTIMIZE_PARALLELISM", cfg.Optimize.Parallelism)
	cfg.Optimize.InProcess = getEnvBool("OPTIMIZE_IN_PROCESS", cfg.Optimize.InProcess)

	cfg.Metrics.Enabled = getEnvBool("METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.Path = getEnv("METRICS_PATH", cfg.Metrics.Path)
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// IsTest 检查是否为测试环境
func (c *Config) IsTest() bool {
	return c.App.Env == "test"
}

// 辅助函数
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
