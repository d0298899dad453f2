// File: internal/pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config 战斗服务配置，来源优先级：进程环境变量 > .env.local > .env > 默认值
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	HTTPPort         int           `env:"BATTLE_HTTP_PORT" envDefault:"4000"`
	CORSAllowOrigins []string      `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4"`

	DialogueTimeout    time.Duration `env:"DIALOGUE_TIMEOUT" envDefault:"20s"`
	BattleMaxAge       time.Duration `env:"BATTLE_MAX_AGE" envDefault:"1h"`
	BattleReapSchedule string        `env:"BATTLE_REAP_SCHEDULE" envDefault:"0 */5 * * * *"`
	StreamBuffer       int           `env:"STREAM_BUFFER" envDefault:"8"`
	StreamHeartbeat    time.Duration `env:"STREAM_HEARTBEAT" envDefault:"15s"`

	NATSURL string `env:"NATS_URL"`
}

// Load 依次加载 dotenv 文件（不存在则跳过）后解析环境变量
// godotenv.Load 不会覆盖已存在的变量，所以先加载的文件优先
func Load(files ...string) (*Config, error) {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验取值范围
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("BATTLE_HTTP_PORT out of range: %d", c.HTTPPort))
	}
	if c.DialogueTimeout <= 0 {
		errs = append(errs, errors.New("DIALOGUE_TIMEOUT must be positive"))
	}
	if c.BattleMaxAge <= 0 {
		errs = append(errs, errors.New("BATTLE_MAX_AGE must be positive"))
	}
	if c.StreamBuffer < 0 {
		errs = append(errs, errors.New("STREAM_BUFFER must not be negative"))
	}
	if strings.TrimSpace(c.BattleReapSchedule) == "" {
		errs = append(errs, errors.New("BATTLE_REAP_SCHEDULE must not be empty"))
	}
	return errors.Join(errs...)
}

// IsProduction 是否生产环境
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Addr HTTP 监听地址
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
