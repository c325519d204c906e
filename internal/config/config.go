// Package config 管理 CLI 客户端配置
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultBaseURL 占位地址，使用它时自动切换到本地替身
const DefaultBaseURL = "https://example.com/api/v1"

// Config CLI 配置结构
type Config struct {
	API    APIConfig    `mapstructure:"api"`
	Chat   ChatConfig   `mapstructure:"chat"`
	Player PlayerConfig `mapstructure:"player"`
	Camera CameraConfig `mapstructure:"camera"`
	Log    LogConfig    `mapstructure:"log"`
	Stub   StubConfig   `mapstructure:"stub"`
}

// APIConfig 后端配置
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"` // 为空或指向 example.com 时使用本地替身
	Timeout time.Duration `mapstructure:"timeout"`  // 0 表示不限制
}

// ChatConfig 追问配置
type ChatConfig struct {
	NeedAudio bool `mapstructure:"need_audio"` // "Need audio response" 默认值
}

// PlayerConfig 外部播放器
type PlayerConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// CameraConfig 外部拍照命令，图片输出到 stdout
type CameraConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text | json
}

// StubConfig 本地替身服务
type StubConfig struct {
	Addr       string  `mapstructure:"addr"`
	DelayScale float64 `mapstructure:"delay_scale"`
}

var (
	cfg        *Config
	configPath string
	configDir  string
)

// Init 初始化配置：~/.snapopedia/config.yaml、.env 与 SNAPOPEDIA_* 环境变量
func Init() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("获取用户目录失败: %w", err)
	}

	c, err := Load(filepath.Join(home, ".snapopedia"))
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// Load 从指定目录加载配置，文件不存在时写入默认配置
func Load(dir string) (*Config, error) {
	configDir = dir
	configPath = filepath.Join(dir, "config.yaml")

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("创建配置目录失败: %w", err)
	}

	// .env 不覆盖已有环境变量
	_ = godotenv.Load()
	_ = godotenv.Load(filepath.Join(configDir, ".env"))

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SNAPOPEDIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("读取配置失败: %w", err)
		}
		// 首次运行，写入默认配置，已存在时忽略
		_ = v.SafeWriteConfigAs(configPath)
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.timeout", time.Duration(0))
	v.SetDefault("chat.need_audio", true)
	v.SetDefault("player.command", "ffplay")
	v.SetDefault("player.args", []string{"-nodisp", "-autoexit", "-loglevel", "quiet"})
	v.SetDefault("camera.command", "")
	v.SetDefault("camera.args", []string{})
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("stub.addr", ":8787")
	v.SetDefault("stub.delay_scale", 1.0)
}

// Get 获取配置，未初始化时返回默认配置
func Get() *Config {
	if cfg == nil {
		v := viper.New()
		setDefaults(v)
		c := &Config{}
		_ = v.Unmarshal(c)
		return c
	}
	return cfg
}

// Path 配置文件路径
func Path() string {
	return configPath
}

// SetBaseURL 命令行 --server 覆盖后端地址
func SetBaseURL(url string) {
	if cfg == nil {
		cfg = Get()
	}
	cfg.API.BaseURL = strings.TrimRight(url, "/")
}
