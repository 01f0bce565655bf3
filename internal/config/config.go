package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用程序配置
type Config struct {
	// 服务器配置
	Server ServerConfig `yaml:"server"`

	// 章节引擎配置
	Engine EngineConfig `yaml:"engine"`

	// 外部apply-layout协作方配置
	LayoutAgent LayoutAgentConfig `yaml:"layout_agent"`

	// 日志配置
	Logger LoggerConfig `yaml:"logger"`
}

// ServerConfig 定义服务器配置
type ServerConfig struct {
	Address string `yaml:"address"` // 例如 ":8000" or "0.0.0.0:8000"

	// APIKey 非空时启用API Key鉴权（Authorization: Bearer <key>）
	APIKey string `yaml:"api_key"`

	// MutationQPM 变更类接口（reorder/swap/delete）的每分钟请求数限制，<=0 不限流
	MutationQPM int `yaml:"mutation_qpm"`
}

// EngineConfig 定义章节引擎的配置
type EngineConfig struct {
	// ScanWindow 容器边界扩展的回溯窗口（字符数），<=0 取默认值
	ScanWindow int `yaml:"scan_window"`

	// GroupingTags 认可的分组容器家族，为空取默认家族
	GroupingTags []string `yaml:"grouping_tags"`

	// ExtraIdentifiers 标准词表之外额外扫描的章节标识符
	ExtraIdentifiers []string `yaml:"extra_identifiers"`
}

// LayoutAgentConfig 外部apply-layout服务的配置
// 保位置重排无法保证跨列移动的渲染效果，配置了端点时调用方可以选择
// 把重排委托给外部服务重新生成文档
type LayoutAgentConfig struct {
	Endpoint string `yaml:"endpoint"` // 为空表示没有可用的协作方
	Timeout  string `yaml:"timeout"`  // 请求超时，例如 "20s"
}

// TimeoutDuration 解析超时配置，非法或缺省时返回默认值
func (c LayoutAgentConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 20 * time.Second
	}
	return d
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	Format       string `yaml:"format"`        // json, pretty
	TimeFormat   string `yaml:"time_format"`   // 时间格式
	ReportCaller bool   `yaml:"report_caller"` // 是否报告调用位置
}

// DefaultConfig 返回内置默认配置
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: ":8000",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "pretty",
		},
		LayoutAgent: LayoutAgentConfig{
			Timeout: "20s",
		},
	}
}

// LoadConfig 从文件加载配置
// 未指定路径时依次尝试 CV_AGENT_CONFIG 环境变量和常见位置；
// 找不到配置文件不算错误，直接使用内置默认值
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = os.Getenv("CV_AGENT_CONFIG")
	}

	if configPath == "" {
		searchPaths := []string{
			"config.yaml",
			"./config.yaml",
			"../config.yaml",
		}

		// 可执行文件所在目录也找一遍
		if execPath, err := os.Executable(); err == nil {
			execDir := filepath.Dir(execPath)
			searchPaths = append(searchPaths,
				filepath.Join(execDir, "config.yaml"),
				filepath.Join(execDir, "..", "config.yaml"),
			)
		}

		for _, path := range searchPaths {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}
	}

	config := DefaultConfig()
	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	applyDefaults(config)
	return config, nil
}

// applyDefaults 补齐缺省字段
func applyDefaults(config *Config) {
	if config.Server.Address == "" {
		config.Server.Address = ":8000"
	}
	if config.Logger.Level == "" {
		config.Logger.Level = "info"
	}
	if config.Logger.Format == "" {
		config.Logger.Format = "pretty"
	}
	if config.LayoutAgent.Timeout == "" {
		config.LayoutAgent.Timeout = "20s"
	}
}
