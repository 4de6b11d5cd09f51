// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

// 当前配置的单例实例
var (
	currentConfig *AppConfig
	configMutex   sync.RWMutex
	configFile    string
)

// AppConfig 包含应用程序的所有配置
type AppConfig struct {
	// 基础配置
	Port        string `json:"port"`
	DataDir     string `json:"data_dir"`
	ProjectsDir string `json:"projects_dir"`
	PromptsDir  string `json:"prompts_dir"`
	LogDir      string `json:"log_dir"`
	DebugMode   bool   `json:"debug_mode"`

	// LLM相关配置
	LLMProvider  string            `json:"llm_provider"`
	LLMConfig    map[string]string `json:"llm_config"`
	DefaultModel string            `json:"default_model"`
	Temperature  float64           `json:"temperature"`
}

// Config 存储从环境变量加载的基础配置
type Config struct {
	Port         string
	DataDir      string
	ProjectsDir  string
	PromptsDir   string
	LogDir       string
	DebugMode    bool
	GeminiAPIKey string
	OpenAIAPIKey string
	LLMProvider  string
	DefaultModel string
	Temperature  float64
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// 尝试加载.env文件（可选）
	godotenv.Load()

	dataDir := getEnvPath("DATA_DIR", "data")

	config := &Config{
		Port:         getEnv("PORT", "8080"),
		DataDir:      dataDir,
		ProjectsDir:  getEnvPath("PROJECTS_DIR", filepath.Join(dataDir, "projects")),
		PromptsDir:   getEnvPath("PROMPTS_DIR", filepath.Join(dataDir, "prompts")),
		LogDir:       getEnvPath("LOG_DIR", "logs"),
		DebugMode:    getEnvBool("DEBUG_MODE", true),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		LLMProvider:  getEnv("LLM_PROVIDER", "google"),
		DefaultModel: getEnv("DEFAULT_MODEL", "gemini-2.0-flash"),
		Temperature:  getEnvFloat("TEMPERATURE", 0.7),
	}

	if config.GeminiAPIKey == "" && config.OpenAIAPIKey == "" {
		// 只记录警告，不返回错误：读取状态等操作不需要生成能力
		log.Println("警告: 未设置GEMINI_API_KEY/OPENAI_API_KEY，需要生成的阶段将无法运行")
	}

	return config, nil
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvPath 获取环境变量表示的路径，如果不存在则返回默认值
func getEnvPath(key, defaultValue string) string {
	path := getEnv(key, defaultValue)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		err = os.MkdirAll(path, 0755)
		if err != nil {
			fmt.Printf("警告: 创建目录失败 %s: %v\n", path, err)
		}
	}

	return path
}

// getEnvBool 获取布尔类型环境变量
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}

// getEnvFloat 获取浮点类型环境变量
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// apiKeyFor 根据提供者选择对应的密钥
func apiKeyFor(provider string, cfg *Config) string {
	switch provider {
	case "openai":
		return cfg.OpenAIAPIKey
	default:
		return cfg.GeminiAPIKey
	}
}

// InitConfig 初始化配置管理器
func InitConfig(dataDir string) error {
	configFile = filepath.Join(dataDir, "config.json")

	baseConfig, err := Load()
	if err != nil {
		return err
	}

	configMutex.Lock()
	defer configMutex.Unlock()

	currentConfig = &AppConfig{
		Port:        baseConfig.Port,
		DataDir:     baseConfig.DataDir,
		ProjectsDir: baseConfig.ProjectsDir,
		PromptsDir:  baseConfig.PromptsDir,
		LogDir:      baseConfig.LogDir,
		DebugMode:   baseConfig.DebugMode,
		LLMProvider: baseConfig.LLMProvider,
		LLMConfig: map[string]string{
			"api_key":       apiKeyFor(baseConfig.LLMProvider, baseConfig),
			"default_model": baseConfig.DefaultModel,
		},
		DefaultModel: baseConfig.DefaultModel,
		Temperature:  baseConfig.Temperature,
	}

	// 尝试从文件加载已保存的配置
	if _, err := os.Stat(configFile); !os.IsNotExist(err) {
		data, err := os.ReadFile(configFile)
		if err == nil {
			var savedConfig AppConfig
			if json.Unmarshal(data, &savedConfig) == nil {
				// 合并配置：保留文件中的LLM设置，但路径类配置始终来自环境
				savedConfig.Port = baseConfig.Port
				savedConfig.DataDir = baseConfig.DataDir
				savedConfig.ProjectsDir = baseConfig.ProjectsDir
				savedConfig.PromptsDir = baseConfig.PromptsDir
				savedConfig.LogDir = baseConfig.LogDir
				savedConfig.DebugMode = baseConfig.DebugMode

				if savedConfig.LLMConfig != nil && savedConfig.LLMConfig["api_key"] == "" {
					savedConfig.LLMConfig["api_key"] = apiKeyFor(savedConfig.LLMProvider, baseConfig)
				}
				if savedConfig.Temperature == 0 {
					savedConfig.Temperature = baseConfig.Temperature
				}
				if savedConfig.DefaultModel == "" {
					savedConfig.DefaultModel = baseConfig.DefaultModel
				}

				currentConfig = &savedConfig
			}
		}
	}

	return SaveConfig()
}

// GetCurrentConfig 返回当前配置的副本
func GetCurrentConfig() *AppConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		baseConfig, _ := Load()
		return &AppConfig{
			Port:        baseConfig.Port,
			DataDir:     baseConfig.DataDir,
			ProjectsDir: baseConfig.ProjectsDir,
			PromptsDir:  baseConfig.PromptsDir,
			LogDir:      baseConfig.LogDir,
			DebugMode:   baseConfig.DebugMode,
			LLMProvider: baseConfig.LLMProvider,
			LLMConfig: map[string]string{
				"api_key":       apiKeyFor(baseConfig.LLMProvider, baseConfig),
				"default_model": baseConfig.DefaultModel,
			},
			DefaultModel: baseConfig.DefaultModel,
			Temperature:  baseConfig.Temperature,
		}
	}

	configCopy := *currentConfig
	return &configCopy
}

// UpdateLLMConfig 更新LLM配置
func UpdateLLMConfig(provider string, config map[string]string) error {
	configMutex.Lock()
	defer configMutex.Unlock()

	if currentConfig == nil {
		return fmt.Errorf("配置系统未初始化")
	}

	currentConfig.LLMProvider = provider
	currentConfig.LLMConfig = config

	return SaveConfig()
}

// SaveConfig 保存当前配置到文件
func SaveConfig() error {
	if currentConfig == nil {
		return fmt.Errorf("没有配置可保存")
	}

	dir := filepath.Dir(configFile)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建配置目录失败: %w", err)
		}
	}

	data, err := json.MarshalIndent(currentConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	return os.WriteFile(configFile, data, 0644)
}
