package utils

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	Training TrainingConfig `yaml:"training" json:"training"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host         string `yaml:"host" json:"host"`
	Port         int    `yaml:"port" json:"port"`
	ReadTimeout  int    `yaml:"read_timeout" json:"read_timeout"`   // seconds
	WriteTimeout int    `yaml:"write_timeout" json:"write_timeout"` // seconds
	EnableCORS   bool   `yaml:"enable_cors" json:"enable_cors"`
	MaxBodyBytes int64  `yaml:"max_body_bytes" json:"max_body_bytes"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format   string `yaml:"format" json:"format"` // json, text
	Output   string `yaml:"output" json:"output"` // stdout, file, both
	FilePath string `yaml:"file_path" json:"file_path"`
}

// StorageConfig holds dataset/run store configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path" json:"database_path"`
}

// TrainingConfig holds default knobs for model training requests
type TrainingConfig struct {
	TestFraction  float64  `yaml:"test_fraction" json:"test_fraction"`
	RandomSeed    int64    `yaml:"random_seed" json:"random_seed"`
	DefaultModels []string `yaml:"default_models" json:"default_models"`
}

// ConfigManager manages application configuration
type ConfigManager struct {
	config     *Config
	configPath string
	mutex      sync.RWMutex
}

// NewConfigManager creates a new configuration manager
func NewConfigManager() *ConfigManager {
	return &ConfigManager{config: getDefaultConfig()}
}

// LoadFromFile loads configuration from a YAML file
func (cm *ConfigManager) LoadFromFile(configPath string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var newConfig Config
	if err := yaml.Unmarshal(data, &newConfig); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}

	merged := mergeWithDefaults(&newConfig)
	if err := validateConfig(merged); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cm.config = merged
	cm.configPath = configPath
	return nil
}

// LoadFromEnvironment overrides configuration from environment variables
func (cm *ConfigManager) LoadFromEnvironment() error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if host := os.Getenv("AETHER_HOST"); host != "" {
		cm.config.Server.Host = host
	}
	if port := os.Getenv("AETHER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cm.config.Server.Port = p
		}
	}
	if logLevel := os.Getenv("AETHER_LOG_LEVEL"); logLevel != "" {
		cm.config.Logging.Level = logLevel
	}
	if dbPath := os.Getenv("AETHER_DB_PATH"); dbPath != "" {
		cm.config.Storage.DatabasePath = dbPath
	}
	return nil
}

// GetConfig returns the current configuration
func (cm *ConfigManager) GetConfig() *Config {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	// Return a copy to prevent external modifications
	configCopy := *cm.config
	return &configCopy
}

// GetConfigPath returns the current configuration file path
func (cm *ConfigManager) GetConfigPath() string {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return cm.configPath
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 120,
			EnableCORS:   true,
			MaxBodyBytes: 64 << 20,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Output:   "stdout",
			FilePath: "./logs/aether.log",
		},
		Storage: StorageConfig{
			DatabasePath: "./data/aether.db",
		},
		Training: TrainingConfig{
			TestFraction: 0.2,
			RandomSeed:   42,
			DefaultModels: []string{
				"logistic_regression", "linear_regression",
				"decision_tree", "random_forest",
			},
		},
	}
}

// mergeWithDefaults merges user config with defaults
func mergeWithDefaults(userConfig *Config) *Config {
	merged := *getDefaultConfig()

	if userConfig.Server.Host != "" {
		merged.Server.Host = userConfig.Server.Host
	}
	if userConfig.Server.Port != 0 {
		merged.Server.Port = userConfig.Server.Port
	}
	if userConfig.Server.ReadTimeout != 0 {
		merged.Server.ReadTimeout = userConfig.Server.ReadTimeout
	}
	if userConfig.Server.WriteTimeout != 0 {
		merged.Server.WriteTimeout = userConfig.Server.WriteTimeout
	}
	if userConfig.Server.MaxBodyBytes != 0 {
		merged.Server.MaxBodyBytes = userConfig.Server.MaxBodyBytes
	}
	merged.Server.EnableCORS = userConfig.Server.EnableCORS

	if userConfig.Logging.Level != "" {
		merged.Logging.Level = userConfig.Logging.Level
	}
	if userConfig.Logging.Format != "" {
		merged.Logging.Format = userConfig.Logging.Format
	}
	if userConfig.Logging.Output != "" {
		merged.Logging.Output = userConfig.Logging.Output
	}
	if userConfig.Logging.FilePath != "" {
		merged.Logging.FilePath = userConfig.Logging.FilePath
	}

	if userConfig.Storage.DatabasePath != "" {
		merged.Storage.DatabasePath = userConfig.Storage.DatabasePath
	}

	if userConfig.Training.TestFraction != 0 {
		merged.Training.TestFraction = userConfig.Training.TestFraction
	}
	if userConfig.Training.RandomSeed != 0 {
		merged.Training.RandomSeed = userConfig.Training.RandomSeed
	}
	if len(userConfig.Training.DefaultModels) > 0 {
		merged.Training.DefaultModels = userConfig.Training.DefaultModels
	}

	return &merged
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, config.Logging.Level) {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, config.Logging.Format) {
		return fmt.Errorf("invalid log format: %s", config.Logging.Format)
	}

	validOutputs := []string{"stdout", "file", "both"}
	if !contains(validOutputs, config.Logging.Output) {
		return fmt.Errorf("invalid log output: %s", config.Logging.Output)
	}

	if config.Training.TestFraction <= 0 || config.Training.TestFraction >= 1 {
		return fmt.Errorf("invalid test fraction: %g", config.Training.TestFraction)
	}

	return nil
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// Global configuration manager instance
var globalConfigManager *ConfigManager
var configOnce sync.Once

// GetConfigManager returns the global configuration manager instance
func GetConfigManager() *ConfigManager {
	configOnce.Do(func() {
		globalConfigManager = NewConfigManager()
	})
	return globalConfigManager
}

// LoadGlobalConfig loads configuration from default locations
func LoadGlobalConfig() error {
	cm := GetConfigManager()

	configPaths := []string{
		"./config.yaml",
		"./config.yml",
		"./aether.yaml",
		"./aether.yml",
		"/etc/aether/config.yaml",
	}
	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := cm.LoadFromFile(path); err == nil {
				break
			}
		}
	}

	// Environment variables override file config
	return cm.LoadFromEnvironment()
}
