package configs

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// 基础配置
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"` // HTTP监听地址
	CacheTTL   string `json:"cache_ttl" yaml:"cache_ttl"`     // 扫描结果缓存时长

	Database Database `json:"database" yaml:"database"`
	Redis    Redis    `json:"redis" yaml:"redis"`

	// 数据源配置
	Providers Providers `json:"providers" yaml:"providers"`

	// AI 模型参数
	AIConfig AIConfig `json:"ai_config" yaml:"ai_config"`

	// 评分引擎参数
	Engine Engine `json:"engine" yaml:"engine"`
}

type Providers struct {
	MobulaAPIKey     string `json:"mobula_api_key" yaml:"mobula_api_key"`
	CMCAPIKey        string `json:"cmc_api_key" yaml:"cmc_api_key"`
	MoralisAPIKey    string `json:"moralis_api_key" yaml:"moralis_api_key"`
	GoPlusAPIKey     string `json:"goplus_api_key" yaml:"goplus_api_key"`
	HeliusAPIKey     string `json:"helius_api_key" yaml:"helius_api_key"`
	BlockfrostAPIKey string `json:"blockfrost_api_key" yaml:"blockfrost_api_key"`
	BinanceAPIKey    string `json:"binance_api_key" yaml:"binance_api_key"`
	BinanceSecret    string `json:"binance_secret" yaml:"binance_secret"`
}

type AIConfig struct {
	APIKey        string  `json:"api_key" yaml:"api_key"`               // AI服务API密钥
	BaseURL       string  `json:"base_url" yaml:"base_url"`             // OpenAI兼容端点
	ModelType     string  `json:"model_type" yaml:"model_type"`         // 模型名称
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"` // 分类最小置信度
}

// Engine holds scoring feature toggles. Passed to constructors; the
// engine itself keeps no mutable package state.
type Engine struct {
	UseAdaptiveWeights     bool `json:"use_adaptive_weights" yaml:"use_adaptive_weights"`
	EnableAIClassification bool `json:"enable_ai_classification" yaml:"enable_ai_classification"`
	EnableOfficialResolver bool `json:"enable_official_resolver" yaml:"enable_official_resolver"`
}

type Database struct {
	ConnStr string `json:"conn_str" yaml:"conn_str"` // 数据库连接字符串
}

type Redis struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

// Load reads a YAML config file and overlays environment variables so
// secrets never need to live on disk.
func Load(path string) (*Config, error) {
	cfg := &Config{
		ListenAddr: ":8080",
		CacheTTL:   "30m",
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overlay(&c.ListenAddr, "LISTEN_ADDR")
	overlay(&c.Database.ConnStr, "DATABASE_URL")
	overlay(&c.Redis.Addr, "REDIS_ADDR")
	overlay(&c.Redis.Password, "REDIS_PASSWORD")
	overlay(&c.Providers.MobulaAPIKey, "MOBULA_API_KEY")
	overlay(&c.Providers.CMCAPIKey, "CMC_API_KEY")
	overlay(&c.Providers.MoralisAPIKey, "MORALIS_API_KEY")
	overlay(&c.Providers.GoPlusAPIKey, "GOPLUS_API_KEY")
	overlay(&c.Providers.HeliusAPIKey, "HELIUS_API_KEY")
	overlay(&c.Providers.BlockfrostAPIKey, "BLOCKFROST_API_KEY")
	overlay(&c.Providers.BinanceAPIKey, "BINANCE_API_KEY")
	overlay(&c.Providers.BinanceSecret, "BINANCE_SECRET")
	overlay(&c.AIConfig.APIKey, "GROQ_API_KEY")
	overlay(&c.AIConfig.BaseURL, "GROQ_BASE_URL")
}

func overlay(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
