// Package config loads process configuration from config.yaml plus
// environment overrides, the way WeKnora's internal/config wires viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DatabaseConfig configures the relational store pool (§5: min 1, max 10).
type DatabaseConfig struct {
	URL             string `mapstructure:"url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	AcquireTimeoutS int    `mapstructure:"acquire_timeout_seconds"`
}

// VectorStoreConfig configures the qdrant gateway.
type VectorStoreConfig struct {
	URL                string `mapstructure:"url"`
	APIKey             string `mapstructure:"api_key"`
	CollectionBaseName string `mapstructure:"collection_base_name"`
}

// RedisConfig configures the session/memory cache.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// EmbeddingConfig selects and configures C1.
type EmbeddingConfig struct {
	Source     string `mapstructure:"source"` // "hosted" | "local"
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	ModelName  string `mapstructure:"model_name"`
	Dimensions int    `mapstructure:"dimensions"`
}

// LLMProviderConfig is one rung of the fallback ladder (§4.12).
type LLMProviderConfig struct {
	Name    string `mapstructure:"name"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// IngestionConfig tunes the document ingestion pipeline (§4.7).
type IngestionConfig struct {
	WorkerPoolSize    int     `mapstructure:"worker_pool_size"`
	MaxChunksPerFile  int     `mapstructure:"max_chunks_per_file"`
	StrictQuality     bool    `mapstructure:"strict_quality"`
	QualityFloor      float64 `mapstructure:"quality_floor"`
	KGChunksPerDoc    int     `mapstructure:"kg_chunks_per_doc"`
	HydeQuestionCount int     `mapstructure:"hyde_question_count"`
}

// RetrievalConfig tunes C10.
type RetrievalConfig struct {
	DefaultLimit    int  `mapstructure:"default_limit"`
	RerankEnabled   bool `mapstructure:"rerank_enabled"`
	RerankMultiple  int  `mapstructure:"rerank_multiple"`
}

// GoldenConfig tunes C9.
type GoldenConfig struct {
	SemanticThreshold float64 `mapstructure:"semantic_threshold"`
}

// ConversationConfig tunes session/memory bookkeeping.
type ConversationConfig struct {
	MaxRounds     int `mapstructure:"max_rounds"`
	SessionTTLSec int `mapstructure:"session_ttl_seconds"`
	MemoryTTLSec  int `mapstructure:"memory_ttl_seconds"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// Config is the root process configuration.
type Config struct {
	Server       ServerConfig        `mapstructure:"server"`
	Database     DatabaseConfig      `mapstructure:"database"`
	VectorStore  VectorStoreConfig   `mapstructure:"vector_store"`
	Redis        RedisConfig         `mapstructure:"redis"`
	Embedding    EmbeddingConfig     `mapstructure:"embedding"`
	LLMProviders []LLMProviderConfig `mapstructure:"llm_providers"`
	Ingestion    IngestionConfig     `mapstructure:"ingestion"`
	Retrieval    RetrievalConfig     `mapstructure:"retrieval"`
	Golden       GoldenConfig        `mapstructure:"golden"`
	Conversation ConversationConfig  `mapstructure:"conversation"`
	RequestDeadlineSec int           `mapstructure:"request_deadline_seconds"`
}

// Load reads config.yaml (if present) from configPath, then applies
// environment overrides (AYO_DATABASE_URL, AYO_VECTOR_STORE_URL, ...).
// Missing keys never abort startup — providers simply report themselves
// unavailable later (§6 "Missing keys downgrade capability but never
// crash startup").
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetEnvPrefix("AYO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.acquire_timeout_seconds", 5)
	v.SetDefault("vector_store.collection_base_name", "zantara")
	v.SetDefault("embedding.source", "hosted")
	v.SetDefault("embedding.dimensions", 1536)
	v.SetDefault("ingestion.worker_pool_size", 4)
	v.SetDefault("ingestion.max_chunks_per_file", 300)
	v.SetDefault("ingestion.strict_quality", true)
	v.SetDefault("ingestion.quality_floor", 0.3)
	v.SetDefault("ingestion.kg_chunks_per_doc", 2)
	v.SetDefault("ingestion.hyde_question_count", 3)
	v.SetDefault("retrieval.default_limit", 10)
	v.SetDefault("retrieval.rerank_enabled", false)
	v.SetDefault("retrieval.rerank_multiple", 3)
	v.SetDefault("golden.semantic_threshold", 0.85)
	v.SetDefault("conversation.max_rounds", 10)
	v.SetDefault("conversation.session_ttl_seconds", 86400)
	v.SetDefault("conversation.memory_ttl_seconds", 3600)
	v.SetDefault("request_deadline_seconds", 60)
}
