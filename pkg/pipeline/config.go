package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config contains the complete configuration for an embedding pipeline.
//
// It includes settings for:
//   - Serializer (grouped shuffle serialization)
//   - Vocabulary (frequency-ranked tokenization)
//   - Factorization (truncated SVD and sparse NMF)
//   - Trainer (embedding provider for vocabulary vectors)
//   - Store (optional embedding persistence)
//
// Example:
//
//	config := &pipeline.Config{
//	    Serializer: pipeline.SerializerConfig{NShuffles: 5},
//	    Vocabulary: pipeline.VocabularyConfig{Size: 10000},
//	    SVD:        pipeline.SVDConfig{Components: 64},
//	}
type Config struct {
	// Serializer contains grouped shuffle serializer settings.
	Serializer SerializerConfig `json:"serializer"`

	// Vocabulary contains vocabulary builder settings.
	Vocabulary VocabularyConfig `json:"vocabulary"`

	// SVD contains truncated SVD settings.
	SVD SVDConfig `json:"svd"`

	// SNMF contains sparse nonnegative matrix factorization settings.
	SNMF SNMFConfig `json:"snmf"`

	// Trainer contains embedding trainer configuration (optional).
	Trainer *TrainerConfig `json:"trainer,omitempty"`

	// Store contains embedding store configuration (optional).
	Store *StoreConfig `json:"store,omitempty"`
}

// SerializerConfig contains settings for the grouped shuffle serializer.
type SerializerConfig struct {
	// NShuffles is the total number of copies emitted per group: the
	// canonical copy plus NShuffles-1 shuffled repeats. Must be >= 1.
	NShuffles int `json:"n_shuffles"`

	// Seed optionally fixes the serializer's random source for
	// reproducible output. Zero means unseeded (the default behavior).
	Seed int64 `json:"seed,omitempty"`
}

// VocabularyConfig contains settings for the vocabulary builder.
type VocabularyConfig struct {
	// Size is the maximum number of retained vocabulary entries,
	// including the out-of-vocabulary marker at index 0. Must be >= 1.
	Size int `json:"size"`
}

// SVDConfig contains settings for the truncated SVD transform.
type SVDConfig struct {
	// Components is the number of singular components to retain.
	Components int `json:"components"`
}

// SNMFConfig contains settings for the sparse NMF transform.
type SNMFConfig struct {
	// Rank is the factorization rank (number of basis columns).
	Rank int `json:"rank"`

	// MaxIter is the maximum number of multiplicative update iterations.
	// Default: 200
	MaxIter int `json:"max_iter,omitempty"`

	// Tolerance is the relative residual at which updates stop early.
	// Default: 1e-4
	Tolerance float64 `json:"tolerance,omitempty"`
}

// TrainerConfig contains configuration for the embedding trainer.
//
// Supported providers: openai
type TrainerConfig struct {
	// Provider is the trainer provider name.
	Provider string `json:"provider"`

	// APIKey is the API key for the provider.
	APIKey string `json:"api_key"`

	// Model is the embedding model name (e.g. "text-embedding-3-small").
	Model string `json:"model"`

	// BaseURL is the base URL for the API (optional, uses provider default if empty).
	BaseURL string `json:"base_url,omitempty"`

	// Dimensions is the dimension of the embedding vectors.
	Dimensions int `json:"dimensions,omitempty"`
}

// StoreConfig contains configuration for the embedding store.
//
// Supported providers: sqlite, postgres
type StoreConfig struct {
	// Provider is the store provider name (sqlite, postgres).
	Provider string `json:"provider"`

	// Path is the database file path (sqlite only).
	Path string `json:"path,omitempty"`

	// Table is the table name used for embedding records.
	Table string `json:"table,omitempty"`

	// Host, Port, User, Password, DBName, SSLMode configure the
	// postgres connection (postgres only).
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	DBName   string `json:"db_name,omitempty"`
	SSLMode  string `json:"ssl_mode,omitempty"`
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Parses environment variables into a Config struct
//
// Supported environment variables:
//   - SERIALIZER_SHUFFLES, SERIALIZER_SEED
//   - VOCAB_SIZE
//   - SVD_COMPONENTS
//   - SNMF_RANK, SNMF_MAX_ITER, SNMF_TOLERANCE
//   - TRAINER_PROVIDER, TRAINER_API_KEY, TRAINER_MODEL, TRAINER_BASE_URL, TRAINER_DIMENSIONS
//   - STORE_PROVIDER (sqlite, postgres)
//   - SQLITE_PATH, STORE_TABLE
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD, POSTGRES_DATABASE, POSTGRES_SSLMODE
//
// Returns a Config instance, or an error if loading fails.
func LoadConfigFromEnv() (*Config, error) {
	envPath, found := FindEnvFile()
	if found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	shuffles, err := strconv.Atoi(getEnvOrDefault("SERIALIZER_SHUFFLES", "1"))
	if err != nil {
		return nil, NewPipelineError("LoadConfigFromEnv", fmt.Errorf("SERIALIZER_SHUFFLES: %w", err))
	}
	seed, _ := strconv.ParseInt(getEnvOrDefault("SERIALIZER_SEED", "0"), 10, 64)
	vocabSize, err := strconv.Atoi(getEnvOrDefault("VOCAB_SIZE", "10000"))
	if err != nil {
		return nil, NewPipelineError("LoadConfigFromEnv", fmt.Errorf("VOCAB_SIZE: %w", err))
	}
	components, _ := strconv.Atoi(getEnvOrDefault("SVD_COMPONENTS", "64"))
	rank, _ := strconv.Atoi(getEnvOrDefault("SNMF_RANK", "32"))
	maxIter, _ := strconv.Atoi(getEnvOrDefault("SNMF_MAX_ITER", "200"))
	tolerance, _ := strconv.ParseFloat(getEnvOrDefault("SNMF_TOLERANCE", "1e-4"), 64)

	config := &Config{
		Serializer: SerializerConfig{
			NShuffles: shuffles,
			Seed:      seed,
		},
		Vocabulary: VocabularyConfig{
			Size: vocabSize,
		},
		SVD: SVDConfig{
			Components: components,
		},
		SNMF: SNMFConfig{
			Rank:      rank,
			MaxIter:   maxIter,
			Tolerance: tolerance,
		},
	}

	if provider := os.Getenv("TRAINER_PROVIDER"); provider != "" {
		dims, _ := strconv.Atoi(getEnvOrDefault("TRAINER_DIMENSIONS", "1536"))
		config.Trainer = &TrainerConfig{
			Provider:   provider,
			APIKey:     os.Getenv("TRAINER_API_KEY"),
			Model:      getEnvOrDefault("TRAINER_MODEL", "text-embedding-3-small"),
			BaseURL:    os.Getenv("TRAINER_BASE_URL"),
			Dimensions: dims,
		}
	}

	switch provider := os.Getenv("STORE_PROVIDER"); provider {
	case "":
		// No store configured.
	case "sqlite":
		config.Store = &StoreConfig{
			Provider: provider,
			Path:     getEnvOrDefault("SQLITE_PATH", "./hidim.db"),
			Table:    getEnvOrDefault("STORE_TABLE", "embeddings"),
		}
	case "postgres":
		port, _ := strconv.Atoi(getEnvOrDefault("POSTGRES_PORT", "5432"))
		config.Store = &StoreConfig{
			Provider: provider,
			Table:    getEnvOrDefault("STORE_TABLE", "embeddings"),
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     port,
			User:     getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DBName:   getEnvOrDefault("POSTGRES_DATABASE", "hidim"),
			SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		}
	default:
		return nil, NewPipelineError("LoadConfigFromEnv",
			fmt.Errorf("%w: unknown store provider %q", ErrInvalidConfig, provider))
	}

	return config, nil
}

// LoadConfigFromEnvFile loads configuration from a specific .env file.
//
// Parameters:
//   - envPath: Path to the .env file
//
// Returns a Config instance, or an error if loading fails.
func LoadConfigFromEnvFile(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, NewPipelineError("LoadConfigFromEnvFile", err)
	}
	return LoadConfigFromEnv()
}

// LoadConfigFromJSON loads configuration from a JSON file.
//
// Parameters:
//   - path: Path to the JSON configuration file
//
// Returns a Config instance, or an error if loading or parsing fails.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewPipelineError("LoadConfigFromJSON", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, NewPipelineError("LoadConfigFromJSON", err)
	}

	return &config, nil
}

// Validate validates the configuration.
//
// Checks that all required fields are in range:
//   - Serializer.NShuffles must be >= 1
//   - Vocabulary.Size must be >= 1
//   - SVD.Components and SNMF.Rank must be >= 1 when set
//   - Store.Provider must name a known provider when a store is configured
//
// Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.Serializer.NShuffles < 1 {
		return NewPipelineError("Validate", fmt.Errorf("%w: n_shuffles must be >= 1", ErrInvalidConfig))
	}
	if c.Vocabulary.Size < 1 {
		return NewPipelineError("Validate", fmt.Errorf("%w: vocabulary size must be >= 1", ErrInvalidConfig))
	}
	if c.SVD.Components < 1 {
		return NewPipelineError("Validate", fmt.Errorf("%w: svd components must be >= 1", ErrInvalidConfig))
	}
	if c.SNMF.Rank < 1 {
		return NewPipelineError("Validate", fmt.Errorf("%w: snmf rank must be >= 1", ErrInvalidConfig))
	}
	if c.Store != nil && c.Store.Provider != "sqlite" && c.Store.Provider != "postgres" {
		return NewPipelineError("Validate", fmt.Errorf("%w: unknown store provider %q", ErrInvalidConfig, c.Store.Provider))
	}
	return nil
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FindEnvFile searches for .env or .env.example files.
//
// The search:
//  1. Checks the current directory
//  2. Searches up to 5 directory levels up
//  3. Returns the first .env or .env.example file found
//
// Returns:
//   - path: Path to the found file (empty if not found)
//   - found: True if a file was found, false otherwise
func FindEnvFile() (string, bool) {
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		envExamplePath := filepath.Join(dir, ".env.example")

		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		if _, err := os.Stat(envExamplePath); err == nil {
			return envExamplePath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}
