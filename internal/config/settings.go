package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type EmbeddingSettings struct {
	Provider  string `yaml:"provider"` // google | openai | local
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	APIKey    string `yaml:"-"`
}

type LLMSettings struct {
	Provider           string  `yaml:"provider"` // gemini | openai | claude | none
	Model              string  `yaml:"model"`
	AnswerTemperature  float64 `yaml:"answer_temperature"`
	ExtractTemperature float64 `yaml:"extract_temperature"`
	APIKey             string  `yaml:"-"`
}

type CorpusSettings struct {
	Capacity          int     `yaml:"capacity"`
	ConversationSize  int     `yaml:"conversation_size"`
	SingleDocK        int     `yaml:"single_doc_k"`
	CrossDocK         int     `yaml:"cross_doc_k"`
	ChunksPerDocument int     `yaml:"chunks_per_document"`
	ChunkFloor        int     `yaml:"chunk_floor"`
	ChunkCeiling      int     `yaml:"chunk_ceiling"`
	ChunkOverlap      int     `yaml:"chunk_overlap"`
	CompactionRatio   float64 `yaml:"compaction_ratio"`
	VectorBackend     string  `yaml:"vector_backend"` // memory | qdrant
	BaseIndexDir      string  `yaml:"base_index_dir"`
}

type ServiceSettings struct {
	ListenAddr    string        `yaml:"listen_addr"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"-"`
	QdrantHost    string        `yaml:"qdrant_host"`
	QdrantPort    int           `yaml:"qdrant_port"`
	AuthToken     string        `yaml:"-"`
	NoAuthBypass  bool          `yaml:"no_auth"`
	AskTimeout    time.Duration `yaml:"ask_timeout"`
	IngestTimeout time.Duration `yaml:"ingest_timeout"`
}

type ToolSettings struct {
	TavilyAPIKey string `yaml:"-"`
	GithubToken  string `yaml:"-"`
}

// Settings is the runtime configuration. Defaults come from the constants in
// this package, then an optional YAML file, then the environment.
type Settings struct {
	Embedding EmbeddingSettings `yaml:"embedding"`
	LLM       LLMSettings       `yaml:"llm"`
	Corpus    CorpusSettings    `yaml:"corpus"`
	Service   ServiceSettings   `yaml:"service"`
	Tools     ToolSettings      `yaml:"-"`
}

var current = Default()

func Default() Settings {
	return Settings{
		Embedding: EmbeddingSettings{
			Provider:  "google",
			Model:     GoogleEmbeddingModel,
			Dimension: int(EmbeddingOutputDimensionality),
		},
		LLM: LLMSettings{
			Provider:           "gemini",
			Model:              GeminiModelName,
			AnswerTemperature:  AnswerTemperature,
			ExtractTemperature: ExtractTemperature,
		},
		Corpus: CorpusSettings{
			Capacity:          DefaultCapacity,
			ConversationSize:  DefaultConversationSize,
			SingleDocK:        DefaultSingleDocK,
			CrossDocK:         DefaultCrossDocK,
			ChunksPerDocument: DefaultChunksPerDocument,
			ChunkFloor:        DefaultChunkFloor,
			ChunkCeiling:      DefaultChunkCeiling,
			ChunkOverlap:      DefaultChunkOverlap,
			CompactionRatio:   DefaultCompactionRatio,
			VectorBackend:     "memory",
			BaseIndexDir:      BaseIndexDir,
		},
		Service: ServiceSettings{
			ListenAddr:    ServerListenAddr,
			RedisAddr:     RedisAddr,
			QdrantHost:    QdrantHost,
			QdrantPort:    QdrantGrpcPort,
			AskTimeout:    AskTimeout,
			IngestTimeout: IngestTimeout,
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty or missing)
// and applies environment overrides on top.
func Load(path string) (Settings, error) {
	s := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return s, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &s); err != nil {
				return s, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	s.applyEnv(os.Getenv)
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func (s *Settings) applyEnv(getenv func(string) string) {
	setString := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) {
		if v, err := strconv.Atoi(getenv(key)); err == nil {
			*dst = v
		}
	}

	setString(&s.Embedding.Provider, "EMBEDDING_PROVIDER")
	setString(&s.Embedding.Model, "EMBEDDING_MODEL")
	setInt(&s.Embedding.Dimension, "EMBEDDING_DIMENSION")
	setString(&s.LLM.Provider, "LLM_PROVIDER")
	setString(&s.LLM.Model, "LLM_MODEL")
	setInt(&s.Corpus.Capacity, "CORPUS_CAPACITY")
	setInt(&s.Corpus.ConversationSize, "CONVERSATION_SIZE")
	setString(&s.Corpus.VectorBackend, "VECTOR_BACKEND")
	setString(&s.Corpus.BaseIndexDir, "BASE_INDEX_DIR")
	setString(&s.Service.ListenAddr, "LISTEN_ADDR")
	setString(&s.Service.RedisAddr, "REDIS_ADDR")
	setString(&s.Service.RedisPassword, "REDIS_PASSWORD")
	setString(&s.Service.QdrantHost, "QDRANT_HOST")
	setInt(&s.Service.QdrantPort, "QDRANT_PORT")
	setString(&s.Service.AuthToken, "AUTH_TOKEN")
	if v, err := strconv.ParseBool(getenv("NO_AUTH")); err == nil {
		s.Service.NoAuthBypass = v
	}
	setString(&s.Tools.TavilyAPIKey, "TAVILY_API_KEY")
	setString(&s.Tools.GithubToken, "GITHUB_TOKEN")

	switch strings.ToLower(s.Embedding.Provider) {
	case "google":
		s.Embedding.APIKey = firstNonEmpty(getenv("GOOGLE_API_KEY"), getenv("GEMINI_API_KEY"))
	case "openai":
		s.Embedding.APIKey = getenv("OPENAI_API_KEY")
	}
	switch strings.ToLower(s.LLM.Provider) {
	case "gemini":
		s.LLM.APIKey = firstNonEmpty(getenv("GOOGLE_API_KEY"), getenv("GEMINI_API_KEY"))
	case "openai":
		s.LLM.APIKey = getenv("OPENAI_API_KEY")
	case "claude":
		s.LLM.APIKey = getenv("ANTHROPIC_API_KEY")
	}
}

func (s Settings) Validate() error {
	if s.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", s.Embedding.Dimension)
	}
	if s.Corpus.Capacity < 0 {
		return fmt.Errorf("corpus capacity must not be negative, got %d", s.Corpus.Capacity)
	}
	if s.Corpus.ConversationSize <= 0 {
		return fmt.Errorf("conversation size must be positive, got %d", s.Corpus.ConversationSize)
	}
	if s.Corpus.CompactionRatio <= 0 || s.Corpus.CompactionRatio >= 1 {
		return fmt.Errorf("compaction ratio must be in (0,1), got %v", s.Corpus.CompactionRatio)
	}
	if s.Corpus.SingleDocK <= 0 || s.Corpus.CrossDocK <= 0 || s.Corpus.ChunksPerDocument <= 0 {
		return errors.New("k values must be positive")
	}
	return nil
}

// Set replaces the process-wide settings. Called once from main.
func Set(s Settings) { current = s }

// Current returns the process-wide settings.
func Current() Settings { return current }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
