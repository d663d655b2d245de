package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestApplyEnv(t *testing.T) {
	s := Default()
	s.applyEnv(envOf(map[string]string{
		"EMBEDDING_PROVIDER": "openai",
		"OPENAI_API_KEY":     "sk-test",
		"LLM_PROVIDER":       "claude",
		"ANTHROPIC_API_KEY":  "ant-test",
		"CORPUS_CAPACITY":    "3",
		"CONVERSATION_SIZE":  "not-a-number",
		"NO_AUTH":            "true",
		"GITHUB_TOKEN":       "ghp-test",
	}))

	assert.Equal(t, "openai", s.Embedding.Provider)
	assert.Equal(t, "sk-test", s.Embedding.APIKey)
	assert.Equal(t, "ant-test", s.LLM.APIKey)
	assert.Equal(t, 3, s.Corpus.Capacity)
	assert.Equal(t, DefaultConversationSize, s.Corpus.ConversationSize, "unparsable values keep the default")
	assert.True(t, s.Service.NoAuthBypass)
	assert.Equal(t, "ghp-test", s.Tools.GithubToken)
}

func TestApplyEnv_GeminiKeyFallback(t *testing.T) {
	s := Default()
	s.applyEnv(envOf(map[string]string{"GEMINI_API_KEY": "g-key"}))
	assert.Equal(t, "g-key", s.Embedding.APIKey)
	assert.Equal(t, "g-key", s.LLM.APIKey)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())

	tests := []struct {
		name   string
		mutate func(s *Settings)
	}{
		{"zero dimension", func(s *Settings) { s.Embedding.Dimension = 0 }},
		{"negative capacity", func(s *Settings) { s.Corpus.Capacity = -1 }},
		{"zero window", func(s *Settings) { s.Corpus.ConversationSize = 0 }},
		{"compaction ratio of one", func(s *Settings) { s.Corpus.CompactionRatio = 1 }},
		{"zero k", func(s *Settings) { s.Corpus.CrossDocK = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
embedding:
  provider: local
  dimension: 128
corpus:
  capacity: 4
  vector_backend: qdrant
service:
  ask_timeout: 15s
`), 0o644))
	t.Setenv("CORPUS_CAPACITY", "6")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "local", s.Embedding.Provider)
	assert.Equal(t, 128, s.Embedding.Dimension)
	assert.Equal(t, 6, s.Corpus.Capacity)
	assert.Equal(t, "qdrant", s.Corpus.VectorBackend)
	assert.Equal(t, 15*time.Second, s.Service.AskTimeout)
	assert.Equal(t, DefaultCrossDocK, s.Corpus.CrossDocK)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultCapacity, s.Corpus.Capacity)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("corpus: [unclosed"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("corpus:\n  conversation_size: -2\n"), 0o644))
	_, err = Load(invalid)
	assert.Error(t, err)
}
