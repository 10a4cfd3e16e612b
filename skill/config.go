package skill

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/meepi-labs/neartotalrecall/host"
	"github.com/meepi-labs/neartotalrecall/logging"
	"github.com/meepi-labs/neartotalrecall/memory"
	"github.com/meepi-labs/neartotalrecall/memory/embedder/minilm"
	"github.com/meepi-labs/neartotalrecall/memory/embedder/mock"
)

// Settings keys. Data artifact paths and tuning parameters live in the
// host's flat settings store.
const (
	SettingCleanedDataPath  = "cleaned_data_path"
	SettingEmbeddingsPath   = "embeddings_path"
	SettingOriginalDataPath = "original_data_path"
	SettingTopN             = "top_n"
	SettingThreshold        = "similarity_threshold"
	SettingModelName        = "model_name"
	SettingModelsPath       = "models_path"
	SettingLibraryPath      = "onnx_library_path"
	SettingEmbeddingCache   = "embedding_cache"
)

// ModelMock selects the deterministic hash embedder instead of a real model.
const ModelMock = "mock"

const (
	defaultTopN      = 5
	defaultThreshold = "0.5"
	defaultModelName = "all-MiniLM-L6-v2"

	embeddingCacheEntries = 1024
)

// DefaultSettings returns the settings merged into the host store on first
// run (new keys only, so user edits stick).
func DefaultSettings() map[string]string {
	return map[string]string{
		SettingCleanedDataPath:  "/path/to/cleaned_memories.csv",
		SettingEmbeddingsPath:   "/path/to/memory_embeddings.npy",
		SettingOriginalDataPath: "/path/to/MeePiMemories.csv",
		SettingTopN:             strconv.Itoa(defaultTopN),
		SettingThreshold:        defaultThreshold,
		SettingModelName:        defaultModelName,
		SettingModelsPath:       "",
		SettingLibraryPath:      "",
		SettingEmbeddingCache:   "true",
	}
}

// Config is the typed view of the skill settings.
type Config struct {
	CleanedDataPath  string
	EmbeddingsPath   string
	OriginalDataPath string
	TopN             int
	Threshold        float32
	ModelName        string
	ModelsPath       string
	LibraryPath      string
	EmbeddingCache   bool
}

// readConfig pulls the typed config out of settings. Missing or invalid
// values fall back to the defaults with a warning; they never fail.
func readConfig(settings host.Settings, log logging.Logger) Config {
	get := func(key string) string {
		v, _ := settings.Get(key)
		return v
	}

	cfg := Config{
		CleanedDataPath:  get(SettingCleanedDataPath),
		EmbeddingsPath:   get(SettingEmbeddingsPath),
		OriginalDataPath: get(SettingOriginalDataPath),
		ModelName:        get(SettingModelName),
		ModelsPath:       get(SettingModelsPath),
		LibraryPath:      get(SettingLibraryPath),
		TopN:             defaultTopN,
		Threshold:        0.5,
		EmbeddingCache:   true,
	}
	if cfg.ModelName == "" {
		cfg.ModelName = defaultModelName
	}

	if raw := get(SettingTopN); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.TopN = n
		} else {
			log.Warn("invalid top_n setting, using default", "value", raw, "default", cfg.TopN)
		}
	}
	if raw := get(SettingThreshold); raw != "" {
		if f, err := strconv.ParseFloat(raw, 32); err == nil && f >= 0 {
			cfg.Threshold = float32(f)
		} else {
			log.Warn("invalid similarity_threshold setting, using default", "value", raw, "default", cfg.Threshold)
		}
	}
	if raw := get(SettingEmbeddingCache); raw != "" {
		if b, err := strconv.ParseBool(raw); err == nil {
			cfg.EmbeddingCache = b
		} else {
			log.Warn("invalid embedding_cache setting, using default", "value", raw, "default", cfg.EmbeddingCache)
		}
	}
	return cfg
}

// loadModel resolves the configured model name to an embedder. ModelMock
// selects the hash embedder; anything else loads
// <models_path>/<model_name>/model.onnx and its tokenizer.json.
func loadModel(cfg Config) (memory.Embedder, error) {
	if cfg.ModelName == ModelMock {
		return mock.New(), nil
	}

	dir := cfg.ModelsPath
	if dir == "" {
		dir = defaultModelsPath()
	}
	base := filepath.Join(dir, cfg.ModelName)
	embedder, err := minilm.New(minilm.Config{
		ModelPath:     filepath.Join(base, "model.onnx"),
		TokenizerPath: filepath.Join(base, "tokenizer.json"),
		LibraryPath:   cfg.LibraryPath,
	})
	if err != nil {
		return nil, err
	}
	return embedder, nil
}

// defaultModelsPath is where models are unpacked when models_path is unset.
func defaultModelsPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "neartotalrecall", "models")
	}
	return "models"
}
