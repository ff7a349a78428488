package query

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/kasuboski/imdbidx/pkg/scorer"
)

// IndexConfig is the persisted subset of build-time configuration every
// reader needs to stay consistent with how the index was built — above
// all, the n-gram size, since a query tokenized with a different size
// than the build would silently return nothing (§4.3).
type IndexConfig struct {
	NGramSize      int    `toml:"ngram_size"`
	BuildTimestamp string `toml:"build_timestamp"`
	SourceHash     string `toml:"source_dataset_hash"`
}

// QueryDefaults are the per-query knobs a caller may omit. Open starts
// from the documented defaults (§6); they are not persisted by the build,
// and a front-end may override them with SetDefaults from its own
// configuration layer before running a Query.
type QueryDefaults struct {
	Scorer           scorer.Name
	Similarity       string
	MinTokenOverlap  float64
	RerankTop        int
	SimilarityWeight float64
	ResultSize       int
}

// DefaultQueryDefaults matches spec §6's documented defaults exactly.
func DefaultQueryDefaults() QueryDefaults {
	return QueryDefaults{
		Scorer:           scorer.BM25,
		Similarity:       "levenshtein",
		MinTokenOverlap:  0.3,
		RerankTop:        50,
		SimilarityWeight: 0.5,
		ResultSize:       30,
	}
}

func readIndexConfig(dir string) (IndexConfig, error) {
	var cfg IndexConfig
	buf, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	if err != nil {
		return cfg, fmt.Errorf("query: read config.toml: %w", err)
	}
	if err := toml.Unmarshal(buf, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: config.toml: %v", ErrIndexFormat, err)
	}
	if cfg.NGramSize <= 0 {
		return cfg, fmt.Errorf("%w: config.toml: ngram_size must be positive", ErrIndexFormat)
	}
	return cfg, nil
}

// WriteIndexConfig writes dir's config.toml. Called once at the end of a
// successful build, before the READY marker.
func WriteIndexConfig(dir string, cfg IndexConfig) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("query: marshal config.toml: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "config.toml"), buf, 0o644)
}
