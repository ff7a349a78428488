package config

import (
	"github.com/spf13/viper"

	"github.com/kasuboski/imdbidx/pkg/scorer"
)

// Config is the front-end's configuration surface, covering both ingest
// source locations and the query defaults a Search request falls back to
// when a flag or request field is left unset.
type Config struct {
	Source Source `json:"source" yaml:"source" mapstructure:"source"`
	Index  Index  `json:"index" yaml:"index" mapstructure:"index"`
	NGram  NGram  `json:"ngram" yaml:"ngram" mapstructure:"ngram"`
	Query  Query  `json:"query" yaml:"query" mapstructure:"query"`
}

// Source locates the IMDb TSV dumps an ingest run reads.
type Source struct {
	Titles   string `json:"titles" yaml:"titles" mapstructure:"titles"`
	Episodes string `json:"episodes" yaml:"episodes" mapstructure:"episodes"`
	Akas     string `json:"akas" yaml:"akas" mapstructure:"akas"`
	Ratings  string `json:"ratings" yaml:"ratings" mapstructure:"ratings"`
}

// Index locates the on-disk index directory and bounds the build's
// external sort.
type Index struct {
	Dir           string `json:"dir" yaml:"dir" mapstructure:"dir"`
	SpillBudgetMB int    `json:"spill_budget_mb" yaml:"spill_budget_mb" mapstructure:"spill_budget_mb"`
}

// NGram configures the tokenizer's shingle size, the one build-time
// parameter a query must match exactly (§4.3).
type NGram struct {
	Size int `json:"size" yaml:"size" mapstructure:"size"`
}

// Query holds the per-request defaults (§6) a caller may still override
// per-Query.
type Query struct {
	Scorer           string  `json:"scorer" yaml:"scorer" mapstructure:"scorer"`
	Similarity       string  `json:"similarity" yaml:"similarity" mapstructure:"similarity"`
	MinTokenOverlap  float64 `json:"min_token_overlap" yaml:"min_token_overlap" mapstructure:"min_token_overlap"`
	RerankTop        int     `json:"rerank_top" yaml:"rerank_top" mapstructure:"rerank_top"`
	SimilarityWeight float64 `json:"similarity_weight" yaml:"similarity_weight" mapstructure:"similarity_weight"`
	ResultSize       int     `json:"result_size" yaml:"result_size" mapstructure:"result_size"`
}

// ScorerName converts the configured scorer string into a scorer.Name,
// falling back to scorer.BM25 when unset.
func (q Query) ScorerName() scorer.Name {
	if q.Scorer == "" {
		return scorer.BM25
	}
	return scorer.Name(q.Scorer)
}

type ConfigUnmarshaler interface {
	ReadInConfig() error
	Unmarshal(any, ...viper.DecoderConfigOption) error
	ConfigFileUsed() string
}

// New reads a new configuration
func New(cu ConfigUnmarshaler) (Config, error) {
	var c Config

	if cu.ConfigFileUsed() != "" {
		err := cu.ReadInConfig()
		if err != nil {
			return c, err
		}
	}

	err := cu.Unmarshal(&c)
	return c, err
}
