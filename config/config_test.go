package config

import (
	"errors"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuboski/imdbidx/pkg/scorer"
)

type failingUnmarshaler struct {
	configFile string
	readErr    error
}

func (f failingUnmarshaler) ConfigFileUsed() string { return f.configFile }
func (f failingUnmarshaler) ReadInConfig() error    { return f.readErr }
func (f failingUnmarshaler) Unmarshal(any, ...viper.DecoderConfigOption) error {
	return errors.New("unmarshal should not be reached")
}

func TestNewPropagatesReadInConfigError(t *testing.T) {
	wantErr := errors.New("boom")
	cu := failingUnmarshaler{configFile: "fake-config.toml", readErr: wantErr}

	c, err := New(cu)
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, Config{}, c)
}

func TestNewWithoutConfigFileUsesDefaults(t *testing.T) {
	v := viper.New()
	v.SetConfigFile("")
	v.SetDefault("ngram.size", 3)
	v.SetDefault("query.scorer", "okapi-bm25")
	v.SetDefault("query.similarity", "levenshtein")
	v.SetDefault("query.min_token_overlap", 0.3)
	v.SetDefault("query.rerank_top", 50)
	v.SetDefault("query.similarity_weight", 0.5)
	v.SetDefault("query.result_size", 30)
	v.SetDefault("index.dir", "/var/lib/imdbidx")
	v.SetDefault("index.spill_budget_mb", 128)

	c, err := New(v)
	require.NoError(t, err)

	assert.Equal(t, 3, c.NGram.Size)
	assert.Equal(t, "/var/lib/imdbidx", c.Index.Dir)
	assert.Equal(t, 128, c.Index.SpillBudgetMB)
	assert.Equal(t, 0.3, c.Query.MinTokenOverlap)
	assert.Equal(t, scorer.BM25, c.Query.ScorerName())
}

func TestQueryScorerNameDefaultsToBM25(t *testing.T) {
	var q Query
	assert.Equal(t, scorer.BM25, q.ScorerName())

	q.Scorer = "tf-idf"
	assert.Equal(t, scorer.TFIDF, q.ScorerName())
}
