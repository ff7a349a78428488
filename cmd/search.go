package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kasuboski/imdbidx/config"
	"github.com/kasuboski/imdbidx/pkg/logger"
	"github.com/kasuboski/imdbidx/pkg/query"
	"github.com/kasuboski/imdbidx/pkg/record"
	"github.com/kasuboski/imdbidx/pkg/scorer"
)

var (
	searchYear   uint16
	searchKind   string
	searchSize   int
	searchScorer string
)

// searchCmd looks up titles against an already-built index.
var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "search the index for a title",
	Long:  `Search runs one query against index.dir and prints the ranked matches`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.Get()

		cfg, err := config.New(viper.GetViper())
		if err != nil {
			log.Fatal("failed to read configuration", zap.Error(err))
		}

		ix, err := query.Open(cfg.Index.Dir)
		if err != nil {
			log.Fatal("failed to open index", zap.Error(err))
		}
		defer ix.Close()
		ix.SetDefaults(query.QueryDefaults{
			Scorer:           cfg.Query.ScorerName(),
			Similarity:       cfg.Query.Similarity,
			MinTokenOverlap:  cfg.Query.MinTokenOverlap,
			RerankTop:        cfg.Query.RerankTop,
			SimilarityWeight: cfg.Query.SimilarityWeight,
			ResultSize:       cfg.Query.ResultSize,
		})

		q := query.Query{Text: args[0], Size: searchSize}
		if searchYear != 0 {
			q.Year = &searchYear
		}
		if searchKind != "" {
			k := record.Kind(searchKind)
			q.KindFilter = &k
		}
		if searchScorer != "" {
			q.Scorer = scorer.Name(searchScorer)
		}

		results, err := ix.Search(q)
		if err != nil {
			log.Fatal("search failed", zap.Error(err))
		}
		if len(results) == 0 {
			fmt.Println("no matches")
			return
		}
		for i, r := range results {
			title, err := ix.Title(r.TitleID)
			if err != nil {
				continue
			}
			fmt.Printf("%2d. %-40s score=%.4f (rel=%.4f sim=%.4f)\n",
				i+1, title.PrimaryName, r.Score, r.Components.Relevance, r.Components.Similarity)
		}
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().Uint16Var(&searchYear, "year", 0, "filter by release year (+/-1)")
	searchCmd.Flags().StringVar(&searchKind, "kind", "", "filter by title kind (movie, tvSeries, tvEpisode, ...)")
	searchCmd.Flags().IntVar(&searchSize, "size", 0, "max results (0 uses the configured default)")
	searchCmd.Flags().StringVar(&searchScorer, "scorer", "", "relevance scorer: okapi-bm25, tf-idf, jaccard, qgram")
}
