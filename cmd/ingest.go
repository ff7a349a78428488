package cmd

import (
	"compress/gzip"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kasuboski/imdbidx/config"
	"github.com/kasuboski/imdbidx/pkg/ingest"
	"github.com/kasuboski/imdbidx/pkg/logger"
)

// ingestCmd builds a fresh index directory from the IMDb TSV dumps
// configured under source.* and index.dir.
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "build an index from IMDb TSV dumps",
	Long:  `Parse title.basics/episode/akas/ratings TSVs and build a fresh on-disk search index`,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.Get()

		cfg, err := config.New(viper.GetViper())
		if err != nil {
			log.Fatal("failed to read configuration", zap.Error(err))
		}

		titles, closeTitles, err := openTSV(cfg.Source.Titles)
		if err != nil {
			log.Fatal("failed to open titles source", zap.Error(err))
		}
		defer closeTitles()

		episodes, closeEpisodes, err := openTSV(cfg.Source.Episodes)
		if err != nil {
			log.Fatal("failed to open episodes source", zap.Error(err))
		}
		defer closeEpisodes()

		akas, closeAkas, err := openTSV(cfg.Source.Akas)
		if err != nil {
			log.Fatal("failed to open akas source", zap.Error(err))
		}
		defer closeAkas()

		ratings, closeRatings, err := openTSV(cfg.Source.Ratings)
		if err != nil {
			log.Fatal("failed to open ratings source", zap.Error(err))
		}
		defer closeRatings()

		if err := os.MkdirAll(cfg.Index.Dir, 0o755); err != nil {
			log.Fatal("failed to create index directory", zap.Error(err))
		}

		rejectPath := cfg.Index.Dir + "/rejects.tsv"
		rejectFile, err := os.Create(rejectPath)
		if err != nil {
			log.Fatal("failed to create reject sink", zap.Error(err))
		}
		defer rejectFile.Close()

		stats, err := ingest.Run(ingest.Sources{
			Titles:   titles,
			Episodes: episodes,
			Akas:     akas,
			Ratings:  ratings,
		}, ingest.Config{
			Dir:         cfg.Index.Dir,
			NGramSize:   cfg.NGram.Size,
			SpillBudget: cfg.Index.SpillBudgetMB << 20,
			SourceHash:  ingestSourceHash,
			RejectOut:   rejectFile,
		}, log)
		if err != nil {
			log.Fatal("ingest failed", zap.Error(err))
		}

		log.Infow("ingest complete", "stats", stats.String())
	},
}

var ingestSourceHash string

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingestSourceHash, "source-hash", "", "content hash of the source dataset, recorded in config.toml")
}

// openTSV opens path, transparently gunzipping it if it ends in .gz, and
// returns a closer that releases every resource it opened.
func openTSV(path string) (io.Reader, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, func() {}, err
	}
	if len(path) > 3 && path[len(path)-3:] == ".gz" {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, func() {}, err
		}
		return gz, func() { gz.Close(); f.Close() }, nil
	}
	return f, func() { f.Close() }, nil
}
