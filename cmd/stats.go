package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kasuboski/imdbidx/config"
	"github.com/kasuboski/imdbidx/pkg/logger"
	"github.com/kasuboski/imdbidx/pkg/query"
)

// statsCmd reports the build metadata and collection statistics of an
// already-built index directory.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "report index build metadata and collection statistics",
	Long:  `Print the n-gram size, build timestamp, source dataset hash, and document statistics of index.dir`,
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

		s := ix.Stats()
		fmt.Printf("ngram_size:      %d\n", s.NGramSize)
		fmt.Printf("build_timestamp: %s\n", s.BuildTimestamp)
		fmt.Printf("source_hash:     %s\n", s.SourceHash)
		fmt.Printf("documents:       %d\n", s.NumDocs)
		fmt.Printf("avg_doc_len:     %.2f\n", s.AvgDocLen)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
