// Package cli implements the tilespace command: a single-shot runner that
// enumerates the reachable state space of a sliding-tile puzzle and prints
// the count.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/dcoats/tilespace/internal/config"
	"github.com/dcoats/tilespace/internal/enumerate"
	"github.com/dcoats/tilespace/pkg/fs"
	"github.com/dcoats/tilespace/pkg/puzzle"
)

// Run is the main entry point. Returns the process exit code: 0 and the
// printed count on success, non-zero and a one-line "error: ..." message
// on any propagated error.
func Run(_ io.Reader, out, errOut io.Writer, args []string, _ map[string]string) int {
	flags := flag.NewFlagSet("tilespace", flag.ContinueOnError)
	flags.Usage = func() {}
	flags.SetOutput(&strings.Builder{})

	flagWidth := flags.Int("width", 0, "board width (0 uses the config default)")
	flagHeight := flags.Int("height", 0, "board height (0 uses the config default)")
	flagShards := flags.Int("shards", 0, "claimed-set shard count (0 uses the config default)")
	flagCachePerShard := flags.Int("cache-per-shard", 0, "per-shard in-memory cache capacity (0 uses the config default)")
	flagBloom := flags.Bool("bloom", false, "front each shard with a Bloom filter")
	flagBloomFPRate := flags.Float64("bloom-fp-rate", 0, "Bloom filter target false-positive rate")
	flagExpectedItems := flags.Int("expected-items", 0, "expected item count for Bloom filter sizing")
	flagBatch := flags.Int("batch", 0, "worker batch width (0 uses the config default)")
	flagPrimeCache := flags.Bool("prime-cache", false, "stagger per-shard cache capacity by small primes")
	flagConfig := flags.String("config", "", "explicit config file path")
	flagSaveConfig := flags.Bool("save-config", false, "persist the resolved config to the project config file before enumerating")

	if err := flags.Parse(args[1:]); err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	workDir := "."

	cfg, err := config.Load(fs.NewReal(), workDir, *flagConfig)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	if flags.Changed("width") {
		cfg.Width = *flagWidth
	}

	if flags.Changed("height") {
		cfg.Height = *flagHeight
	}

	if flags.Changed("shards") {
		cfg.Shards = *flagShards
	}

	if flags.Changed("cache-per-shard") {
		cfg.CachePerShard = *flagCachePerShard
	}

	if flags.Changed("bloom") {
		cfg.UseBloom = *flagBloom
	}

	if flags.Changed("bloom-fp-rate") {
		cfg.BloomFPRate = *flagBloomFPRate
	}

	if flags.Changed("expected-items") {
		cfg.ExpectedItems = *flagExpectedItems
	}

	if flags.Changed("batch") {
		cfg.WorkerBatch = *flagBatch
	}

	if flags.Changed("prime-cache") {
		cfg.PrimeCacheSizes = *flagPrimeCache
	}

	if *flagSaveConfig {
		if err := config.Save(fs.NewReal(), workDir, cfg); err != nil {
			fprintln(errOut, "error:", err)

			return 1
		}
	}

	seed := puzzle.Identity(cfg.Width, cfg.Height)

	count, err := enumerate.Enumerate(context.Background(), seed, puzzle.Codec{}, cfg.EnumerateConfig())
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	fmt.Fprintln(out, count)

	return 0
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}
