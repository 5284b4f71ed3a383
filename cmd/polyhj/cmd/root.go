// Package cmd implements the polyhj command line driver: it discovers the
// machine, generates the input relations and hands both to the join engine.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	polyhj "github.com/cmuq-ccl/polyhj"
	"github.com/cmuq-ccl/polyhj/internal/datagen"
	"github.com/cmuq-ccl/polyhj/internal/join"
	"github.com/cmuq-ccl/polyhj/internal/topology"
	"github.com/cmuq-ccl/polyhj/logging"
)

var opts = polyhj.DefaultOptions()

var (
	flagRadix             uint32
	flagFavorHyperthreads bool
)

var rootCmd = &cobra.Command{
	Use:   "polyhj",
	Short: "Parallel, cache- and NUMA-aware radix hash join",
	Long: `polyhj joins two generated relations in memory: R with dense primary
keys and S with uniform or Zipf-skewed foreign keys. Partitioning and the
build/probe strategy adapt to the input sizes and to skew observed while
partitioning. The output is a match count and a checksum over payloads.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Init(opts.Verbose); err != nil {
			return err
		}
		defer logging.Sync()

		// Any radix flag latches the plan as user-defined and disables
		// skew-triggered rewrites.
		if cmd.Flags().Changed("radix") {
			opts.RadixR = flagRadix
			opts.RadixS = flagRadix
			opts.UserDefined = true
		}
		if cmd.Flags().Changed("radixR") || cmd.Flags().Changed("radixS") {
			opts.UserDefined = true
		}
		opts.FavorPhysicalCores = !flagFavorHyperthreads

		if err := opts.Validate(); err != nil {
			return err
		}

		topo := topology.Discover()
		if opts.TopologyPath != "" {
			var err error
			if topo, err = topology.Load(opts.TopologyPath); err != nil {
				return err
			}
		}

		log := logging.Sugar()
		log.Infof("creating R [%.2f MiBs] and S [%.2f MiBs]",
			float64(opts.SizeR)*polyhj.TupleSize/1024.0/1024.0,
			float64(opts.SizeS)*polyhj.TupleSize/1024.0/1024.0)
		relR, relS := datagen.Generate(opts)
		if opts.Verbose {
			log.Debugf("relation fingerprints: R=%016x S=%016x", relR.Fingerprint(), relS.Fingerprint())
		}

		ctx, err := join.NewContext(opts, topo, relR, relS)
		if err != nil {
			return err
		}
		result, err := join.Run(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Checksum: %d.\n", result.Checksum)
		fmt.Printf("Total Matches: %d.\n", result.Matches)
		return nil
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.IntVar(&opts.Threads, "threads", 0, "number of worker threads (default: all hardware threads)")
	flags.IntVar(&opts.SizeR, "r", polyhj.DefaultSizeR, "tuples in relation R")
	flags.IntVar(&opts.SizeS, "s", polyhj.DefaultSizeS, "tuples in relation S")
	flags.Float64Var(&opts.Skew, "skew", 0, "Zipf exponent for S's foreign keys")
	flags.Uint32Var(&flagRadix, "radix", 0, "radix bits for both relations (latches the plan)")
	flags.Uint32Var(&opts.RadixR, "radixR", 0, "radix bits for relation R (latches the plan)")
	flags.Uint32Var(&opts.RadixS, "radixS", 0, "radix bits for relation S (latches the plan)")
	flags.BoolVar(&flagFavorHyperthreads, "favor_hyperthreading", false, "pack threads on fewer LLCs using sibling hardware threads")
	flags.BoolVar(&opts.KeyAsPayload, "key_payload", false, "store keys instead of payloads; count exact-key hits")
	flags.StringVar(&opts.TopologyPath, "topology", "", "JSON topology override file")
	flags.BoolVar(&opts.Verbose, "verbose", false, "debug logging")
}

// Execute runs the driver.
func Execute() error {
	return rootCmd.Execute()
}
