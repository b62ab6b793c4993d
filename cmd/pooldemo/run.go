package main

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/poolkit/internal/logger"
	"github.com/joshuapare/poolkit/pool/alloc"
	"github.com/joshuapare/poolkit/pool/container"
)

// granularityEnv is the variable LoadConfig reads Config.Granularity from.
const granularityEnv = alloc.EnvPrefix + "_GRANULARITY"

// maxCount keeps factorial(count-1) within an int64.
const maxCount = 21

var (
	runBlockSize int
	runCount     int
	runBacking   string
	runLocale    string
	runStats     bool
)

func init() {
	rootCmd.AddCommand(newRunCmd())
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fill maps and vectors from pools and print them",
		Long: `The run command fills four containers with count elements:

  map1        built-in map, keys 0..count-1, values key!
  map2        container.Map with nodes from a block pool
  container1  container.Vector on the Go heap
  container2  container.Vector on a block pool

and prints their contents in order.

Example:
  pooldemo run
  pooldemo run --count 15 --block-size 4 --stats
  pooldemo run --locale de --stats --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := runOptionsFromFlags(cmd)
			if err != nil {
				return err
			}
			return runDemo(cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().IntVar(&runBlockSize, "block-size", alloc.DefaultBlockSize, "Largest request served from the pool (overrides POOLKIT_BLOCK_SIZE; also sets the granularity unless POOLKIT_GRANULARITY is set)")
	cmd.Flags().IntVar(&runCount, "count", 10, "Number of elements per container")
	cmd.Flags().StringVar(&runBacking, "backing", alloc.BackingHeap, "Integer pool backing: heap or mmap (overrides POOLKIT_BACKING)")
	cmd.Flags().StringVar(&runLocale, "locale", "", "BCP 47 tag for number formatting, e.g. en or de")
	cmd.Flags().BoolVar(&runStats, "stats", false, "Print pool statistics")
	return cmd
}

// runOptions is the resolved input of one demo run.
type runOptions struct {
	Config alloc.Config
	Count  int
	Locale string
	Stats  bool
	JSON   bool
}

// runOptionsFromFlags loads the pool config from the environment and applies
// the flags the user set explicitly.
func runOptionsFromFlags(cmd *cobra.Command) (runOptions, error) {
	cfg, err := alloc.LoadConfig("")
	if err != nil {
		return runOptions{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("block-size") {
		cfg.BlockSize = runBlockSize
		if _, ok := os.LookupEnv(granularityEnv); !ok {
			cfg.Granularity = runBlockSize
		}
	}
	if flags.Changed("backing") {
		cfg.Backing = runBacking
	}
	return runOptions{
		Config: cfg,
		Count:  runCount,
		Locale: runLocale,
		Stats:  runStats,
		JSON:   jsonOut,
	}, nil
}

// demoReport is the --stats --json document.
type demoReport struct {
	Pools   map[string]alloc.Stats `json:"pools"`
	Metrics alloc.MetricsSnapshot  `json:"metrics"`
	HitRate float64                `json:"hit_rate"`
}

func runDemo(w io.Writer, opts runOptions) (err error) {
	if opts.Count < 0 || opts.Count > maxCount {
		return fmt.Errorf("count %d out of range [0, %d]", opts.Count, maxCount)
	}

	num, err := numberFormatter(opts.Locale)
	if err != nil {
		return err
	}

	metrics := alloc.NewMetrics()
	poolOpts := []alloc.Option{alloc.WithLogger(logger.L), alloc.WithMetrics(metrics)}

	ints, err := alloc.New[int](opts.Config, poolOpts...)
	if err != nil {
		return fmt.Errorf("failed to create pool: %w", err)
	}
	defer func() { err = errors.Join(err, ints.Close()) }()

	nodes, err := newNodePool(ints, opts.Config, poolOpts)
	if err != nil {
		return fmt.Errorf("failed to create node pool: %w", err)
	}
	defer func() { err = errors.Join(err, nodes.Close()) }()
	logger.Debug("pools ready", "block_size", opts.Config.BlockSize, "equivalent", alloc.Equivalent(ints, nodes))

	// map1: built-in map
	map1 := make(map[int]int, opts.Count)
	for i := range opts.Count {
		map1[i] = factorial(i)
	}

	// map2: pooled nodes
	map2 := container.NewMap[int, int](nodes)
	defer map2.Close()
	for i := range opts.Count {
		if err := map2.Set(i, factorial(i)); err != nil {
			return fmt.Errorf("map2: %w", err)
		}
	}

	fmt.Fprintln(w, "map1:")
	for _, k := range slices.Sorted(maps.Keys(map1)) {
		fmt.Fprintf(w, "Key: %s, Value: %s\n", num(k), num(map1[k]))
	}
	fmt.Fprintln(w, "map2:")
	for k, v := range map2.All() {
		fmt.Fprintf(w, "Key: %s, Value: %s\n", num(k), num(v))
	}

	container1 := container.NewVector[int](alloc.Std[int]{})
	defer container1.Close()
	for i := range opts.Count {
		if err := container1.PushBack(i); err != nil {
			return fmt.Errorf("container1: %w", err)
		}
	}

	container2 := container.NewVector[int](ints)
	defer container2.Close()
	for i := range opts.Count {
		if err := container2.PushBack(i); err != nil {
			return fmt.Errorf("container2: %w", err)
		}
	}

	if err := printVector(w, "container1", container1, opts.Locale, num); err != nil {
		return err
	}
	if err := printVector(w, "container2", container2, opts.Locale, num); err != nil {
		return err
	}

	if !opts.Stats {
		return nil
	}
	snap := metrics.Snapshot()
	report := demoReport{
		Pools: map[string]alloc.Stats{
			"map2":       nodes.Stats(),
			"container2": ints.Stats(),
		},
		Metrics: snap,
		HitRate: snap.HitRate(),
	}
	if opts.JSON {
		return printJSON(w, report)
	}
	printStats(w, report)
	return nil
}

// newNodePool rebinds the integer pool to map nodes. Map nodes hold pointers,
// so a non-heap backing gets its own heap pool with the same block size.
func newNodePool(ints *alloc.BlockPool[int], cfg alloc.Config, opts []alloc.Option) (*alloc.BlockPool[container.MapNode[int, int]], error) {
	if cfg.Backing == alloc.BackingHeap {
		return alloc.Rebind[container.MapNode[int, int]](ints)
	}
	logger.Debug("map nodes hold pointers, using heap backing", "backing", cfg.Backing)
	cfg.Backing = alloc.BackingHeap
	return alloc.New[container.MapNode[int, int]](cfg, opts...)
}

func printVector(w io.Writer, name string, v *container.Vector[int], locale string, num func(int) string) error {
	fmt.Fprintf(w, "%s: ", name)
	if locale == "" {
		return v.Print(w)
	}
	for _, x := range v.All() {
		fmt.Fprintf(w, "%s ", num(x))
	}
	_, err := fmt.Fprintln(w)
	return err
}

func printStats(w io.Writer, r demoReport) {
	fmt.Fprintln(w, "stats:")
	for _, name := range slices.Sorted(maps.Keys(r.Pools)) {
		s := r.Pools[name]
		fmt.Fprintf(w, "  %s: allocs=%d deallocs=%d expansions=%d oversized=%d reserved=%d free=%d\n",
			name, s.Allocs, s.Deallocs, s.Expansions, s.Oversized, s.ReservedSlots, s.FreeSlots)
	}
	fmt.Fprintf(w, "  hit rate: %.2f\n", r.HitRate)
}

// numberFormatter returns a locale-aware integer formatter. An empty locale
// formats plainly.
func numberFormatter(locale string) (func(int) string, error) {
	if locale == "" {
		return func(n int) string { return fmt.Sprint(n) }, nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	p := message.NewPrinter(tag)
	return func(n int) string { return p.Sprintf("%d", n) }, nil
}

func factorial(n int) int {
	if n <= 1 {
		return 1
	}
	return n * factorial(n-1)
}
