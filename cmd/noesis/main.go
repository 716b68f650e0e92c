package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"noesis/internal/analysis"
	"noesis/internal/bridge"
	"noesis/internal/cache"
	"noesis/internal/config"
	"noesis/internal/kb"
	"noesis/internal/logging"
	"noesis/internal/logic"
	"noesis/internal/proof"
	"noesis/internal/prover"
	"noesis/internal/router"
	"noesis/internal/rules"
	"noesis/internal/syntax"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// prove flags
	goalText  string
	axiomList []string
	axiomFile string
	method    string
	race      bool
	useKB     bool
	format    string
	inSyntax  string

	// translate flags
	fromFormat string
	toFormat   string

	// rules flags
	category string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "noesis",
	Short: "noesis - multi-formalism theorem-proving core",
	Long: `noesis proves goals in typed deontic first-order logic with
cognitive, deontic, modal and temporal operators.

A structural analyzer routes each obligation to the native forward
chainer or to an external prover (SMT, tableaux, Lean, Coq, Datalog,
LLM), and a content-addressed cache remembers every settled result.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Format, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// proveCmd routes one goal through the prover stack
var proveCmd = &cobra.Command{
	Use:   "prove",
	Short: "Prove a goal against a set of axioms",
	Long: `Parses the goal and axioms, routes them to the best prover and
prints the result.

Examples:
  noesis prove --goal "q(a)" --axioms "p(a)" --axioms "(p(a) -> q(a))"
  noesis prove --goal "mortal(socrates)" --axiom-file kb/classic.tdfol
  noesis prove --goal "(x + 1 > x)" --method smt --format tree`,
	RunE: runProve,
}

// translateCmd converts between surface syntaxes
var translateCmd = &cobra.Command{
	Use:   "translate [formula]",
	Short: "Translate a formula between surface syntaxes",
	Long: `Parses the formula in the source syntax and serializes it in the
target syntax. Lossy conversions report warnings and a confidence
below 1.0.

Example:
  noesis translate --from native --to tptp "forall x. (human(x) -> mortal(x))"`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

// analyzeCmd prints the feature vector for a formula
var analyzeCmd = &cobra.Command{
	Use:   "analyze [formula]",
	Short: "Show the routing feature vector for a formula",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

// rulesCmd lists the inference rule library
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the inference rules, optionally by category",
	RunE:  runRules,
}

// cacheCmd groups the proof cache subcommands
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the persistent proof cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show persisted proof cache statistics",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every persisted proof",
	RunE:  runCacheClear,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "noesis.yaml", "Configuration file")

	proveCmd.Flags().StringVar(&goalText, "goal", "", "Goal formula (required)")
	proveCmd.Flags().StringArrayVar(&axiomList, "axioms", nil, "Axiom formula (repeatable)")
	proveCmd.Flags().StringVar(&axiomFile, "axiom-file", "", "File of axioms, one per line")
	proveCmd.Flags().StringVar(&method, "method", "", "Force one prover method (native, smt, tableaux, interactive, datalog, cec, neural)")
	proveCmd.Flags().BoolVar(&race, "race", false, "Race the top-ranked candidates in parallel")
	proveCmd.Flags().BoolVar(&useKB, "use-kb", false, "Merge the configured knowledge base directory into the axioms")
	proveCmd.Flags().StringVar(&format, "format", "json", "Output format: json or tree")
	proveCmd.Flags().StringVar(&inSyntax, "syntax", "native", "Input syntax of the goal and axioms")
	_ = proveCmd.MarkFlagRequired("goal")

	translateCmd.Flags().StringVar(&fromFormat, "from", "native", "Source syntax")
	translateCmd.Flags().StringVar(&toFormat, "to", "native", "Target syntax")

	analyzeCmd.Flags().StringVar(&inSyntax, "syntax", "native", "Input syntax")

	rulesCmd.Flags().StringVar(&category, "category", "", "Restrict to one category")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	rootCmd.AddCommand(proveCmd)
	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(cacheCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runProve(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	arena := logic.NewArena()
	conv, err := converter(inSyntax)
	if err != nil {
		return err
	}

	goal, err := conv.Parse(arena, goalText)
	if err != nil {
		return fmt.Errorf("failed to parse goal: %w", err)
	}

	axioms, err := collectAxioms(arena, conv, cfg)
	if err != nil {
		return err
	}
	snap := kb.NewSnapshot(arena, axioms...)
	logger.Debug("obligation parsed",
		zap.String("goal", goalText),
		zap.Int("axioms", snap.Len()))

	r, closeFn, err := buildRouter(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	var res proof.Result
	if method != "" {
		res = r.RouteMethod(ctx, snap, goal, method)
	} else {
		res = r.Route(ctx, snap, goal)
	}

	switch format {
	case "tree":
		fmt.Println(proof.RenderTree(res))
		if attempts := proof.RenderAttempts(res); attempts != "" {
			fmt.Println(attempts)
		}
	default:
		data, err := res.JSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	}
	return nil
}

// collectAxioms gathers axioms from the repeated flag, the axiom file
// and optionally the configured KB directory, all into one arena.
func collectAxioms(arena *logic.Arena, conv syntax.Converter, cfg *config.Config) ([]logic.FormulaID, error) {
	var axioms []logic.FormulaID
	for _, src := range axiomList {
		f, err := conv.Parse(arena, src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse axiom %q: %w", src, err)
		}
		axioms = append(axioms, f)
	}

	store := kb.NewStore(arena, logger)
	if axiomFile != "" {
		if err := store.LoadFile(axiomFile); err != nil {
			return nil, err
		}
	}
	if useKB && cfg.KB.Dir != "" {
		if _, err := store.LoadDir(cfg.KB.Dir); err != nil {
			return nil, err
		}
	}
	axioms = append(axioms, store.Merged().Formulas()...)
	return axioms, nil
}

// buildRouter assembles the prover stack from the configuration. The
// returned func releases the cache store.
func buildRouter(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	registry := rules.NewRegistry()
	native := prover.New(registry, logger)

	var bridges []bridge.Bridge
	bridges = append(bridges, bridge.NewCEC(registry), bridge.NewDatalog())
	if cfg.Bridges.SMT.Enabled {
		bridges = append(bridges, bridge.NewSMT(cfg.Bridges.SMT.Binary))
	}
	if cfg.Bridges.Tableaux.Enabled {
		bridges = append(bridges, bridge.NewTableaux(cfg.Bridges.Tableaux.Binary))
	}
	if cfg.Bridges.Lean.Enabled {
		bridges = append(bridges, bridge.NewLean(cfg.Bridges.Lean.Binary))
	}
	if cfg.Bridges.Coq.Enabled {
		bridges = append(bridges, bridge.NewCoq(cfg.Bridges.Coq.Binary))
	}
	if cfg.Bridges.Neural.Enabled && cfg.Bridges.Neural.APIKey != "" {
		llm, err := bridge.NewGenAI(ctx, cfg.Bridges.Neural.APIKey, cfg.Bridges.Neural.Model)
		if err != nil {
			logger.Warn("neural bridge unavailable", zap.Error(err))
		} else {
			bridges = append(bridges, bridge.NewNeural(llm, cfg.Bridges.Neural.Threshold))
		}
	}

	var store *cache.Store
	closeFn := func() {}
	if cfg.Cache.Path != "" {
		var err error
		store, err = cache.OpenStore(cfg.Cache.Path)
		if err != nil {
			return nil, nil, err
		}
		closeFn = func() { _ = store.Close() }
	}
	proofs, err := cache.New(cfg.Cache.Capacity, store, logger)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	rcfg := router.Config{
		Prover: prover.Config{
			MaxDepth: cfg.Prover.MaxDepth,
			Timeout:  cfg.ProverTimeout(),
			MaxFacts: cfg.Prover.MaxFacts,
		},
		BridgeTimeout: cfg.BridgeTimeout(),
		RaceWidth:     cfg.Router.RaceWidth,
		ConfigFP:      cfg.Fingerprint(),
	}
	if race && rcfg.RaceWidth < 2 {
		rcfg.RaceWidth = 2
	}

	pool := bridge.NewPool(cfg.Router.PoolSize)
	return router.New(native, bridges, pool, proofs, rcfg, logger), closeFn, nil
}

func runTranslate(cmd *cobra.Command, args []string) error {
	arena := logic.NewArena()
	res, err := syntax.NewRegistry().Convert(arena, args[0], fromFormat, toFormat)
	if err != nil {
		return err
	}
	fmt.Println(res.Text)
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	if res.Confidence < 1.0 {
		fmt.Fprintf(os.Stderr, "confidence: %.2f\n", res.Confidence)
	}
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	arena := logic.NewArena()
	conv, err := converter(inSyntax)
	if err != nil {
		return err
	}
	f, err := conv.Parse(arena, args[0])
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(analysis.Analyze(arena, f), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runRules(cmd *cobra.Command, args []string) error {
	registry := rules.NewRegistry()
	list := registry.All()
	if category != "" {
		list = registry.Category(rules.Category(category))
		if len(list) == 0 {
			return fmt.Errorf("unknown or empty category %q", category)
		}
	}
	for _, r := range list {
		fmt.Printf("%-28s %s\n", r.Name, r.Category)
	}
	fmt.Printf("%d rules\n", len(list))
	return nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Cache.Path == "" {
		return fmt.Errorf("cache persistence is disabled (empty cache.path)")
	}
	store, err := cache.OpenStore(cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Len()
	if err != nil {
		return err
	}
	fmt.Printf("path:     %s\n", cfg.Cache.Path)
	fmt.Printf("entries:  %d\n", n)
	fmt.Printf("capacity: %d\n", cfg.Cache.Capacity)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Cache.Path == "" {
		return fmt.Errorf("cache persistence is disabled (empty cache.path)")
	}
	store, err := cache.OpenStore(cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Purge(); err != nil {
		return err
	}
	fmt.Println("proof cache cleared")
	return nil
}

// converter resolves an input-syntax flag to a parser.
func converter(name string) (syntax.Converter, error) {
	reg := syntax.NewRegistry()
	c, ok := reg.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown syntax %q (have %s)", name, strings.Join(reg.Formats(), ", "))
	}
	return c, nil
}
