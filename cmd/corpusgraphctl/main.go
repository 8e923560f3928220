// Package main provides the corpusgraphctl operator CLI — a local tool for
// exercising an engine directly (build a wiki's graph, run a query, inspect
// its shape) without the production RPC/HTTP frontend that owns the real
// query surface (spec.md §1 explicitly places that frontend outside this
// module's scope). Mirrors the split the original Rust workspace drew
// between its `topictrend_core` library and a separate `topictrend_cli`
// binary.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wikicorpus/graphengine/pkg/config"
	"github.com/wikicorpus/graphengine/pkg/metrics"
	"github.com/wikicorpus/graphengine/pkg/pageview"
	"github.com/wikicorpus/graphengine/pkg/registry"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "corpusgraphctl",
		Short: "Operator CLI for the category/article analytics engine",
	}
	rootCmd.PersistentFlags().String("wiki", "enwiki", "wiki code to operate on")
	rootCmd.PersistentFlags().String("data-dir", "", "snapshot root (overrides DATA_DIR)")

	rootCmd.AddCommand(
		versionCmd(),
		buildCmd(),
		categoryTrendCmd(),
		articleTrendCmd(),
		topCategoriesCmd(),
		topArticlesCmd(),
		categoryDeltaCmd(),
		articleDeltaCmd(),
		childCategoriesCmd(),
		parentCategoriesCmd(),
		descendantCategoriesCmd(),
		categoriesForArticleCmd(),
		analyzeDepthCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("corpusgraphctl v%s\n", version)
		},
	}
}

// engineFor loads config, builds/retrieves the registry entry for --wiki,
// and returns its engine. Every query subcommand starts here.
func engineFor(cmd *cobra.Command) (*pageview.Engine, error) {
	cfg := config.LoadFromEnv()
	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	wiki, _ := cmd.Flags().GetString("wiki")
	r := registry.New(cfg.DataDir)
	if cfg.MetricsEnabled {
		rec, handler, err := metrics.NewPrometheus()
		if err != nil {
			return nil, err
		}
		r.SetRecorder(rec)
		go func() {
			_ = (&http.Server{Addr: cfg.MetricsAddr, Handler: handler}).ListenAndServe()
		}()
	}
	return r.GetOrBuild(wiki)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func buildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build (or rebuild) the graph for --wiki and report its shape",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			e, err := engineFor(cmd)
			if err != nil {
				return err
			}
			g := e.Graph()
			fmt.Printf("wiki=%s categories=%d articles=%d build_time=%s\n",
				e.Wiki(), g.NumCategories(), g.NumArticles(), time.Since(start))
			return nil
		},
	}
}

func categoryTrendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category-trend <category_qid> <start> <end>",
		Short: "Per-day view totals for a category over a date range",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			qid, start, end, err := parseQIDAndRange(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			depth, _ := cmd.Flags().GetInt("depth")

			e, err := engineFor(cmd)
			if err != nil {
				return err
			}
			points, err := e.CategoryTrend(qid, depth, start, end)
			if err != nil {
				return err
			}
			for _, p := range points {
				fmt.Printf("%s\t%d\n", p.Date.Format("2006-01-02"), p.Total)
			}
			return nil
		},
	}
	cmd.Flags().Int("depth", 0, "descendant-category depth to include")
	return cmd
}

func articleTrendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "article-trend <article_qid> <start> <end>",
		Short: "Per-day view totals for a single article over a date range",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			qid, start, end, err := parseQIDAndRange(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			e, err := engineFor(cmd)
			if err != nil {
				return err
			}
			points, err := e.ArticleTrend(qid, start, end)
			if err != nil {
				return err
			}
			for _, p := range points {
				fmt.Printf("%s\t%d\n", p.Date.Format("2006-01-02"), p.Total)
			}
			return nil
		},
	}
}

func topCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "top-categories <start> <end>",
		Short: "Top-N categories by total views over a date range",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := parseRange(args[0], args[1])
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")

			e, err := engineFor(cmd)
			if err != nil {
				return err
			}
			results, err := e.TopCategories(start, end, limit, time.Now())
			if err != nil {
				return err
			}
			for rank, r := range results {
				fmt.Printf("%d\tC%d\t%d\n", rank+1, r.CategoryQID, r.Total)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 10, "number of categories to return")
	return cmd
}

func topArticlesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "top-articles <category_qid> <start> <end>",
		Short: "Top-N articles in a category by total views over a date range",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			qid, start, end, err := parseQIDAndRange(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			depth, _ := cmd.Flags().GetInt("depth")
			limit, _ := cmd.Flags().GetInt("limit")

			e, err := engineFor(cmd)
			if err != nil {
				return err
			}
			results, err := e.TopArticlesInCategory(qid, start, end, depth, limit)
			if err != nil {
				return err
			}
			for rank, a := range results {
				fmt.Printf("%d\tQ%d\t%d\n", rank+1, a.ArticleQID, a.Total)
			}
			return nil
		},
	}
	cmd.Flags().Int("depth", 0, "descendant-category depth to include")
	cmd.Flags().Int("limit", 10, "number of articles to return")
	return cmd
}

func categoryDeltaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category-delta <baseline_start> <baseline_end> <impact_start> <impact_end>",
		Short: "Rank categories by the change in views between two windows",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			bs, be, is, ie, err := parseTwoRanges(args[0], args[1], args[2], args[3])
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			depth, _ := cmd.Flags().GetInt("depth")

			e, err := engineFor(cmd)
			if err != nil {
				return err
			}
			entries, err := e.CategoryDelta(bs, be, is, ie, limit, depth, time.Now())
			if err != nil {
				return err
			}
			printDeltaEntries(entries, "C")
			return nil
		},
	}
	cmd.Flags().Int("limit", 100, "number of categories to return")
	cmd.Flags().Int("depth", 0, "descendant-category depth for fallback totals")
	return cmd
}

func articleDeltaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "article-delta <category_qid> <baseline_start> <baseline_end> <impact_start> <impact_end>",
		Short: "Rank articles within a category by the change in views between two windows",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			qid, err := parseQID(args[0])
			if err != nil {
				return err
			}
			bs, be, is, ie, err := parseTwoRanges(args[1], args[2], args[3], args[4])
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			depth, _ := cmd.Flags().GetInt("depth")

			e, err := engineFor(cmd)
			if err != nil {
				return err
			}
			entries, err := e.ArticleDelta(qid, bs, be, is, ie, limit, depth, time.Now())
			if err != nil {
				return err
			}
			printDeltaEntries(entries, "Q")
			return nil
		},
	}
	cmd.Flags().Int("limit", 100, "number of articles to return")
	cmd.Flags().Int("depth", 0, "descendant-category depth for top-N basis")
	return cmd
}

func childCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "child-categories <category_qid>",
		Short: "Direct child categories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qid, err := parseQID(args[0])
			if err != nil {
				return err
			}
			e, err := engineFor(cmd)
			if err != nil {
				return err
			}
			for _, c := range e.Graph().ChildCategories(qid) {
				fmt.Printf("C%d\n", c)
			}
			return nil
		},
	}
}

func parentCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parent-categories <category_qid>",
		Short: "Direct parent categories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qid, err := parseQID(args[0])
			if err != nil {
				return err
			}
			e, err := engineFor(cmd)
			if err != nil {
				return err
			}
			for _, c := range e.Graph().ParentCategories(qid) {
				fmt.Printf("C%d\n", c)
			}
			return nil
		},
	}
}

func descendantCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "descendant-categories <category_qid>",
		Short: "Every category reachable within --depth hops",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qid, err := parseQID(args[0])
			if err != nil {
				return err
			}
			depth, _ := cmd.Flags().GetInt("depth")
			e, err := engineFor(cmd)
			if err != nil {
				return err
			}
			for _, hit := range e.Graph().DescendantCategories(qid, depth) {
				fmt.Printf("C%d\t%d\n", hit.QID, hit.Depth)
			}
			return nil
		},
	}
	cmd.Flags().Int("depth", 255, "maximum traversal depth")
	return cmd
}

func categoriesForArticleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories-for-article <article_qid>",
		Short: "Direct categories an article belongs to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qid, err := parseQID(args[0])
			if err != nil {
				return err
			}
			e, err := engineFor(cmd)
			if err != nil {
				return err
			}
			for _, c := range e.Graph().CategoriesForArticle(qid) {
				fmt.Printf("C%d\n", c)
			}
			return nil
		},
	}
}

// analyzeDepthCmd is the supplemented diagnostic from
// original_source/topictrend_cli/src/catanalysis.rs: a sanity check on a
// freshly built graph's shape, not part of the production query surface.
func analyzeDepthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze-depth <root_category_qid>",
		Short: "Report max/average depth and unreachable-category count from a root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qid, err := parseQID(args[0])
			if err != nil {
				return err
			}
			e, err := engineFor(cmd)
			if err != nil {
				return err
			}
			r := e.Graph().AnalyzeDepth(qid)
			fmt.Printf("root=C%d reachable=%d max_depth=%d avg_depth=%.2f unreachable=%d\n",
				r.Root, r.Reachable, r.MaxDepth, r.AverageDepth, r.UnreachableFromAll)
			for depth := 0; depth <= r.MaxDepth; depth++ {
				fmt.Printf("  depth=%d count=%d\n", depth, r.DepthHistogram[depth])
			}
			return nil
		},
	}
}

func printDeltaEntries(entries []pageview.DeltaEntry, prefix string) {
	for _, d := range entries {
		fmt.Printf("%s%d\tbaseline=%d\timpact=%d\tabs=%d\tpct=%.1f\n",
			prefix, d.QID, d.BaselineViews, d.ImpactViews, d.AbsoluteDelta, d.DeltaPct)
	}
}

func parseQID(s string) (uint32, error) {
	var qid uint32
	if _, err := fmt.Sscanf(s, "%d", &qid); err != nil {
		return 0, fmt.Errorf("invalid qid %q: %w", s, err)
	}
	return qid, nil
}

func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := parseDate(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := parseDate(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %w", err)
	}
	return start, end, nil
}

func parseQIDAndRange(qidStr, startStr, endStr string) (uint32, time.Time, time.Time, error) {
	qid, err := parseQID(qidStr)
	if err != nil {
		return 0, time.Time{}, time.Time{}, err
	}
	start, end, err := parseRange(startStr, endStr)
	return qid, start, end, err
}

func parseTwoRanges(bs, be, is, ie string) (time.Time, time.Time, time.Time, time.Time, error) {
	baselineStart, baselineEnd, err := parseRange(bs, be)
	if err != nil {
		return time.Time{}, time.Time{}, time.Time{}, time.Time{}, err
	}
	impactStart, impactEnd, err := parseRange(is, ie)
	if err != nil {
		return time.Time{}, time.Time{}, time.Time{}, time.Time{}, err
	}
	return baselineStart, baselineEnd, impactStart, impactEnd, nil
}
