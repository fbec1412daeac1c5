package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"modbridge/internal/analysis"
	"modbridge/internal/crawler"
	"modbridge/internal/extractor"
	"modbridge/internal/git"
	"modbridge/internal/graph"
	"modbridge/internal/index"
	"modbridge/internal/ir"
)

var (
	analyzeOut   string
	analyzeOrder bool
	analyzeSince string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <path>",
	Short: "Analyse a Java file or a mod source tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.close()

		ext, err := extractor.NewExtractor("java")
		if err != nil {
			return err
		}

		info, err := os.Stat(args[0])
		if err != nil {
			return err
		}
		if !info.IsDir() {
			unit, err := ext.ExtractFromFile(args[0])
			if err != nil {
				return err
			}
			printUnit(cmd, args[0], unit)
			return nil
		}

		idx := index.NewIndexer(crawler.NewCrawler(ext, a.logger))
		start := time.Now()
		summary, g, err := idx.Build(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, f := range summary.Files {
			fmt.Fprintf(out, "%-60s classes=%d methods=%d cyclomatic=%d unmapped=%d\n",
				f.Path, len(f.Classes), f.MethodCount, f.Complexity.CyclomaticComplexity, len(f.UnmappedCalls))
		}
		fmt.Fprintf(out, "Analysed %d files in %v: %d classes, %d methods, %d dependencies, %d distinct unmapped calls\n",
			summary.Totals.Files, time.Since(start).Round(time.Millisecond), summary.Totals.Classes,
			summary.Totals.Methods, len(summary.Dependencies), len(summary.UnmappedCalls))

		if ext := g.UnresolvedTargetCounts(); len(ext) > 0 {
			fmt.Fprintf(out, "External types: %s\n", topTargets(ext, 10))
		}

		analyzer := analysis.NewAnalyzer(g)
		if analyzeOrder {
			layers, cyclic := analyzer.PortOrder()
			fmt.Fprintln(out, "Port order:")
			for i, layer := range layers {
				fmt.Fprintf(out, "  %d. %s\n", i+1, nodeNames(layer))
			}
			if len(cyclic) > 0 {
				fmt.Fprintf(out, "  cyclic (port together): %s\n", nodeNames(cyclic))
			}
		}
		if analyzeSince != "" {
			changes, err := git.ChangedFiles(cmd.Context(), args[0], analyzeSince)
			if err != nil {
				return err
			}
			impact := analyzer.AnalyzeImpact(changes)
			fmt.Fprintf(out, "Changed since %s: %d files\n", analyzeSince, len(changes))
			fmt.Fprintf(out, "  directly affected: %s\n", nodeNames(impact.DirectlyAffected))
			fmt.Fprintf(out, "  needs re-check: %s\n", nodeNames(impact.IndirectlyAffected))
		}

		if analyzeOut != "" {
			if err := idx.SaveSummary(summary, analyzeOut); err != nil {
				return err
			}
			fmt.Fprintf(out, "Summary written to %s\n", analyzeOut)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "Write the project summary JSON to this file")
	analyzeCmd.Flags().BoolVar(&analyzeOrder, "order", false, "Print the class porting order")
	analyzeCmd.Flags().StringVar(&analyzeSince, "since", "", "Report classes affected by changes since this git revision")
}

func printUnit(cmd *cobra.Command, path string, unit *ir.IR) {
	out := cmd.OutOrStdout()
	m := unit.Metadata
	fmt.Fprintf(out, "%s: %d lines, %d nodes\n", path, m.SourceLineCount, len(unit.SyntaxTree))
	fmt.Fprintf(out, "  complexity: cyclomatic=%d cognitive=%d nesting=%d loc=%d\n",
		m.Complexity.CyclomaticComplexity, m.Complexity.CognitiveComplexity,
		m.Complexity.MaxNestingDepth, m.Complexity.LinesOfCode)
	for _, c := range m.Classes {
		fmt.Fprintf(out, "  %s %s (line %d, mappable=%v)\n", c.Category, c.Name, c.Line, c.IsMappable)
	}
	for _, meth := range m.Methods {
		fmt.Fprintf(out, "  method %s(%d params) line %d\n", meth.Name, len(meth.ParameterNames), meth.Line)
	}
	for _, d := range unit.Dependencies {
		fmt.Fprintf(out, "  import %s.%s [%s, required=%v]\n", d.PackageName, d.ClassName, d.Classifier, d.Required)
	}
	if calls := extractor.UnmappedCalls(unit.SyntaxTree); len(calls) > 0 {
		fmt.Fprintf(out, "  unmapped calls: %v\n", calls)
	}
}

// topTargets lists the limit most referenced names, most referenced first.
func topTargets(counts map[string]int, limit int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > limit {
		names = names[:limit]
	}
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s (%d)", name, counts[name])
	}
	return strings.Join(parts, ", ")
}

func nodeNames(nodes []*graph.Node) string {
	if len(nodes) == 0 {
		return "-"
	}
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Symbol.Name)
	}
	return strings.Join(names, ", ")
}
