package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"modbridge/internal/equivalence"
	"modbridge/internal/report"
)

var errNotEquivalent = errors.New("translation is not functionally equivalent")

var (
	validateReport string
	validateMod    string
)

var validateCmd = &cobra.Command{
	Use:   "validate <original.java> <translated.js>",
	Short: "Check that a translated script behaves like the original Java code",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		original, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		translated, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}

		a, err := setup()
		if err != nil {
			return err
		}
		defer a.close()

		v := equivalence.NewValidator(equivalence.Options{
			ConfidenceThreshold: a.cfg.Validator.ConfidenceThreshold,
			Timeout:             time.Duration(a.cfg.Validator.Timeout),
			Structural:          equivalence.SelectExtractor(a.cfg.Validator.StructuralParser, a.logger),
			Logger:              a.logger,
			Metrics:             a.metrics,
		})

		vc := equivalence.ValidationContext{
			ModName:    validateMod,
			SourcePath: args[0],
			TargetPath: args[1],
		}
		if vc.ModName == "" {
			vc.ModName = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}

		run := v.ValidateDetailed(context.Background(), equivalence.Input{
			Original:   string(original),
			Translated: string(translated),
			Context:    vc,
		})
		printVerdict(cmd, run)

		if validateReport != "" {
			r := report.NewValidationReport(vc, run)
			r.Finalize()
			if err := r.Save(validateReport); err != nil {
				return fmt.Errorf("failed to save report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", validateReport)
		}

		if !run.Verdict.IsEquivalent {
			return errNotEquivalent
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateReport, "report", "r", "", "Write a JSON validation report to this file")
	validateCmd.Flags().StringVar(&validateMod, "mod", "", "Mod name recorded in the report")
}

func printVerdict(cmd *cobra.Command, run equivalence.Run) {
	out := cmd.OutOrStdout()
	v := run.Verdict
	status := "EQUIVALENT"
	if !v.IsEquivalent {
		status = "NOT EQUIVALENT"
	}
	fmt.Fprintf(out, "%s (confidence %.2f, %s, %v)\n", status, v.Confidence, run.Outcome, run.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "  structural=%.2f semantic=%.2f behavioral=%.2f api=%.2f\n",
		v.Scores.Structural, v.Scores.Semantic, v.Scores.Behavioral, v.Scores.APICompatibility)
	for _, d := range v.Differences {
		fmt.Fprintf(out, "  [%s/%s] %s", d.Severity, d.Category, d.Description)
		if d.Location != "" {
			fmt.Fprintf(out, " (%s)", d.Location)
		}
		fmt.Fprintln(out)
	}
	for _, r := range v.Recommendations {
		fmt.Fprintf(out, "  - %s\n", r)
	}
}
