package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"modbridge/internal/advisor"
	"modbridge/internal/mapping"
	"modbridge/internal/resolver"
)

var (
	mapCmd = &cobra.Command{
		Use:   "map",
		Short: "Look up and manage Java to Bedrock API mappings",
	}

	lookupSuggest bool
	createSig     string
	createTarget  string
	createType    string
	createNotes   string
)

var mapLookupCmd = &cobra.Command{
	Use:   "lookup <signature>",
	Short: "Resolve a Java API signature",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMapper(func(ctx context.Context, a *app, m *resolver.Mapper) error {
			res := m.Resolve(args[0])
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s -> %s\n", args[0], res.Mapping.BedrockEquivalent)
			fmt.Fprintf(out, "  stage=%s similarity=%.2f type=%s\n", res.Stage, res.Similarity, res.Mapping.ConversionType)
			fmt.Fprintf(out, "  %s\n", res.Mapping.ConversionType.Describe())
			if res.Mapping.Notes != "" {
				fmt.Fprintf(out, "  notes: %s\n", res.Mapping.Notes)
			}
			if !lookupSuggest || res.Mapping.ConversionType != mapping.Impossible {
				return nil
			}
			if a.cfg.AI.Provider == "" || a.cfg.AI.APIKey == "" {
				return fmt.Errorf("--suggest needs ai.provider and an API key")
			}
			adv, err := advisor.NewGeminiAdvisor(ctx, a.cfg.AI.APIKey, a.cfg.AI.Model, a.logger)
			if err != nil {
				return err
			}
			hint, err := adv.Suggest(ctx, res.Mapping)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  suggestion:\n%s\n", hint)
			return nil
		})
	},
}

var mapCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a mapping",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMapper(func(ctx context.Context, _ *app, m *resolver.Mapper) error {
			created, err := m.Create(ctx, createSig, createTarget, mapping.ConversionType(createType), createNotes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s -> %s)\n", created.ID, created.JavaSignature, created.BedrockEquivalent)
			return nil
		})
	},
}

var mapDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a mapping by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMapper(func(ctx context.Context, _ *app, m *resolver.Mapper) error {
			deleted, err := m.Delete(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%s)\n", deleted.ID, deleted.JavaSignature)
			return nil
		})
	},
}

var mapImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Bulk import mappings from a JSON list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		return withMapper(func(ctx context.Context, _ *app, m *resolver.Mapper) error {
			report, err := m.ImportJSON(ctx, data)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, f := range report.Failures {
				fmt.Fprintf(out, "  item %d (%s): %s\n", f.Index, f.Signature, f.Error)
			}
			fmt.Fprintf(out, "Imported: %d created, %d updated, %d failed\n",
				report.Created, report.Updated, len(report.Failures))
			return nil
		})
	},
}

var mapExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export all mappings as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMapper(func(_ context.Context, _ *app, m *resolver.Mapper) error {
			data, err := mapping.EncodeRecords(m.Export())
			if err != nil {
				return err
			}
			if len(args) == 0 {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			return os.WriteFile(args[0], append(data, '\n'), 0o644)
		})
	},
}

func init() {
	mapLookupCmd.Flags().BoolVar(&lookupSuggest, "suggest", false, "Ask the AI advisor for a hint when no translation exists")

	mapCreateCmd.Flags().StringVar(&createSig, "signature", "", "Fully-qualified Java signature")
	mapCreateCmd.Flags().StringVar(&createTarget, "target", "", "Bedrock equivalent")
	mapCreateCmd.Flags().StringVar(&createType, "type", string(mapping.Direct), "Conversion type: direct, wrapper, complex or impossible")
	mapCreateCmd.Flags().StringVar(&createNotes, "notes", "", "Free-form notes")
	_ = mapCreateCmd.MarkFlagRequired("signature")
	_ = mapCreateCmd.MarkFlagRequired("target")

	mapCmd.AddCommand(mapLookupCmd, mapCreateCmd, mapDeleteCmd, mapImportCmd, mapExportCmd)
}

func withMapper(fn func(ctx context.Context, a *app, m *resolver.Mapper) error) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	store, err := a.openStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open mapping store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			a.logger.Warn("failed to close mapping store", zap.Error(err))
		}
	}()

	m, err := a.newMapper(store)
	if err != nil {
		return err
	}
	return fn(ctx, a, m)
}
