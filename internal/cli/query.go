package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/gbdrill/internal/model"
	"github.com/ppiankov/gbdrill/internal/query"
)

var (
	selLocation string
	selYear     string
	selSexes    string
	selDiseases string
	pretty      bool
)

var childrenCmd = &cobra.Command{
	Use:   "children <parent_id>",
	Short: "List the children of a cause with their rolled-up values",
	Long: `Children aggregates the selection and prints the present children of a
cause as JSON.

Example:
  gbdrill children 409 --location 102 --year 2019
  gbdrill children 409 --location 102 --year 2019 --diseases 491,587 --sexes 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, func(svc *query.Service, sel model.Selection) (any, error) {
			parentID, err := query.ParseID("parent_id", args[0])
			if err != nil {
				return nil, err
			}
			return svc.ChildrenOf(parentID, sel), nil
		})
	},
}

var detailCmd = &cobra.Command{
	Use:   "detail <disease_id>",
	Short: "Show one cause with its per-sex breakdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, func(svc *query.Service, sel model.Selection) (any, error) {
			id, err := query.ParseID("disease_id", args[0])
			if err != nil {
				return nil, err
			}
			return svc.DetailOf(id, sel)
		})
	},
}

var sunburstCmd = &cobra.Command{
	Use:   "sunburst",
	Short: "Print the flattened hierarchy for a sunburst chart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, func(svc *query.Service, sel model.Selection) (any, error) {
			return svc.FlattenForDisplay(sel), nil
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{childrenCmd, detailCmd, sunburstCmd} {
		cmd.Flags().StringVar(&selLocation, "location", "", "location id (required)")
		cmd.Flags().StringVar(&selYear, "year", "", "year (required)")
		cmd.Flags().StringVar(&selSexes, "sexes", "", "comma-separated sex ids (default 1,2)")
		cmd.Flags().StringVar(&selDiseases, "diseases", "", "comma-separated chosen cause ids (default all)")
		cmd.Flags().BoolVar(&pretty, "pretty", false, "indent JSON output")
		rootCmd.AddCommand(cmd)
	}
}

type queryFunc func(svc *query.Service, sel model.Selection) (any, error)

// runQuery validates the selection flags, loads the dataset and prints fn's result
func runQuery(cmd *cobra.Command, fn queryFunc) error {
	sel, err := query.ParseSelection(query.SelectionParams{
		Location: selLocation,
		Year:     selYear,
		Sexes:    selSexes,
		Causes:   selDiseases,
	})
	if err != nil {
		return err
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ds, err := loadService(ctx, cfg, newLogger(cfg.Output.Verbose))
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	out, err := fn(ds.svc, sel)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out, pretty || cfg.Output.Pretty)
}

func printJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
