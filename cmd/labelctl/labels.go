package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/labelbridge/backend/internal/bootstrap"
	"github.com/labelbridge/backend/internal/domain/label"
	"github.com/spf13/cobra"
)

func newPrepareCmd(c *cli) *cobra.Command {
	var footer string

	cmd := &cobra.Command{
		Use:   "prepare <record-id>...",
		Short: "Normalize the label attachment of sale records",
		Long: `Reads the label attachment of each record, classifies it into a carrier
profile and writes a 100x150mm PDF to the label store.

A failing record is reported and does not stop the others.`,
		Example: `  # Prepare two records
  labelctl prepare 7b0e... 19f2...

  # Add the product number and date below the label
  labelctl prepare 7b0e... --footer product,date`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			footerCfg, err := parseFooter(footer)
			if err != nil {
				return err
			}

			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				resp, err := app.Labels.Prepare(ctx, ids, footerCfg)
				if resp != nil {
					out := cmd.OutOrStdout()
					for _, l := range resp.Labels {
						fmt.Fprintf(out, "%s  record=%s  profile=%s  %s\n", l.ID, l.RecordID, l.ProfileID, l.OutputPath)
					}
					for _, msg := range resp.Errors {
						fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", msg)
					}
					if err == nil && len(resp.Labels) == 0 && len(resp.Errors) > 0 {
						return fmt.Errorf("no label could be prepared")
					}
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&footer, "footer", "", "comma separated footer fields: product, title, date")
	return cmd
}

// parseFooter turns "product,title,date" into a footer selection; "" means no footer
func parseFooter(value string) (*label.FooterConfig, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	var names []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, strings.ToLower(part))
		}
	}
	cfg, ok := label.FooterFieldsFromNames(names)
	if !ok {
		return nil, fmt.Errorf("invalid footer fields %q: use product, title or date", value)
	}
	return cfg, nil
}

func newProfilesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the label profiles in classification order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(_ context.Context, app *bootstrap.App) error {
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tNAME\tCARRIERS\tFALLBACK")
				for _, p := range app.Profiles.Profiles() {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", p.ID, p.Name, strings.Join(p.Carriers, ","), p.Fallback)
				}
				return tw.Flush()
			})
		},
	}
}
