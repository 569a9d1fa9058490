package main

import (
	"context"
	"fmt"
	"io"

	printingapp "github.com/labelbridge/backend/internal/application/printing"
	"github.com/labelbridge/backend/internal/bootstrap"
	"github.com/labelbridge/backend/internal/domain/printing"
	"github.com/spf13/cobra"
)

func newPrintCmd(c *cli) *cobra.Command {
	var (
		printer string
		wait    bool
	)

	cmd := &cobra.Command{
		Use:   "print <label-id>...",
		Short: "Print prepared labels in the given order",
		Long: `Creates a print job and submits every label to the printer in order.

The command returns once the job has finished. With --wait the final status of
every label is shown as well.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				job, err := app.Printing.StartJob(ctx, ids, printer)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "job %s started on %s (%d labels)\n", job.ID, job.PrinterName, job.TotalCount)
				if !wait {
					return nil
				}
				return waitAndReport(ctx, cmd.OutOrStdout(), app, job.ID.String())
			})
		},
	}
	cmd.Flags().StringVarP(&printer, "printer", "p", "", "printer name (default: system default printer)")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "wait for the job and show the status of every label")
	return cmd
}

func waitAndReport(ctx context.Context, out io.Writer, app *bootstrap.App, id string) error {
	ids, err := parseIDs([]string{id})
	if err != nil {
		return err
	}
	if err := app.Printing.Wait(ctx, ids[0]); err != nil {
		return err
	}
	job, err := app.Printing.Status(ctx, ids[0])
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("print job %s not found", id)
	}
	writeJob(out, job)
	if job.Status == printing.JobStatusFailed.String() {
		return fmt.Errorf("print job %s failed", job.ID)
	}
	return nil
}

func writeJob(out io.Writer, job *printingapp.JobResponse) {
	fmt.Fprintf(out, "job %s  printer=%s  status=%s  printed=%d/%d\n",
		job.ID, job.PrinterName, job.Status, job.PrintedCount, job.TotalCount)
	tw := newTable(out)
	fmt.Fprintln(tw, "#\tLABEL\tSTATUS\tERROR")
	for _, item := range job.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", item.Position+1, item.LabelID, item.Status, item.Error)
	}
	_ = tw.Flush()
}

func newPrintersCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "printers",
		Short: "List installed printers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				printers, err := app.Printing.ListPrinters(ctx)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "NAME\tDEFAULT\tSTATUS")
				for _, p := range printers {
					fmt.Fprintf(tw, "%s\t%t\t%s\n", p.Name, p.IsDefault, p.Status)
				}
				return tw.Flush()
			})
		},
	}
}

func newJobsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage print jobs",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent print jobs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				jobs, err := app.Printing.List(ctx, limit)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tPRINTER\tSTATUS\tPRINTED\tCREATED")
				for _, j := range jobs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\n",
						j.ID, j.PrinterName, j.Status, j.PrintedCount, j.TotalCount, j.CreatedAt.Local().Format("2006-01-02 15:04"))
				}
				return tw.Flush()
			})
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 0, "number of jobs (default: printing.recent_jobs_limit)")

	status := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show a print job and its labels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				job, err := app.Printing.Status(ctx, ids[0])
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("print job %s not found", ids[0])
				}
				writeJob(cmd.OutOrStdout(), job)
				return nil
			})
		},
	}

	var printer string
	retry := &cobra.Command{
		Use:   "retry <job-id>",
		Short: "Re-run a finished job, optionally on another printer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				job, err := app.Printing.Retry(ctx, ids[0], printer)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "job %s restarted on %s\n", job.ID, job.PrinterName)
				return waitAndReport(ctx, cmd.OutOrStdout(), app, job.ID.String())
			})
		},
	}
	retry.Flags().StringVarP(&printer, "printer", "p", "", "print on another printer")

	del := &cobra.Command{
		Use:   "delete <job-id>",
		Short: "Delete a job and purge the printer queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.Printing.Delete(ctx, ids[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "job %s deleted\n", ids[0])
				return nil
			})
		},
	}

	cmd.AddCommand(list, status, retry, del)
	return cmd
}
