package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/arnie-db/arnie"
	"github.com/arnie-db/arnie/internal/cli"
	"github.com/logrusorgru/aurora/v3"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const commandTimeout = 120 * time.Second

func main() {
	var folder string
	var noColor bool

	root := &cobra.Command{
		Use:           "arnie",
		Short:         "Migrations. Down. Up.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&folder, "folder", "f", cli.DefaultFolder, "project folder holding arnie.yml and the migrations")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		initCmd(&folder),
		statusCmd(&folder, &noColor),
		upCmd(&folder, &noColor),
		downCmd(&folder, &noColor),
	)

	if err := root.Execute(); err != nil {
		au := aurora.NewAurora(!noColor)
		fmt.Println(au.Red("arnie: "), err.Error())
		os.Exit(1)
	}
}

func initCmd(folder *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Scaffold the project folder with a configuration file and a migrations directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cli.Init(*folder); err != nil {
				return err
			}

			cmd.Printf("initialized project in [%s]\n", *folder)
			return nil
		},
	}
}

func statusCmd(folder *string, noColor *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the latest applied migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			app, createErr := cli.NewFromFolder(*folder, *noColor)
			if createErr != nil {
				return createErr
			}

			defer func() {
				if closeErr := app.Close(); closeErr != nil && err == nil {
					err = closeErr
				}
			}()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			latest, err := app.Status(ctx)
			if err != nil {
				return err
			}

			if latest == nil {
				cmd.Println("no migrations applied yet")
				return nil
			}

			cmd.Printf("migration [%s] applied on %s\n", latest.Name, latest.AppliedOn.Format(time.RFC3339))
			return nil
		},
	}
}

func upCmd(folder *string, noColor *bool) *cobra.Command {
	var fake bool

	cmd := &cobra.Command{
		Use:   "up <count>",
		Short: "Apply the next <count> pending migrations, 0 meaning all of them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			count, err := parseCount(args[0])
			if err != nil {
				return err
			}

			app, createErr := cli.NewFromFolder(*folder, *noColor)
			if createErr != nil {
				return createErr
			}

			defer func() {
				if closeErr := app.Close(); closeErr != nil && err == nil {
					err = closeErr
				}
			}()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			rep, err := app.Up(ctx, count, fake)
			if err != nil {
				return err
			}

			printSummary(cmd, rep)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fake, "fake", false, "record the migrations in the ledger without executing them")

	return cmd
}

func downCmd(folder *string, noColor *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "down <count>",
		Short: "Revert the last <count> applied migrations, 0 meaning all of them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			count, err := parseCount(args[0])
			if err != nil {
				return err
			}

			app, createErr := cli.NewFromFolder(*folder, *noColor)
			if createErr != nil {
				return createErr
			}

			defer func() {
				if closeErr := app.Close(); closeErr != nil && err == nil {
					err = closeErr
				}
			}()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			rep, err := app.Down(ctx, count)
			if err != nil {
				return err
			}

			printSummary(cmd, rep)
			return nil
		},
	}
}

func parseCount(arg string) (int, error) {
	count, err := strconv.Atoi(arg)
	if err != nil {
		return 0, errors.Errorf("count must be an integer, got [%s]", arg)
	}

	return count, nil
}

func printSummary(cmd *cobra.Command, rep arnie.Report) {
	if rep.Outcome != arnie.OutcomeCompleted {
		return
	}

	cmd.Printf("\n%d migration(s) went %s\n", len(rep.Results), rep.Direction)
}
