package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/app"
	"github.com/VadimVthvPro/PRO-pitashka/internal/calc"
	"github.com/VadimVthvPro/PRO-pitashka/internal/database"
	"github.com/VadimVthvPro/PRO-pitashka/internal/service"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(ctx context.Context, db *gorm.DB) error {
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed-training-types",
	Short: "Fill an empty training_types table with the default types",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(ctx context.Context, db *gorm.DB) error {
			n, err := database.SeedTrainingTypes(ctx, db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d training types\n", n)
			return nil
		})
	},
}

var (
	usersLimit  int
	usersOffset int
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered users",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
			users, err := svc.Users.ListUsers(ctx, usersLimit, usersOffset)
			if err != nil {
				return err
			}
			total, err := svc.Users.GetUsersCount(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSEX\tBIRTHDATE\tCREATED")
			for _, u := range users {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.UserID, u.UserName, u.Sex,
					u.DateOfBirth.Format("2006-01-02"), u.CreatedAt.Format("2006-01-02 15:04"))
			}
			fmt.Fprintf(w, "total: %d\n", total)
			return w.Flush()
		})
	},
}

var (
	summaryUser   int64
	summaryPeriod string
	summaryDate   string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print a day, month or year summary as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		period, ok := service.ParsePeriod(summaryPeriod)
		if !ok {
			return fmt.Errorf("--period must be day, month or year")
		}
		day, err := parseDate("date", summaryDate, time.Now())
		if err != nil {
			return err
		}
		return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
			report, err := svc.Summaries.Summary(ctx, summaryUser, period, day)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		})
	},
}

var (
	exportUser int64
	exportFrom string
	exportTo   string
	exportOut  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's diary to an xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := parseDate("to", exportTo, calc.Day(time.Now()))
		if err != nil {
			return err
		}
		from, err := parseDate("from", exportFrom, to.AddDate(0, -1, 0))
		if err != nil {
			return err
		}
		out := exportOut
		if out == "" {
			out = fmt.Sprintf("diary_%d_%s_%s.xlsx", exportUser, from.Format("2006-01-02"), to.Format("2006-01-02"))
		}
		return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
			f, err := svc.Exporter.UserWorkbook(ctx, exportUser, from, to)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := f.SaveAs(out); err != nil {
				return fmt.Errorf("save %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", out)
			return nil
		})
	},
}

var trainingTypesCmd = &cobra.Command{
	Use:   "training-types",
	Short: "List training types with their calorie coefficients",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, svc *app.Services) error {
			types, err := svc.Workouts.AllTrainingTypes(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME_RU\tNAME_EN\tCOEF\tACTIVE")
			for _, t := range types {
				fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%t\n", t.ID, t.NameRU, t.NameEN, t.BaseCoefficient, t.IsActive)
			}
			return w.Flush()
		})
	},
}

func init() {
	usersCmd.Flags().IntVar(&usersLimit, "limit", 50, "Max users to print")
	usersCmd.Flags().IntVar(&usersOffset, "offset", 0, "Users to skip")

	summaryCmd.Flags().Int64Var(&summaryUser, "user", 0, "Telegram user ID")
	summaryCmd.Flags().StringVar(&summaryPeriod, "period", "day", "day|month|year")
	summaryCmd.Flags().StringVar(&summaryDate, "date", "", "Reference date YYYY-MM-DD (default today)")
	_ = summaryCmd.MarkFlagRequired("user")

	exportCmd.Flags().Int64Var(&exportUser, "user", 0, "Telegram user ID")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "First day YYYY-MM-DD (default a month before --to)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Last day YYYY-MM-DD (default today)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file")
	_ = exportCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(migrateCmd, seedCmd, usersCmd, summaryCmd, exportCmd, trainingTypesCmd)
}
