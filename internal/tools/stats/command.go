package stats

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"memberboard/internal/config"
	"memberboard/internal/database"
	"memberboard/internal/repository"
	"memberboard/internal/service"
	"memberboard/internal/tools/common"
	"memberboard/internal/tools/ui"
)

type options struct {
	envFile string
	ci      bool
}

func NewCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "stats", Short: "Account statistics"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newShowCommand(opts))
	return cmd
}

func newShowCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print membership totals and activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "stats show", func(ctx context.Context) ([]string, error) {
				if err := common.LoadEnvFile(opts.envFile); err != nil {
					return nil, err
				}
				cfg, err := config.Load()
				if err != nil {
					return nil, err
				}
				db, err := database.Open(cfg)
				if err != nil {
					return nil, err
				}
				sqlDB, _ := db.DB()
				defer func() { _ = sqlDB.Close() }()

				accounts := service.NewAccountService(repository.NewAccountRepository(db))
				stats, err := accounts.Statistics()
				if err != nil {
					return nil, err
				}
				return []string{
					fmt.Sprintf("total accounts: %d", stats.TotalCount),
					fmt.Sprintf("active today: %d", stats.TodayActive),
					fmt.Sprintf("weekly average: %.2f", stats.WeeklyAverage),
				}, nil
			})
			if opts.ci {
				common.PrintReport(err == nil, "stats show", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		return fn(context.Background())
	}
	return ui.Run(title, fn)
}
