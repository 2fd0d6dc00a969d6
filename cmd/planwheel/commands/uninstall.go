package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/planwheel/planwheel/pkg/cluster"
	"github.com/planwheel/planwheel/pkg/coordinator"
	"github.com/planwheel/planwheel/pkg/plan"
	"github.com/planwheel/planwheel/pkg/stores"
	"github.com/planwheel/planwheel/pkg/telemetry"
	"github.com/planwheel/planwheel/pkg/uninstall"
)

func newUninstallCommand(version string) *cobra.Command {
	var (
		dbPath   string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Tear down the service recorded in the state database",
		Long: `Build and run the uninstall plan from the state database: kill every
recorded task, tombstone every reserved resource, then deregister the
service and wipe the store. If the service never registered there is
nothing to do and the command exits immediately.`,
		Example: `  # Uninstall the service tracked in the default database
  planwheel uninstall --db ./planwheel.db`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			tel, err := telemetry.New(telemetryConfig(version, "planwheel-uninstall", false))
			if err != nil {
				return fmt.Errorf("failed to initialize telemetry: %w", err)
			}
			defer func() {
				_ = tel.Shutdown(ctx)
			}()
			logger := tel.Logger

			store, err := stores.NewSQLiteStore(stores.Config{Path: dbPath})
			if err != nil {
				return err
			}
			if err := store.Init(ctx); err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()
			if err := store.Migrate(ctx); err != nil {
				return err
			}

			driver := cluster.NewLocalDriver(logger)
			p, err := uninstall.NewBuilder(store, driver, nil, "", logger).Build(ctx)
			if err != nil {
				return err
			}

			manager := plan.NewDefaultPlanManager(p)
			p.Proceed()
			coord := coordinator.New([]plan.PlanManager{manager}, tel.Metrics, tel.Tracer, logger)

			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case update := <-driver.Updates():
						coord.Update(update)
					}
				}
			}()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for !p.IsComplete() {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					coord.ProcessCycle(ctx)
					if p.Status() == plan.StatusError {
						return fmt.Errorf("uninstall failed: %v", p.Errors())
					}
				}
			}

			logger.Info().Msg("Uninstall complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "planwheel.db", "state database path")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "scheduling cycle interval")

	return cmd
}
