package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/planwheel/planwheel/pkg/api"
	"github.com/planwheel/planwheel/pkg/cluster"
	"github.com/planwheel/planwheel/pkg/config"
	"github.com/planwheel/planwheel/pkg/coordinator"
	"github.com/planwheel/planwheel/pkg/deploy"
	"github.com/planwheel/planwheel/pkg/plan"
	"github.com/planwheel/planwheel/pkg/stores"
	"github.com/planwheel/planwheel/pkg/telemetry"
)

func newServeCommand(version string) *cobra.Command {
	var (
		specPath  string
		dbPath    string
		listen    string
		interval  time.Duration
		metrics   bool
		watchSpec bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the control API",
		Long: `Run the plan scheduler for a service spec.

Builds every plan declared in the spec, drives them through scheduling
cycles, and exposes the control API for inspecting and steering progress.
Plans start interrupted; POST /v1/plans/{name}/continue (or start) sets
them running.`,
		Example: `  # Serve a service spec with the default local driver
  planwheel serve --spec ./service.yaml --db ./planwheel.db

  # Custom listen address and faster scheduling cycles
  planwheel serve --spec ./service.yaml --listen :8080 --interval 1s`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			tel, err := telemetry.New(telemetryConfig(version, "planwheel", metrics))
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

			loader := config.NewLoader(logger)
			spec, err := loader.Load(specPath)
			if err != nil {
				return err
			}

			driver := cluster.NewLocalDriver(logger)
			builder := deploy.NewBuilder(spec, driver, store, logger)

			managers, err := buildManagers(builder, spec)
			if err != nil {
				return err
			}
			coord := coordinator.New(managers, tel.Metrics, tel.Tracer, logger)

			if watchSpec {
				err := loader.Watch(ctx, specPath, func(next *config.ServiceSpec) error {
					nextBuilder := deploy.NewBuilder(next, driver, store, logger)
					nextManagers, err := buildManagers(nextBuilder, next)
					if err != nil {
						return err
					}
					coord.SetManagers(nextManagers)
					return nil
				})
				if err != nil {
					return err
				}
				defer func() {
					_ = loader.StopWatching()
				}()
			}

			go coord.Run(ctx, interval)
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

			server := api.NewServer(coord, tel.Metrics, logger)
			return server.ListenAndServe(ctx, listen)
		},
	}

	cmd.Flags().StringVar(&specPath, "spec", "service.yaml", "service spec file path")
	cmd.Flags().StringVar(&dbPath, "db", "planwheel.db", "state database path")
	cmd.Flags().StringVar(&listen, "listen", ":8080", "control API listen address")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "scheduling cycle interval")
	cmd.Flags().BoolVar(&metrics, "metrics", true, "expose Prometheus metrics on /metrics")
	cmd.Flags().BoolVar(&watchSpec, "watch", false, "watch the spec file and rebuild plans on change")

	return cmd
}

// buildManagers builds one manager per declared plan, deploy first so it
// wins asset conflicts against secondary plans.
func buildManagers(builder *deploy.Builder, spec *config.ServiceSpec) ([]plan.PlanManager, error) {
	names := make([]string, 0, len(spec.Plans))
	names = append(names, "deploy")
	for _, p := range spec.Plans {
		if p.Name != "deploy" {
			names = append(names, p.Name)
		}
	}

	managers := make([]plan.PlanManager, 0, len(names))
	for _, name := range names {
		p, err := builder.Build(name)
		if err != nil {
			return nil, err
		}
		managers = append(managers, plan.NewDefaultPlanManager(p))
	}
	return managers, nil
}
