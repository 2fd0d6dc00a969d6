package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/planwheel/planwheel/pkg/config"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a service spec file",
		Long: `Parse and validate a YAML service spec: struct constraints, unique pod
and plan names, phase pod references, and the presence of a deploy plan.`,
		Example: `  # Validate the default spec file
  planwheel validate

  # Validate a specific file
  planwheel validate ./service.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "service.yaml"
			if len(args) > 0 {
				path = args[0]
			}

			spec, err := config.NewLoader(zerolog.Nop()).Load(path)
			if err != nil {
				return err
			}

			fmt.Printf("%s: valid (%d pods, %d plans)\n", path, len(spec.Pods), len(spec.Plans))
			for _, p := range spec.Plans {
				fmt.Printf("  plan %s: %d phases\n", p.Name, len(p.Phases))
			}
			return nil
		},
	}

	return cmd
}
