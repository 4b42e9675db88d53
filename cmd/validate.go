package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ezenkico/deploy-commander/stagehand/config"
	"github.com/ezenkico/deploy-commander/stagehand/services/registry"
)

func newValidateCmd() *cobra.Command {
	var (
		configPath string
		exclude    []string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a definition file and print the start order",
		Long: `Loads the definition file, applies the exclusions and checks the
dependency graph without touching Docker. On success the services are
printed in an order in which they could be started.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ResolvePath(configPath)
			if err != nil {
				return err
			}
			f, err := config.LoadFile(path)
			if err != nil {
				return err
			}
			defs, err := f.Definitions()
			if err != nil {
				return err
			}

			reg := registry.New(defs...)
			if err := reg.Load(cleanNames(exclude)); err != nil {
				return err
			}

			printf(cmd, "%s: %d services\n", path, reg.Len())
			for i, name := range reg.StartOrder() {
				def, _ := reg.Get(name)
				if len(def.DependsOn) == 0 {
					printf(cmd, "%2d. %s\n", i+1, name)
					continue
				}
				printf(cmd, "%2d. %s (after %s)\n", i+1, name, strings.Join(def.DependsOn, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Definition file (default ./stagehand.yaml)")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Services to leave out, comma separated")
	return cmd
}

// cleanNames trims the names given on the command line and drops empty ones.
func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
