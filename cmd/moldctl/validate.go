package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vitaliisemenov/moldctl/internal/plugin/jsonplugin"
	"github.com/vitaliisemenov/moldctl/pkg/moldapi"
)

func newValidateCmd() *cobra.Command {
	var version string

	cmd := &cobra.Command{
		Use:   "validate <mold.json> <config.json>",
		Short: "Validate a config document against its mold",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := buildLogger(cfg)
			plugin := jsonplugin.New(log)

			mold, err := plugin.MoldRead(args[0])
			if err != nil {
				return fmt.Errorf("read mold: %w", err)
			}
			defer moldapi.Destroy(mold)

			doc, err := plugin.ConfigRead(args[1], mold)
			if err != nil {
				return fmt.Errorf("read config: %w", err)
			}
			defer moldapi.Destroy(doc)

			target, err := moldapi.MoldGetVersion(mold)
			if err != nil {
				return fmt.Errorf("read mold version: %w", err)
			}
			if version != "" {
				target, err = moldapi.VersionFromString(version)
				if err != nil {
					return fmt.Errorf("parse --version: %w", err)
				}
			}

			status, messages := moldapi.ValidateTree(doc, target)
			for _, m := range messages {
				cmd.Println(m)
			}
			cmd.Printf("status: %s\n", status.String())
			if status != moldapi.StatusOK {
				return fmt.Errorf("validation failed: %s", status.String())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "version to validate against (default: mold's declared version)")
	return cmd
}
