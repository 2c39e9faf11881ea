package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vitaliisemenov/moldctl/internal/plugin/jsonplugin"
	"github.com/vitaliisemenov/moldctl/pkg/moldapi"
)

func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <mold.json> <left.json> <right.json>",
		Short: "Structurally compare two config documents bound to the same mold",
		Args:  cobra.ExactArgs(3),
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

			left, err := plugin.ConfigRead(args[1], mold)
			if err != nil {
				return fmt.Errorf("read left config: %w", err)
			}
			defer moldapi.Destroy(left)

			right, err := plugin.ConfigRead(args[2], mold)
			if err != nil {
				return fmt.Errorf("read right config: %w", err)
			}
			defer moldapi.Destroy(right)

			status, report, err := moldapi.Compare(left, right)
			if err != nil {
				return err
			}
			if status == moldapi.StatusOK {
				cmd.Println("no differences")
				return nil
			}
			for _, line := range report {
				cmd.Println(line)
			}
			return nil
		},
	}
	return cmd
}
