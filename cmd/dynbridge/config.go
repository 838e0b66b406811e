package main

import (
	"fmt"
	"os"

	"github.com/san-kum/dynbridge/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "inspect presets and write settings or simulator archives",
	}

	presets := &cobra.Command{
		Use:   "presets",
		Short: "list simulator presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	show := &cobra.Command{
		Use:   "show [preset]",
		Short: "print the resolved simulator properties",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				sim *config.Simulator
				err error
			)
			if len(args) == 1 {
				sim, err = config.GetPreset(args[0])
			} else {
				sim, err = settings.Simulator()
			}
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(sim)
		},
	}

	archive := &cobra.Command{
		Use:   "archive [file]",
		Short: "write the resolved simulator properties as an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sim, err := settings.Simulator()
			if err != nil {
				return err
			}
			a := config.NewMapArchive()
			sim.Store(a)
			if err := a.Save(args[0]); err != nil {
				return err
			}
			fmt.Printf("wrote %d keys to %s\n", len(a.Keys()), args[0])
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "write a default settings file into the settings directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteDefaultSettings(settingsDir)
			if err != nil {
				return err
			}
			fmt.Printf("settings: %s\n", path)
			return nil
		},
	}

	cmd.AddCommand(presets, show, archive, initCmd)
	return cmd
}
