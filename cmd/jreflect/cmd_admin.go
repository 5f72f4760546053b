package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/jreflect/config"
)

func newEvictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evict <fqcn>...",
		Short: "Drop the cached members of classes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			for _, fqcn := range args {
				a.cache.Evict(fqcn)
				fmt.Printf("evicted %s\n", fqcn)
			}
			return nil
		},
	}
}

func newResetCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget cached results derived from loose class files",
		Long: `Forget cached results derived from loose class files and re-index the
class directories on the class path. With --all the whole file cache
directory is removed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				if cfg.Cache.Store != config.StoreFile {
					return fmt.Errorf("--all only applies to the file store, not %s", cfg.Cache.Store)
				}
				if err := os.RemoveAll(cfg.Cache.Dir); err != nil {
					return fmt.Errorf("remove %s: %w", cfg.Cache.Dir, err)
				}
				fmt.Printf("removed %s\n", cfg.Cache.Dir)
				return nil
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			return a.cache.ResetLoose()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "remove the entire cache directory")

	return cmd
}
