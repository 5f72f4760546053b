package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/jreflect/format"
)

func newIndexCmd() *cobra.Command {
	var indexFormat string

	cmd := &cobra.Command{
		Use:   "index <fqcn>",
		Short: "Print the index entry of a class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ci, ok := a.cache.Lookup(args[0])
			if !ok {
				return fmt.Errorf("class %s not found", args[0])
			}
			enc, err := newEncoder(os.Stdout, indexFormat)
			if err != nil {
				return err
			}
			return enc.Encode(&format.Class{Index: ci})
		},
	}

	cmd.Flags().StringVarP(&indexFormat, "format", "f", "line", "output format (line, json, java)")

	return cmd
}
