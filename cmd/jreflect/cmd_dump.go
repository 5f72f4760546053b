package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dhamidi/jreflect/classfile"
	"github.com/dhamidi/jreflect/format"
	"github.com/dhamidi/jreflect/java/reflector"
)

func newDumpCmd() *cobra.Command {
	var (
		dumpFormat     string
		includePrivate bool
	)

	cmd := &cobra.Command{
		Use:   "dump <file.class>",
		Short: "Dump the index entry and declared members of one class file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			if ext := filepath.Ext(filename); ext != ".class" {
				return fmt.Errorf("unsupported file extension: %s (expected .class)", ext)
			}

			cf, err := classfile.ParseFile(filename)
			if err != nil {
				return fmt.Errorf("parse class file: %w", err)
			}
			ci, _, err := reflector.IndexClass(cf, false)
			if err != nil {
				return fmt.Errorf("index class file: %w", err)
			}
			ci.Origin = filename

			enc, err := newEncoder(os.Stdout, dumpFormat)
			if err != nil {
				return err
			}
			members := reflector.Members(cf, reflector.Options{IncludePrivate: includePrivate})
			if err := enc.Encode(&format.Class{Index: ci, Members: members}); err != nil {
				return fmt.Errorf("encode %s: %w", dumpFormat, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dumpFormat, "format", "f", "line", "output format (line, json, java)")
	cmd.Flags().BoolVarP(&includePrivate, "private", "p", false, "include private members")

	return cmd
}
