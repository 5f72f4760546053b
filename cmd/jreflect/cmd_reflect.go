package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/jreflect/format"
	"github.com/dhamidi/jreflect/java/reflector"
)

func newReflectCmd() *cobra.Command {
	var (
		reflectFormat string
		memberName    string
		staticOnly    bool
		showStats     bool
	)

	cmd := &cobra.Command{
		Use:   "reflect <name[<args>]>",
		Short: "Print the merged members of a class, including inherited ones",
		Long: `Print every member visible on a class, walking its superclasses and
interfaces. Type arguments bind the class's type parameters:

  jreflect reflect -c rt.jar 'java.util.Map<java.lang.String, java.lang.Integer>'`,
		Args: cobra.ExactArgs(1),
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
			var members []*reflector.MemberDescriptor
			for _, m := range a.cache.Reflect(args[0]) {
				if memberName != "" && m.Name != memberName {
					continue
				}
				if staticOnly && !m.IsStatic() {
					continue
				}
				members = append(members, m)
			}

			enc, err := newEncoder(os.Stdout, reflectFormat)
			if err != nil {
				return err
			}
			if err := enc.Encode(&format.Class{Index: ci, Members: members}); err != nil {
				return err
			}
			if showStats {
				s := a.cache.Stats()
				fmt.Fprintf(os.Stderr, "scans=%d manifest=%d reflections=%d memory=%d blob=%d corrupt=%d\n",
					s.ContainerScans, s.ManifestHits, s.Reflections, s.MemoryHits, s.BlobHits, s.Corrupt)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&reflectFormat, "format", "f", "line", "output format (line, json, java)")
	cmd.Flags().StringVarP(&memberName, "member", "m", "", "only show members with this name")
	cmd.Flags().BoolVar(&staticOnly, "static", false, "only show static members")
	cmd.Flags().BoolVar(&showStats, "stats", false, "print cache statistics to stderr")

	return cmd
}
