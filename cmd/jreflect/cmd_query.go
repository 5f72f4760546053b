package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dhamidi/jreflect/format"
	"github.com/dhamidi/jreflect/java/reflector"
)

func newSearchCmd() *cobra.Command {
	var (
		annotations bool
		inner       bool
	)

	cmd := &cobra.Command{
		Use:   "search <name>",
		Short: "Find classes by simple name, member-class name or FQCN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			enc := format.NewLineEncoder(os.Stdout)
			var results []*reflector.ClassIndex
			if inner {
				results = a.cache.InnerClasses(args[0])
			} else {
				results = a.cache.SearchClasses(args[0], annotations)
			}
			for _, ci := range results {
				if err := enc.Encode(&format.Class{Index: ci}); err != nil {
					return err
				}
			}
			if len(results) == 0 {
				if fqcn, ok := a.cache.ClassNameToFQCN(args[0]); ok {
					fmt.Println(fqcn)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&annotations, "annotations", "a", false, "include annotation types")
	cmd.Flags().BoolVarP(&inner, "inner", "i", false, "list the member classes of the named class instead")

	return cmd
}

func newPackageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "package <name>",
		Short: "List the top-level classes of a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			classes := a.cache.PackageClasses(args[0])
			names := make([]string, 0, len(classes))
			for simple := range classes {
				names = append(names, simple)
			}
			sort.Strings(names)
			for _, simple := range names {
				fmt.Printf("%s\t%s\n", simple, classes[simple])
			}
			return nil
		},
	}
}

func newSupersCmd() *cobra.Command {
	var implements string

	cmd := &cobra.Command{
		Use:   "supers <fqcn>",
		Short: "List every supertype of a class, ending with java.lang.Object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if _, ok := a.cache.Lookup(args[0]); !ok {
				return fmt.Errorf("class %s not found", args[0])
			}
			if implements != "" {
				fmt.Println(a.cache.IsImplements(args[0], implements))
				return nil
			}
			for _, s := range a.cache.SuperClasses(args[0]) {
				fmt.Println(s)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&implements, "implements", "", "only report whether the class is a subtype of this one")

	return cmd
}
