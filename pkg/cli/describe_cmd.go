package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rhoneyager-tomorrow/ioda-converters-1/bufr"
	"github.com/rhoneyager-tomorrow/ioda-converters-1/internal/fixture"
	"github.com/rhoneyager-tomorrow/ioda-converters-1/internal/mapping"
)

func newDescribeCmd() *cobra.Command {
	var mappingPath, fixturePath string

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Resolve a mapping against a fixture's first subset and print each field's targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := mapping.LoadFile(mappingPath)
			if err != nil {
				return err
			}
			f, err := fixture.LoadFile(fixturePath)
			if err != nil {
				return err
			}

			subset := f.Subsets[0]
			table := bufr.NewSubsetTable(subset)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "subset %s (%d nodes)\n", subset.GetSubset(), subset.GetIsc(subset.GetInode())-subset.GetInode()+1)
			for _, field := range m.Fields {
				fmt.Fprintf(out, "%s:\n", field.Name)
				for _, str := range field.QueryStrings() {
					q, err := bufr.ParseQuery(str)
					if err != nil {
						return err
					}
					if !q.IsAnySubset && q.Subset.Name != subset.GetSubset() {
						fmt.Fprintf(out, "  %-24s other subset\n", str)
						continue
					}
					node, err := table.GetNodeForPath(q.Path)
					if err != nil {
						return err
					}
					if node == nil {
						fmt.Fprintf(out, "  %-24s no match\n", str)
						continue
					}
					fmt.Fprintf(out, "  %-24s node %d  dims %s  %s\n",
						str, node.NodeIdx,
						strings.Join(node.GetDimPaths(), " "),
						describeTypeInfo(node.TypeInfo))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mappingPath, "mapping", "m", "", "mapping file (required)")
	cmd.Flags().StringVarP(&fixturePath, "fixture", "f", "", "fixture file (required)")
	_ = cmd.MarkFlagRequired("mapping")
	_ = cmd.MarkFlagRequired("fixture")

	return cmd
}

func describeTypeInfo(info bufr.TypeInfo) string {
	if info.IsString() {
		return "string"
	}
	kind := "float"
	if info.IsInteger() {
		kind = "uint"
		if info.IsSigned() {
			kind = "int"
		}
	}
	if info.Unit != "" {
		return fmt.Sprintf("%s(%d bits, %s)", kind, info.Bits, info.Unit)
	}
	return fmt.Sprintf("%s(%d bits)", kind, info.Bits)
}
