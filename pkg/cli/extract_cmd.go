package cli

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rhoneyager-tomorrow/ioda-converters-1/bufr"
	"github.com/rhoneyager-tomorrow/ioda-converters-1/internal/arrowio"
	"github.com/rhoneyager-tomorrow/ioda-converters-1/internal/fixture"
	"github.com/rhoneyager-tomorrow/ioda-converters-1/internal/mapping"
)

func newExtractCmd() *cobra.Command {
	var mappingPath, fixturePath string
	var asArrow bool

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Accumulate every fixture subset and materialize each mapped field",
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
			qs, err := m.BuildQuerySet()
			if err != nil {
				return err
			}

			resultSet := bufr.NewResultSet(slog.Default())
			cursor := f.Cursor()
			runner := bufr.NewQueryRunner(qs, resultSet, cursor, slog.Default())
			subsets := 0
			for cursor.Next() {
				if err := runner.Accumulate(); err != nil {
					return fmt.Errorf("subset %d: %w", subsets+1, err)
				}
				subsets++
			}
			slog.Debug("accumulated subsets", "count", subsets)

			objects := make([]bufr.DataObject, 0, len(m.Fields))
			for _, field := range m.Fields {
				obj, err := resultSet.Get(field.Name, m.GroupBy, m.OverrideFor(field.Name))
				if err != nil {
					return err
				}
				objects = append(objects, obj)
			}

			out := cmd.OutOrStdout()
			if asArrow {
				rec, err := arrowio.Record(objects)
				if err != nil {
					return err
				}
				defer rec.Release()
				fmt.Fprintln(out, rec.Schema())
				for i, col := range rec.Columns() {
					fmt.Fprintf(out, "%s: %s\n", rec.ColumnName(i), col)
				}
				return nil
			}

			for _, obj := range objects {
				fmt.Fprintf(out, "%s dims=%s paths=%s\n", obj.FieldName(),
					formatDims(obj.Dims()), strings.Join(obj.DimPaths(), " "))
				fmt.Fprintf(out, "  %s\n", formatValues(obj))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mappingPath, "mapping", "m", "", "mapping file (required)")
	cmd.Flags().StringVarP(&fixturePath, "fixture", "f", "", "fixture file (required)")
	cmd.Flags().BoolVar(&asArrow, "arrow", false, "print the result as an Arrow record")
	_ = cmd.MarkFlagRequired("mapping")
	_ = cmd.MarkFlagRequired("fixture")

	return cmd
}

func formatDims(dims []int) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = strconv.Itoa(d)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func formatValues(obj bufr.DataObject) string {
	parts := make([]string, obj.Size())
	for i := 0; i < obj.Size(); i++ {
		if obj.IsMissing(i) {
			parts[i] = "-"
			continue
		}
		if s, ok := obj.(*bufr.StringDataObject); ok {
			parts[i] = s.Data()[i]
			continue
		}
		parts[i] = strconv.FormatFloat(obj.Raw()[i], 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}
