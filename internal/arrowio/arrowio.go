// Package arrowio converts materialized data objects into Arrow records.
// Each field becomes a list column with one entry per subset row; missing
// cells become nulls.
package arrowio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/rhoneyager-tomorrow/ioda-converters-1/bufr"
)

// Record assembles one Arrow record from the given data objects. All
// objects must come from the same ResultSet so that their leading (subset)
// dimension agrees.
func Record(objects []bufr.DataObject) (arrow.Record, error) {
	if len(objects) == 0 {
		return nil, fmt.Errorf("no data objects to convert")
	}

	rows := leadingDim(objects[0])
	mem := memory.DefaultAllocator

	fields := make([]arrow.Field, 0, len(objects))
	cols := make([]arrow.Array, 0, len(objects))
	for _, obj := range objects {
		if r := leadingDim(obj); r != rows {
			return nil, fmt.Errorf("field %q has %d rows, expected %d", obj.FieldName(), r, rows)
		}

		col, typ, err := buildColumn(mem, obj, rows)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
		fields = append(fields, arrow.Field{
			Name:     obj.FieldName(),
			Type:     typ,
			Nullable: true,
			Metadata: fieldMetadata(obj),
		})
	}

	schema := arrow.NewSchema(fields, nil)
	return array.NewRecord(schema, cols, int64(rows)), nil
}

func leadingDim(obj bufr.DataObject) int {
	dims := obj.Dims()
	if len(dims) == 0 {
		return 0
	}
	return dims[0]
}

func fieldMetadata(obj bufr.DataObject) arrow.Metadata {
	dims := make([]string, len(obj.Dims()))
	for i, d := range obj.Dims() {
		dims[i] = strconv.Itoa(d)
	}
	return arrow.NewMetadata(
		[]string{"dims", "dim_paths"},
		[]string{strings.Join(dims, ","), strings.Join(obj.DimPaths(), ";")},
	)
}

// buildColumn emits one list column: rows entries, each holding the row's
// flattened cells with nulls where the materialization filled.
func buildColumn(mem memory.Allocator, obj bufr.DataObject, rows int) (arrow.Array, *arrow.ListType, error) {
	size := obj.Size()
	if rows <= 0 || size%rows != 0 {
		return nil, nil, fmt.Errorf("field %q: %d cells do not divide into %d rows", obj.FieldName(), size, rows)
	}
	rowLength := size / rows

	elemType, err := elementType(obj)
	if err != nil {
		return nil, nil, err
	}

	lb := array.NewListBuilder(mem, elemType)
	defer lb.Release()

	for row := 0; row < rows; row++ {
		lb.Append(true)
		for i := row * rowLength; i < (row+1)*rowLength; i++ {
			appendCell(lb.ValueBuilder(), obj, i)
		}
	}

	return lb.NewArray(), arrow.ListOf(elemType), nil
}

func elementType(obj bufr.DataObject) (arrow.DataType, error) {
	switch obj.(type) {
	case *bufr.StringDataObject:
		return arrow.BinaryTypes.String, nil
	case *bufr.NumericDataObject[int32]:
		return arrow.PrimitiveTypes.Int32, nil
	case *bufr.NumericDataObject[int64]:
		return arrow.PrimitiveTypes.Int64, nil
	case *bufr.NumericDataObject[uint32]:
		return arrow.PrimitiveTypes.Uint32, nil
	case *bufr.NumericDataObject[uint64]:
		return arrow.PrimitiveTypes.Uint64, nil
	case *bufr.NumericDataObject[float32]:
		return arrow.PrimitiveTypes.Float32, nil
	case *bufr.NumericDataObject[float64]:
		return arrow.PrimitiveTypes.Float64, nil
	default:
		return nil, fmt.Errorf("field %q: unsupported container %T", obj.FieldName(), obj)
	}
}

func appendCell(vb array.Builder, obj bufr.DataObject, i int) {
	if obj.IsMissing(i) {
		vb.AppendNull()
		return
	}
	switch o := obj.(type) {
	case *bufr.StringDataObject:
		vb.(*array.StringBuilder).Append(o.Data()[i])
	case *bufr.NumericDataObject[int32]:
		vb.(*array.Int32Builder).Append(o.Data()[i])
	case *bufr.NumericDataObject[int64]:
		vb.(*array.Int64Builder).Append(o.Data()[i])
	case *bufr.NumericDataObject[uint32]:
		vb.(*array.Uint32Builder).Append(o.Data()[i])
	case *bufr.NumericDataObject[uint64]:
		vb.(*array.Uint64Builder).Append(o.Data()[i])
	case *bufr.NumericDataObject[float32]:
		vb.(*array.Float32Builder).Append(o.Data()[i])
	case *bufr.NumericDataObject[float64]:
		vb.(*array.Float64Builder).Append(o.Data()[i])
	}
}
