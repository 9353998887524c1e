package bufr

import (
	"encoding/binary"
	"math"
	"strings"
)

// DataObject is the typed sink a materialized query is emitted into.
// Concrete containers exist for string data and for signed, unsigned, and
// floating numerics in 32- and 64-bit widths.
type DataObject interface {
	SetData(values []float64, missing float64)
	SetDims(dims []int)
	SetFieldName(name string)
	SetGroupByFieldName(name string)
	SetDimPaths(paths []string)

	FieldName() string
	GroupByFieldName() string
	Dims() []int
	DimPaths() []string

	// Raw returns the flat materialized doubles, missing sentinel
	// included.
	Raw() []float64
	// MissingSentinel returns the sentinel marking absent cells in Raw.
	MissingSentinel() float64
	// IsMissing reports whether the flat cell at i is absent.
	IsMissing(i int) bool
	// Size returns the number of flat cells.
	Size() int
	// IsString reports whether the container holds character data.
	IsString() bool
}

type dataObjectBase struct {
	fieldName        string
	groupByFieldName string
	dims             []int
	dimPaths         []string
	raw              []float64
	missing          float64
}

func (o *dataObjectBase) SetDims(dims []int)              { o.dims = dims }
func (o *dataObjectBase) SetFieldName(name string)        { o.fieldName = name }
func (o *dataObjectBase) SetGroupByFieldName(name string) { o.groupByFieldName = name }
func (o *dataObjectBase) SetDimPaths(paths []string)      { o.dimPaths = paths }

func (o *dataObjectBase) FieldName() string        { return o.fieldName }
func (o *dataObjectBase) GroupByFieldName() string { return o.groupByFieldName }
func (o *dataObjectBase) Dims() []int              { return o.dims }
func (o *dataObjectBase) DimPaths() []string       { return o.dimPaths }
func (o *dataObjectBase) Raw() []float64           { return o.raw }
func (o *dataObjectBase) MissingSentinel() float64 { return o.missing }
func (o *dataObjectBase) Size() int                { return len(o.raw) }

func (o *dataObjectBase) IsMissing(i int) bool { return o.raw[i] == o.missing }

// Numeric constrains the element types a numeric container can hold.
type Numeric interface {
	~int32 | ~int64 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// NumericDataObject materializes a query into elements of type T. Missing
// cells keep the sentinel in Raw and are flagged in the missing mask;
// integer containers store zero there rather than casting the sentinel.
type NumericDataObject[T Numeric] struct {
	dataObjectBase
	data       []T
	missingVec []bool
	integer    bool
}

func (o *NumericDataObject[T]) SetData(values []float64, missing float64) {
	o.raw = values
	o.missing = missing
	o.data = make([]T, len(values))
	o.missingVec = make([]bool, len(values))
	for i, v := range values {
		if v == missing {
			o.missingVec[i] = true
			if !o.integer {
				o.data[i] = T(v)
			}
			continue
		}
		o.data[i] = T(v)
	}
}

// Data returns the converted elements.
func (o *NumericDataObject[T]) Data() []T { return o.data }

// MissingMask returns, per flat cell, whether the cell is absent.
func (o *NumericDataObject[T]) MissingMask() []bool { return o.missingVec }

func (o *NumericDataObject[T]) IsString() bool { return false }

// StringDataObject materializes character data. Each double carries up to
// eight characters in its bit pattern (little-endian byte order); missing
// cells decode to the empty string.
type StringDataObject struct {
	dataObjectBase
	data []string
}

func (o *StringDataObject) SetData(values []float64, missing float64) {
	o.raw = values
	o.missing = missing
	o.data = make([]string, len(values))
	for i, v := range values {
		if v == missing {
			continue
		}
		o.data[i] = decodeChars(v)
	}
}

// Data returns the decoded strings.
func (o *StringDataObject) Data() []string { return o.data }

func (o *StringDataObject) IsString() bool { return true }

// decodeChars unpacks the characters stored in a double's bit pattern.
func decodeChars(v float64) string {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	return strings.TrimRight(string(buf[:]), "\x00 ")
}

// EncodeChars packs up to eight characters into a double's bit pattern,
// the inverse of the decoding a string container performs. Longer inputs
// are truncated; shorter ones are space padded.
func EncodeChars(s string) float64 {
	var buf [8]byte
	for i := range buf {
		buf[i] = ' '
	}
	copy(buf[:], s)
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:]))
}

// objectByTypeInfo picks the concrete container for merged type info.
func objectByTypeInfo(info TypeInfo) DataObject {
	if info.IsString() {
		return &StringDataObject{}
	}
	if info.IsInteger() {
		if info.IsSigned() {
			if info.Is64Bit() {
				return &NumericDataObject[int64]{integer: true}
			}
			return &NumericDataObject[int32]{integer: true}
		}
		if info.Is64Bit() {
			return &NumericDataObject[uint64]{integer: true}
		}
		return &NumericDataObject[uint32]{integer: true}
	}
	if info.Is64Bit() {
		return &NumericDataObject[float64]{}
	}
	return &NumericDataObject[float32]{}
}

// objectByType picks the container for an explicit override type.
func objectByType(overrideType string) (DataObject, error) {
	switch overrideType {
	case "int", "int32":
		return &NumericDataObject[int32]{integer: true}, nil
	case "int64":
		return &NumericDataObject[int64]{integer: true}, nil
	case "float":
		return &NumericDataObject[float32]{}, nil
	case "double":
		return &NumericDataObject[float64]{}, nil
	case "string":
		return &StringDataObject{}, nil
	default:
		return nil, &UnknownOverrideTypeError{TypeName: overrideType}
	}
}

// makeDataObject selects the container, rejects number/string override
// mismatches, and fills in the materialized data and metadata.
func makeDataObject(fieldName, groupByFieldName string, info TypeInfo, overrideType string, data []float64, dims []int, dimPaths []string) (DataObject, error) {
	var object DataObject
	if overrideType == "" {
		object = objectByTypeInfo(info)
	} else {
		o, err := objectByType(overrideType)
		if err != nil {
			return nil, err
		}
		if (overrideType == "string") != info.IsString() {
			return nil, &IncompatibleOverrideError{FieldName: fieldName}
		}
		object = o
	}

	object.SetData(data, MissingValue)
	object.SetDims(dims)
	object.SetFieldName(fieldName)
	object.SetGroupByFieldName(groupByFieldName)
	object.SetDimPaths(dimPaths)
	return object, nil
}
