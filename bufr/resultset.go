package bufr

import (
	"fmt"
	"log/slog"
	"strings"
)

// ResultSet accumulates DataFrames across subsets and materializes each
// named query on demand as a dense multi-dimensional array. The bounding
// shape per query is the maximum replication count at each level across all
// frames; frames whose counts fall short are inflated with MissingValue so
// that corresponding readings share the same index in every subset.
type ResultSet struct {
	frames []*DataFrame
	logger *slog.Logger
}

// NewResultSet returns an empty result set. A nil logger falls back to
// slog.Default().
func NewResultSet(logger *slog.Logger) *ResultSet {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultSet{logger: logger}
}

// nextDataFrame appends an empty frame sized for the query set and returns
// a mutable handle for the runner to fill.
func (r *ResultSet) nextDataFrame(fieldCount int) *DataFrame {
	frame := newDataFrame(fieldCount)
	r.frames = append(r.frames, frame)
	return frame
}

// FrameCount returns the number of accumulated frames.
func (r *ResultSet) FrameCount() int { return len(r.frames) }

// Frame returns the accumulated frame at idx.
func (r *ResultSet) Frame(idx int) *DataFrame { return r.frames[idx] }

// Get materializes the named query across every accumulated frame. An empty
// overrideType selects the container from the merged type info; otherwise
// it must be one of int, int32, int64, float, double, or string, and may
// not convert between numbers and strings. A non-empty groupByFieldName
// names a second query whose replication path must be a prefix of the
// target's; rows remain subset-aligned.
func (r *ResultSet) Get(fieldName, groupByFieldName, overrideType string) (DataObject, error) {
	data, dims, dimPaths, info, err := r.getRawValues(fieldName, groupByFieldName)
	if err != nil {
		return nil, err
	}
	return makeDataObject(fieldName, groupByFieldName, info, overrideType, data, dims, dimPaths)
}

// getRawValues computes the bounding shape for the named query, inflates
// each frame's fragment into it, and returns the assembled flat data along
// with the exported dims, dim paths, and merged type info.
func (r *ResultSet) getRawValues(fieldName, groupByFieldName string) (data []float64, dims []int, dimPaths []string, info TypeInfo, err error) {
	if len(r.frames) == 0 {
		return nil, nil, nil, info, ErrNoData("no data was found")
	}

	first := r.frames[0]
	targetIdx := -1
	for i := 0; i < first.FieldCount(); i++ {
		if first.FieldAtIdx(i).Target.Name == fieldName {
			targetIdx = i
			break
		}
	}
	if targetIdx < 0 {
		return nil, nil, nil, info, fmt.Errorf("no target found for field %q", fieldName)
	}
	target := first.FieldAtIdx(targetIdx).Target

	if groupByFieldName != "" {
		if err := r.checkGroupByPath(fieldName, groupByFieldName, target); err != nil {
			return nil, nil, nil, info, err
		}
	}

	// Find the dims from the largest counts at each level across frames,
	// and detect jaggedness while at it.
	jagged := false
	dimCount := len(target.Path) - 1
	if dimCount < 1 {
		dimCount = 1
	}
	dimsList := make([]int, dimCount)
	var exportDims []int

	for _, frame := range r.frames {
		field := frame.FieldAtIdx(targetIdx)
		for pathIdx, counts := range field.SeqCounts {
			if len(counts) == 0 {
				break
			}
			if pathIdx >= len(dimsList) {
				dimsList = append(dimsList, 0)
			}
			frameMax := maxInt(counts)
			newDimVal := dimsList[pathIdx]
			if frameMax > newDimVal {
				newDimVal = frameMax
			}
			if !jagged {
				jagged = !allEqual(counts)
				if !jagged && dimsList[pathIdx] != 0 {
					// Counts that are uniform inside every frame but
					// differ across frames still jag the output.
					jagged = frameMax != dimsList[pathIdx]
				}
			}
			dimsList[pathIdx] = newDimVal
		}

		info.Merge(field.Target.TypeInfo)

		if len(field.Target.DimPaths) > 0 && len(dimPaths) < len(field.Target.DimPaths) {
			dimPaths = field.Target.DimPaths
			exportDims = field.Target.ExportDimIdxs
		}
	}

	// A query with no data anywhere leaves zero-sized dimensions; grow
	// them to hold at least the missing value.
	dims = make([]int, len(dimsList))
	copy(dims, dimsList)
	for i := range dims {
		if dims[i] == 0 {
			dims[i] = 1
		}
	}

	rowLength := 1
	for i := 1; i < len(dims); i++ {
		rowLength *= dims[i]
	}

	totalRows := len(r.frames)
	data = make([]float64, totalRows*rowLength)
	for i := range data {
		data[i] = MissingValue
	}

	if jagged {
		r.logger.Debug("materializing jagged array", "field", fieldName)
	}

	for frameIdx, frame := range r.frames {
		field := frame.FieldAtIdx(targetIdx)
		fragment := field.Data

		if !jagged {
			copy(data[frameIdx*rowLength:(frameIdx+1)*rowLength], fragment)
			continue
		}

		// Compute, per dimension, how many fill slots to inject after
		// each instantiation to stretch this frame to the bounding shape.
		inserts := make([][]int, len(dims))
		for i := range inserts {
			inserts[i] = []int{0}
		}
		limit := len(dims)
		if len(field.SeqCounts) < limit {
			limit = len(field.SeqCounts)
		}
		for repIdx := 0; repIdx < limit; repIdx++ {
			whole := product(dims[repIdx:])
			inner := product(dims[repIdx+1:])
			counts := field.SeqCounts[repIdx]
			ins := make([]int, len(counts))
			for i, c := range counts {
				ins[i] = whole - c*inner
			}
			inserts[repIdx] = ins
		}

		// Inflate: push each fragment index past the fill runs injected
		// at deeper dimensions first.
		idxs := make([]int, len(fragment))
		for i := range idxs {
			idxs[i] = i
		}
		for dimIdx := len(dims) - 1; dimIdx >= 0; dimIdx-- {
			whole := product(dims[dimIdx:])
			for insertIdx, numInserts := range inserts[dimIdx] {
				if numInserts <= 0 {
					continue
				}
				dataIdx := whole*insertIdx + whole - numInserts - 1
				for i := range idxs {
					if idxs[i] > dataIdx {
						idxs[i] += numInserts
					}
				}
			}
		}

		for i, idx := range idxs {
			data[idx+frameIdx*rowLength] = fragment[i]
		}
	}

	// Convert per-frame dims into dims over all collected data, then keep
	// only the exported axes.
	dims[0] = totalRows
	dims = sliceByIdxs(dims, exportDims)

	return data, dims, dimPaths, info, nil
}

// checkGroupByPath verifies that the group-by query's replication path is a
// prefix of the target's.
func (r *ResultSet) checkGroupByPath(fieldName, groupByFieldName string, target *Target) error {
	first := r.frames[0]
	var groupByTarget *Target
	for i := 0; i < first.FieldCount(); i++ {
		if first.FieldAtIdx(i).Target.Name == groupByFieldName {
			groupByTarget = first.FieldAtIdx(i).Target
			break
		}
	}
	if groupByTarget == nil {
		return fmt.Errorf("no target found for group-by field %q", groupByFieldName)
	}

	groupByPath := lastDimPath(groupByTarget)
	targetPath := lastDimPath(target)
	groupByComps := splitPath(groupByPath)
	targetComps := splitPath(targetPath)

	mismatch := &GroupByPathMismatchError{
		GroupByField: groupByFieldName,
		TargetField:  fieldName,
		GroupByPath:  groupByPath,
		TargetPath:   targetPath,
	}
	if len(groupByComps) > len(targetComps) {
		return mismatch
	}
	for i := 1; i < len(groupByComps); i++ {
		if targetComps[i] != groupByComps[i] {
			return mismatch
		}
	}
	return nil
}

func lastDimPath(t *Target) string {
	if len(t.DimPaths) == 0 {
		return "*"
	}
	return t.DimPaths[len(t.DimPaths)-1]
}

func splitPath(path string) []string {
	var components []string
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			components = append(components, part)
		}
	}
	return components
}

func maxInt(values []int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func allEqual(values []int) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func product(values []int) int {
	p := 1
	for _, v := range values {
		p *= v
	}
	return p
}

func sliceByIdxs(values []int, idxs []int) []int {
	out := make([]int, 0, len(idxs))
	for _, idx := range idxs {
		if idx >= 0 && idx < len(values) {
			out = append(out, values[idx])
		}
	}
	return out
}
