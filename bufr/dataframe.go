package bufr

// DataField is one query's harvest from a single subset: the leaf values in
// stream order plus the per-level replication counts that shaped them.
type DataField struct {
	Target *Target

	// Data holds one value per leaf occurrence in this subset.
	Data []float64

	// SeqCounts holds one count vector per path level. SeqCounts[0] is
	// always [1] (the subset axis); SeqCounts[k+1] lists the child counts
	// observed for each instantiation of replication ancestor SeqPath[k].
	SeqCounts [][]int
}

// DataFrame is the complete harvest of one subset: one DataField per query,
// indexed by the query's position in the QuerySet.
type DataFrame struct {
	fields []DataField
}

func newDataFrame(fieldCount int) *DataFrame {
	return &DataFrame{fields: make([]DataField, fieldCount)}
}

// FieldAtIdx returns a mutable handle on the field at the given query
// position.
func (f *DataFrame) FieldAtIdx(idx int) *DataField {
	return &f.fields[idx]
}

// FieldCount returns the number of fields in the frame.
func (f *DataFrame) FieldCount() int { return len(f.fields) }
