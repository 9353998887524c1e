package bufr

// MissingValue is the sentinel marking absent cells in materialized arrays.
// The decoder never produces it; any occurrence in output denotes a reading
// that does not exist in the corresponding subset.
const MissingValue float64 = 10e10
