package bufr

// DataProvider is the low-level decoder's view of one decoded subset. The
// core never advances the provider; the caller positions it on a subset,
// calls QueryRunner.Accumulate, and moves on.
//
// Node ids are 1-origin and contiguous over [GetInode(), GetIsc(GetInode())].
// The value stream is 1-origin: for 1 <= c <= GetNVal(), GetInv(c) yields the
// template node id occupying stream position c and GetVal(c) its value.
type DataProvider interface {
	// GetSubset returns the name of the subset template the provider is
	// positioned on.
	GetSubset() string

	// GetInode returns the node id of the subset root.
	GetInode() int

	// GetIsc returns the id of the last descendant of the given node,
	// which for the root bounds the template's id range.
	GetIsc(nodeIdx int) int

	// GetNVal returns the length of the subset's flat value stream.
	GetNVal() int

	// GetInv returns the template node id at stream position cursor.
	GetInv(cursor int) int

	// GetVal returns the decoded value at stream position cursor.
	GetVal(cursor int) float64

	// GetTyp returns the node's type.
	GetTyp(nodeIdx int) Typ

	// GetTag returns the node's mnemonic. Tags of replication nodes are
	// wrapped in single-character delimiters that the table strips when
	// building dimension labels.
	GetTag(nodeIdx int) string

	// GetJmpb returns the id of the node's enclosing sequence, or 0 for
	// the root.
	GetJmpb(nodeIdx int) int

	// GetLink returns the id of the node at which the stream resumes after
	// this sequence exits, or 0 when the sequence is the last element of
	// its parent.
	GetLink(nodeIdx int) int

	// GetTypeInfo returns the numeric semantics of a leaf node.
	GetTypeInfo(nodeIdx int) TypeInfo
}
