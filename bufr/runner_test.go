package bufr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhoneyager-tomorrow/ioda-converters-1/bufr"
	"github.com/rhoneyager-tomorrow/ioda-converters-1/internal/testutil"
)

func querySet(t *testing.T, name string, strs ...string) *bufr.QuerySet {
	t.Helper()
	qs := bufr.NewQuerySet()
	require.NoError(t, qs.AddStrings(name, strs...))
	return qs
}

// flatProvider: SUB1 containing a single numeric leaf A.
func flatProvider() *testutil.MockProvider {
	return &testutil.MockProvider{
		Name:  "SUB1",
		Inode: 1,
		Nodes: []testutil.Node{
			{Typ: bufr.TypSubset, Tag: "SUB1"},
			{Typ: bufr.TypNumber, Tag: "A", Jmpb: 1, Info: bufr.TypeInfo{Bits: 12}},
		},
	}
}

// delayedProvider: SUB1 containing a delayed replication R of leaf X.
func delayedProvider() *testutil.MockProvider {
	return &testutil.MockProvider{
		Name:  "SUB1",
		Inode: 1,
		Nodes: []testutil.Node{
			{Typ: bufr.TypSubset, Tag: "SUB1"},
			{Typ: bufr.TypDelayedRep, Tag: "{R}", Jmpb: 1},
			{Typ: bufr.TypRepeat, Tag: "R", Jmpb: 2},
			{Typ: bufr.TypNumber, Tag: "X", Jmpb: 3, Info: bufr.TypeInfo{Scale: 1, Bits: 12}},
		},
	}
}

// delayedStream expands R over the given values: the replication node
// carries the count, and the contents marker precedes each instance.
func delayedStream(values ...float64) []testutil.Entry {
	stream := []testutil.Entry{{Node: 2, Value: float64(len(values))}}
	for _, v := range values {
		stream = append(stream, testutil.Entry{Node: 3}, testutil.Entry{Node: 4, Value: v})
	}
	return stream
}

func accumulate(t *testing.T, p *testutil.MockProvider, qs *bufr.QuerySet, streams ...[]testutil.Entry) *bufr.ResultSet {
	t.Helper()
	rs := bufr.NewResultSet(nil)
	runner := bufr.NewQueryRunner(qs, rs, p, nil)
	for _, stream := range streams {
		p.Stream = stream
		require.NoError(t, runner.Accumulate())
	}
	return rs
}

func TestCollectDataFlatLeaf(t *testing.T) {
	p := flatProvider()
	rs := accumulate(t, p, querySet(t, "a", "*/A"),
		[]testutil.Entry{{Node: 2, Value: 1.0}},
		[]testutil.Entry{{Node: 2, Value: 2.0}},
		[]testutil.Entry{{Node: 2, Value: 3.0}},
	)

	require.Equal(t, 3, rs.FrameCount())
	for i, want := range []float64{1.0, 2.0, 3.0} {
		field := rs.Frame(i).FieldAtIdx(0)
		require.Equal(t, []float64{want}, field.Data)
		require.Equal(t, [][]int{{1}}, field.SeqCounts)
	}
}

func TestCollectDataDelayedRepetition(t *testing.T) {
	p := delayedProvider()
	rs := accumulate(t, p, querySet(t, "x", "*/R/X"),
		delayedStream(10, 20),
		delayedStream(30, 40, 50),
	)

	f0 := rs.Frame(0).FieldAtIdx(0)
	require.Equal(t, []float64{10, 20}, f0.Data)
	require.Equal(t, [][]int{{1}, {2}}, f0.SeqCounts)

	f1 := rs.Frame(1).FieldAtIdx(0)
	require.Equal(t, []float64{30, 40, 50}, f1.Data)
	require.Equal(t, [][]int{{1}, {3}}, f1.SeqCounts)
}

func TestCollectDataFixedRepetitionRecoversCounts(t *testing.T) {
	// Fixed replications never carry their count as a stream value; it is
	// recovered by counting contents-sequence occurrences.
	p := &testutil.MockProvider{
		Name:  "SUB1",
		Inode: 1,
		Nodes: []testutil.Node{
			{Typ: bufr.TypSubset, Tag: "SUB1"},
			{Typ: bufr.TypFixedRep, Tag: "{F}", Jmpb: 1},
			{Typ: bufr.TypSequence, Tag: "F", Jmpb: 2},
			{Typ: bufr.TypNumber, Tag: "Y", Jmpb: 3, Info: bufr.TypeInfo{Bits: 12}},
		},
	}
	stream := []testutil.Entry{
		{Node: 2}, {Node: 3}, {Node: 4, Value: 1}, {Node: 3}, {Node: 4, Value: 2},
	}
	rs := accumulate(t, p, querySet(t, "y", "*/F/Y"), stream, stream)

	for i := 0; i < 2; i++ {
		field := rs.Frame(i).FieldAtIdx(0)
		require.Equal(t, []float64{1, 2}, field.Data)
		require.Equal(t, [][]int{{1}, {2}}, field.SeqCounts)
	}
}

func TestCollectDataNestedDelayedRepetition(t *testing.T) {
	p := &testutil.MockProvider{
		Name:  "SUB1",
		Inode: 1,
		Nodes: []testutil.Node{
			{Typ: bufr.TypSubset, Tag: "SUB1"},
			{Typ: bufr.TypDelayedRep, Tag: "{R1}", Jmpb: 1},
			{Typ: bufr.TypRepeat, Tag: "R1", Jmpb: 2},
			{Typ: bufr.TypDelayedRep, Tag: "{R2}", Jmpb: 3},
			{Typ: bufr.TypRepeat, Tag: "R2", Jmpb: 4},
			{Typ: bufr.TypNumber, Tag: "Z", Jmpb: 5, Info: bufr.TypeInfo{Scale: 1, Bits: 12}},
		},
	}
	// R1 holds two instances of R2 with one and two leaves; closing
	// markers separate the activations.
	stream := []testutil.Entry{
		{Node: 2, Value: 2},
		{Node: 3}, {Node: 4, Value: 1}, {Node: 5}, {Node: 6, Value: 7}, {Node: 5},
		{Node: 3}, {Node: 4, Value: 2}, {Node: 5}, {Node: 6, Value: 8}, {Node: 5}, {Node: 6, Value: 9}, {Node: 5},
		{Node: 3},
	}
	rs := accumulate(t, p, querySet(t, "z", "*/R1/R2/Z"), stream)

	field := rs.Frame(0).FieldAtIdx(0)
	require.Equal(t, []float64{7, 8, 9}, field.Data)
	require.Equal(t, [][]int{{1}, {2}, {1, 2}}, field.SeqCounts)
}

func TestCollectDataStackedRepetition(t *testing.T) {
	p := &testutil.MockProvider{
		Name:  "SUB1",
		Inode: 1,
		Nodes: []testutil.Node{
			{Typ: bufr.TypSubset, Tag: "SUB1"},
			{Typ: bufr.TypDelayedRepStacked, Tag: "{S}", Jmpb: 1},
			{Typ: bufr.TypStackedRepeat, Tag: "S", Jmpb: 2},
			{Typ: bufr.TypNumber, Tag: "W", Jmpb: 3, Info: bufr.TypeInfo{Bits: 12}},
		},
	}
	stream := []testutil.Entry{
		{Node: 2, Value: 2},
		{Node: 3}, {Node: 4, Value: 4}, {Node: 3}, {Node: 4, Value: 5},
	}
	rs := accumulate(t, p, querySet(t, "w", "*/S/W"), stream)

	field := rs.Frame(0).FieldAtIdx(0)
	require.Equal(t, []float64{4, 5}, field.Data)
	require.Equal(t, [][]int{{1}, {2}}, field.SeqCounts)
}

func TestCollectDataDelayedBinaryPresence(t *testing.T) {
	p := &testutil.MockProvider{
		Name:  "SUB1",
		Inode: 1,
		Nodes: []testutil.Node{
			{Typ: bufr.TypSubset, Tag: "SUB1"},
			{Typ: bufr.TypDelayedBinary, Tag: "<B>", Jmpb: 1},
			{Typ: bufr.TypSequence, Tag: "B", Jmpb: 2},
			{Typ: bufr.TypNumber, Tag: "X", Jmpb: 3, Info: bufr.TypeInfo{Bits: 12}},
		},
	}
	rs := accumulate(t, p, querySet(t, "x", "*/B/X"),
		[]testutil.Entry{{Node: 2, Value: 1}, {Node: 3}, {Node: 4, Value: 5}},
		[]testutil.Entry{{Node: 2, Value: 0}},
	)

	present := rs.Frame(0).FieldAtIdx(0)
	require.Equal(t, []float64{5}, present.Data)
	require.Equal(t, [][]int{{1}, {1}}, present.SeqCounts)

	absent := rs.Frame(1).FieldAtIdx(0)
	require.Empty(t, absent.Data)
	require.Equal(t, [][]int{{1}, {0}}, absent.SeqCounts)
}

func TestCollectDataIndexSelectorHarvestsOnlyThatOccurrence(t *testing.T) {
	p := &testutil.MockProvider{
		Name:  "SUB1",
		Inode: 1,
		Nodes: []testutil.Node{
			{Typ: bufr.TypSubset, Tag: "SUB1"},
			{Typ: bufr.TypDelayedRep, Tag: "{R}", Jmpb: 1},
			{Typ: bufr.TypRepeat, Tag: "R", Jmpb: 2},
			{Typ: bufr.TypNumber, Tag: "Y", Jmpb: 3, Info: bufr.TypeInfo{Bits: 12}},
			{Typ: bufr.TypNumber, Tag: "Y", Jmpb: 3, Info: bufr.TypeInfo{Bits: 12}},
			{Typ: bufr.TypNumber, Tag: "Y", Jmpb: 3, Info: bufr.TypeInfo{Bits: 12}},
		},
	}
	stream := []testutil.Entry{
		{Node: 2, Value: 1}, {Node: 3},
		{Node: 4, Value: 1}, {Node: 5, Value: 2}, {Node: 6, Value: 3},
	}
	rs := accumulate(t, p, querySet(t, "y", "*/R/Y[2]"), stream)

	field := rs.Frame(0).FieldAtIdx(0)
	require.Equal(t, 5, field.Target.NodeIdx)
	require.Equal(t, []float64{2}, field.Data)
}

func TestFindTargetsQueryMissEmitsEmptyTarget(t *testing.T) {
	p := flatProvider()
	rs := accumulate(t, p, querySet(t, "nope", "*/NOPE"),
		[]testutil.Entry{{Node: 2, Value: 1.0}},
	)

	field := rs.Frame(0).FieldAtIdx(0)
	require.Equal(t, 0, field.Target.NodeIdx)
	require.Equal(t, []float64{bufr.MissingValue}, field.Data)
	require.Equal(t, [][]int{{1}}, field.SeqCounts)
	require.Equal(t, []string{"*"}, field.Target.DimPaths)
	require.Equal(t, []int{0}, field.Target.ExportDimIdxs)
}

func TestFindTargetsSubsetSelector(t *testing.T) {
	p := flatProvider()

	// A query bound to another subset name never resolves here.
	rs := accumulate(t, p, querySet(t, "a", "OTHER/A"),
		[]testutil.Entry{{Node: 2, Value: 1.0}},
	)
	require.Equal(t, 0, rs.Frame(0).FieldAtIdx(0).Target.NodeIdx)

	// The matching subset name does, as does a later alternative.
	rs = accumulate(t, flatProvider(), querySet(t, "a", "OTHER/A", "SUB1/A"),
		[]testutil.Entry{{Node: 2, Value: 1.0}},
	)
	field := rs.Frame(0).FieldAtIdx(0)
	require.Equal(t, 2, field.Target.NodeIdx)
	require.Equal(t, "SUB1/A", field.Target.QueryStr)
}

func TestFindTargetsAmbiguousQueryFails(t *testing.T) {
	p := &testutil.MockProvider{
		Name:  "SUB1",
		Inode: 1,
		Nodes: []testutil.Node{
			{Typ: bufr.TypSubset, Tag: "SUB1"},
			{Typ: bufr.TypNumber, Tag: "A", Jmpb: 1, Info: bufr.TypeInfo{Bits: 12}},
			{Typ: bufr.TypNumber, Tag: "A", Jmpb: 1, Info: bufr.TypeInfo{Bits: 12}},
		},
		Stream: []testutil.Entry{{Node: 2, Value: 1}, {Node: 3, Value: 2}},
	}
	rs := bufr.NewResultSet(nil)
	runner := bufr.NewQueryRunner(querySet(t, "a", "*/A"), rs, p, nil)

	err := runner.Accumulate()
	var amb *bufr.AmbiguousQueryError
	require.ErrorAs(t, err, &amb)
	require.Equal(t, "*/A", amb.QueryStr)
}

func TestFindTargetsCachesResolutionBySubsetName(t *testing.T) {
	p := delayedProvider()
	_ = accumulate(t, p, querySet(t, "x", "*/R/X"),
		delayedStream(10),
	)
	require.Greater(t, p.TagCalls, 0)

	// Re-accumulating through one runner must not touch the template
	// again after the first subset, and frames share the cached targets.
	rsShared := bufr.NewResultSet(nil)
	sharedRunner := bufr.NewQueryRunner(querySet(t, "x", "*/R/X"), rsShared, p, nil)
	p.Stream = delayedStream(10)
	require.NoError(t, sharedRunner.Accumulate())
	calls := p.TagCalls
	p.Stream = delayedStream(20, 30)
	require.NoError(t, sharedRunner.Accumulate())
	require.Equal(t, calls, p.TagCalls)

	require.Same(t,
		rsShared.Frame(0).FieldAtIdx(0).Target,
		rsShared.Frame(1).FieldAtIdx(0).Target)
}

// Every harvested field satisfies the occurrence identity: the data length
// equals the total implied by the innermost level's counts.
func TestSeqCountsImplyDataLength(t *testing.T) {
	p := delayedProvider()
	rs := accumulate(t, p, querySet(t, "x", "*/R/X"),
		delayedStream(10, 20),
		delayedStream(30),
		delayedStream(),
	)

	for i := 0; i < rs.FrameCount(); i++ {
		field := rs.Frame(i).FieldAtIdx(0)
		inner := field.SeqCounts[len(field.SeqCounts)-1]
		total := 0
		for _, c := range inner {
			total += c
		}
		require.Len(t, field.Data, total)
		require.Equal(t, []int{1}, field.SeqCounts[0])
	}
}
