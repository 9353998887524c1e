package bufr

import (
	"errors"
	"log/slog"
	"strings"
)

// processingMasks short-circuit work during the value-stream walk: only
// masked nodes harvest values or participate in replication tracking.
type processingMasks struct {
	// valueNodeMask[nid] is set when some target's leaf is nid.
	valueNodeMask *offsetArray[bool]
	// pathNodeMask[nid] is set when nid appears on some target's SeqPath.
	pathNodeMask *offsetArray[bool]
}

// nodeData accumulates per-node state during one stream walk: harvested
// values for leaf nodes, and one child count per sequence instantiation for
// replication contents nodes.
type nodeData struct {
	values []float64
	counts []int
}

// QueryRunner resolves a QuerySet against each subset the provider is
// positioned on and harvests the matching readings into the ResultSet, one
// DataFrame per Accumulate call. Resolution is cached by subset name, so
// repeated subsets of the same template resolve once.
type QueryRunner struct {
	querySet     *QuerySet
	resultSet    *ResultSet
	dataProvider DataProvider
	logger       *slog.Logger

	targetCache map[string][]*Target
	maskCache   map[string]*processingMasks
}

// NewQueryRunner creates a runner feeding the given result set. A nil
// logger falls back to slog.Default().
func NewQueryRunner(querySet *QuerySet, resultSet *ResultSet, provider DataProvider, logger *slog.Logger) *QueryRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryRunner{
		querySet:     querySet,
		resultSet:    resultSet,
		dataProvider: provider,
		logger:       logger,
		targetCache:  make(map[string][]*Target),
		maskCache:    make(map[string]*processingMasks),
	}
}

// Accumulate resolves the query set against the provider's current subset
// and appends one DataFrame of harvested values to the result set.
func (r *QueryRunner) Accumulate() error {
	targets, masks, err := r.findTargets()
	if err != nil {
		return err
	}
	r.collectData(targets, masks)
	return nil
}

// findTargets resolves every named query against the current subset's
// template, returning the cached result when this subset name has been seen
// before.
func (r *QueryRunner) findTargets() ([]*Target, *processingMasks, error) {
	subset := r.dataProvider.GetSubset()
	if cached, ok := r.targetCache[subset]; ok {
		return cached, r.maskCache[subset], nil
	}

	inode := r.dataProvider.GetInode()
	isc := r.dataProvider.GetIsc(inode)
	masks := &processingMasks{
		valueNodeMask: newOffsetArray[bool](inode, isc),
		pathNodeMask:  newOffsetArray[bool](inode, isc),
	}

	table := NewSubsetTable(r.dataProvider)

	var targets []*Target
	for _, name := range r.querySet.Names() {
		// Walk the alternatives until one resolves.
		var tableNode *TableNode
		var foundQuery Query
		for _, query := range r.querySet.QueriesFor(name) {
			if !query.IsAnySubset && query.Subset.Name != subset {
				continue
			}
			node, err := table.GetNodeForPath(query.Path)
			if err != nil {
				var amb *AmbiguousQueryError
				if errors.As(err, &amb) {
					return nil, nil, &AmbiguousQueryError{QueryStr: query.Str}
				}
				return nil, nil, err
			}
			if node != nil {
				tableNode = node
				foundQuery = query
				break
			}
		}

		if tableNode == nil {
			targets = append(targets, emptyTarget(name, r.querySet.QueriesFor(name)[0].Str))
			r.logger.Warn("query did not apply to subset",
				"query", describeQueries(r.querySet.QueriesFor(name)),
				"subset", subset)
			continue
		}

		target := &Target{
			Name:          name,
			QueryStr:      foundQuery.Str,
			NodeIdx:       tableNode.NodeIdx,
			TypeInfo:      tableNode.TypeInfo,
			DimPaths:      tableNode.GetDimPaths(),
			ExportDimIdxs: tableNode.GetDimIdxs(),
		}

		nodes := tableNode.GetPathNodes()
		path := make([]TargetComponent, 0, len(nodes))
		path = append(path, TargetComponent{
			QueryComponent: foundQuery.Subset,
			Branch:         0,
			Role:           RoleSubset,
		})
		for i := 1; i < len(nodes); i++ {
			path = append(path, TargetComponent{
				QueryComponent: foundQuery.Path[i-1],
				Branch:         nodes[i].NodeIdx,
				Role:           roleForTyp(nodes[i].Typ),
			})
		}
		target.SetPath(path)
		targets = append(targets, target)

		*masks.valueNodeMask.at(target.NodeIdx) = true
		for _, seqNodeIdx := range target.SeqPath {
			*masks.pathNodeMask.at(seqNodeIdx) = true
		}
	}

	r.targetCache[subset] = targets
	r.maskCache[subset] = masks
	return targets, masks, nil
}

// collectData walks the subset's flat value stream once, harvesting masked
// leaf values and recovering the replication counts that shaped them, then
// emits one DataField per target into a fresh DataFrame.
//
// Fixed replications carry no count in the stream and delayed binaries only
// a presence bit, so counts are recovered uniformly by counting the
// children of every masked sequence instantiation; delayed repeats are
// corrected on exit for the extra contents marker that closes them.
func (r *QueryRunner) collectData(targets []*Target, masks *processingMasks) {
	p := r.dataProvider
	inode := p.GetInode()
	nVal := p.GetNVal()

	dataFrame := r.resultSet.nextDataFrame(len(targets))
	dataTable := newOffsetArray[nodeData](inode, p.GetIsc(inode))

	currentPath := make([]int, 0, 10)
	currentPathReturns := make([]int, 0, 10)
	returnNodeIdx := -1
	lastNonZeroReturnIdx := -1

	for dataCursor := 1; dataCursor <= nVal; dataCursor++ {
		nodeIdx := p.GetInv(dataCursor)

		if *masks.valueNodeMask.at(nodeIdx) {
			entry := dataTable.at(nodeIdx)
			entry.values = append(entry.values, p.GetVal(dataCursor))
		}

		if jmpb := p.GetJmpb(nodeIdx); jmpb > 0 && masks.pathNodeMask.inRange(jmpb) && *masks.pathNodeMask.at(jmpb) {
			typ := p.GetTyp(nodeIdx)
			jmpbTyp := p.GetTyp(jmpb)
			if (typ == TypSequence && (jmpbTyp == TypSequence ||
				jmpbTyp == TypDelayedBinary ||
				jmpbTyp == TypFixedRep)) ||
				typ == TypRepeat || typ == TypStackedRepeat {
				counts := dataTable.at(nodeIdx).counts
				counts[len(counts)-1]++
			}
		}

		if len(currentPath) >= 1 {
			if nodeIdx == returnNodeIdx ||
				dataCursor == nVal ||
				(len(currentPath) > 1 && nodeIdx == currentPath[len(currentPath)-1]+1) {
				// Unwind every open sequence down to the last one with a
				// non-zero return. A zero return marks a sequence that is
				// the last element of its parent.
				for pathIdx := len(currentPathReturns) - 1; pathIdx >= lastNonZeroReturnIdx; pathIdx-- {
					currentPathReturns = currentPathReturns[:len(currentPathReturns)-1]
					seqNodeIdx := currentPath[len(currentPath)-1]
					currentPath = currentPath[:len(currentPath)-1]

					typSeqNode := p.GetTyp(seqNodeIdx)
					if typSeqNode == TypDelayedRep || typSeqNode == TypDelayedRepStacked {
						// The closing contents marker was counted as a
						// child; take it back.
						counts := dataTable.at(seqNodeIdx + 1).counts
						counts[len(counts)-1]--
					}
				}

				lastNonZeroReturnIdx = len(currentPathReturns) - 1
				if lastNonZeroReturnIdx >= 0 {
					returnNodeIdx = currentPathReturns[lastNonZeroReturnIdx]
				} else {
					returnNodeIdx = -1
				}
			}
		}

		if *masks.pathNodeMask.at(nodeIdx) && isQueryNode(p.GetTyp(nodeIdx)) {
			if p.GetTyp(nodeIdx) == TypDelayedBinary && p.GetVal(dataCursor) == 0 {
				// Presence bit off: the subtree is absent from the stream.
			} else {
				currentPath = append(currentPath, nodeIdx)
				link := p.GetLink(nodeIdx)
				currentPathReturns = append(currentPathReturns, link)

				if link != 0 {
					lastNonZeroReturnIdx = len(currentPathReturns) - 1
					returnNodeIdx = link
				} else {
					lastNonZeroReturnIdx = 0
					returnNodeIdx = 0
					if dataCursor != nVal {
						// Search upward for the first enclosing sequence
						// with a usable return point.
						for pathIdx := len(currentPath) - 1; pathIdx >= 0; pathIdx-- {
							returnNodeIdx = p.GetLink(p.GetJmpb(currentPath[pathIdx]))
							lastNonZeroReturnIdx = len(currentPathReturns) - pathIdx
							if returnNodeIdx != 0 {
								break
							}
						}
					}
				}
			}

			// Open a fresh count slot for this activation. The contents
			// of a replication node live at the next node id.
			entry := dataTable.at(nodeIdx + 1)
			entry.counts = append(entry.counts, 0)
		}
	}

	for targetIdx, target := range targets {
		field := dataFrame.FieldAtIdx(targetIdx)
		field.Target = target

		if target.NodeIdx == 0 {
			field.Data = []float64{MissingValue}
			field.SeqCounts = [][]int{{1}}
			continue
		}

		field.SeqCounts = make([][]int, len(target.SeqPath)+1)
		field.SeqCounts[0] = []int{1}
		for pathIdx, seqNodeIdx := range target.SeqPath {
			field.SeqCounts[pathIdx+1] = dataTable.at(seqNodeIdx + 1).counts
		}
		field.Data = dataTable.at(target.NodeIdx).values
	}
}

func describeQueries(queries []Query) string {
	if len(queries) == 1 {
		return queries[0].Str
	}
	strs := make([]string, len(queries))
	for i, q := range queries {
		strs[i] = q.Str
	}
	return "[" + strings.Join(strs, ", ") + "]"
}
