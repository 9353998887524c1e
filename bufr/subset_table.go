package bufr

// SubsetTable materializes a subset's template as a tree so that queries
// resolve by descending it, one component per replicated sequence, instead
// of re-scanning the flat node arrays for every query.
//
// The tree keeps three kinds of nodes: the subset root, one node per
// replication construct (identified by the replication node's id; the
// construct's contents live at the next id), and the numeric/character
// leaves. Plain sequences are transparent: their children hang off the
// nearest enclosing construct and consume no query component.
type SubsetTable struct {
	root *TableNode
}

// TableNode is one node of the materialized template tree.
type TableNode struct {
	NodeIdx  int
	Typ      Typ
	Mnemonic string
	TypeInfo TypeInfo

	// dimLabel is the replication node's tag with its delimiter sentinels
	// stripped; it labels the dimension this construct introduces.
	dimLabel string

	parent   *TableNode
	children []*TableNode
}

// NewSubsetTable builds the template tree for the subset the provider is
// positioned on.
func NewSubsetTable(p DataProvider) *SubsetTable {
	inode := p.GetInode()
	isc := p.GetIsc(inode)

	root := &TableNode{NodeIdx: inode, Typ: TypSubset, Mnemonic: p.GetTag(inode)}

	// owner maps each container node id (subset root, replication
	// contents, plain sequences) to the tree node its children belong to.
	owner := map[int]*TableNode{inode: root}
	// pending holds constructs whose contents node has not been seen yet.
	pending := map[int]*TableNode{}

	for nodeIdx := inode + 1; nodeIdx <= isc; nodeIdx++ {
		typ := p.GetTyp(nodeIdx)
		switch {
		case isQueryNode(typ):
			parent := owner[p.GetJmpb(nodeIdx)]
			if parent == nil {
				continue
			}
			node := &TableNode{
				NodeIdx:  nodeIdx,
				Typ:      typ,
				dimLabel: stripDelimiters(p.GetTag(nodeIdx)),
				parent:   parent,
			}
			parent.children = append(parent.children, node)
			pending[nodeIdx] = node

		case typ == TypSequence || typ == TypRepeat || typ == TypStackedRepeat:
			jmpb := p.GetJmpb(nodeIdx)
			if construct, ok := pending[jmpb]; ok {
				// The contents node names the construct.
				construct.Mnemonic = p.GetTag(nodeIdx)
				owner[nodeIdx] = construct
				delete(pending, jmpb)
			} else {
				// Plain sequence: children fall through to the
				// enclosing construct.
				owner[nodeIdx] = owner[jmpb]
			}

		case typ == TypNumber || typ == TypCharacter:
			parent := owner[p.GetJmpb(nodeIdx)]
			if parent == nil {
				continue
			}
			info := p.GetTypeInfo(nodeIdx)
			if typ == TypCharacter {
				info.Char = true
			}
			leaf := &TableNode{
				NodeIdx:  nodeIdx,
				Typ:      typ,
				Mnemonic: p.GetTag(nodeIdx),
				TypeInfo: info,
				parent:   parent,
			}
			parent.children = append(parent.children, leaf)
		}
	}

	return &SubsetTable{root: root}
}

// GetNodeForPath descends the tree matching each query component by
// mnemonic and returns the leaf it resolves to, or nil when any component
// is unmatched. An index selector on the last component restricts multiple
// matches to the Nth occurrence (in template order); more than one match
// without an applicable index is an AmbiguousQueryError.
func (t *SubsetTable) GetNodeForPath(path []QueryComponent) (*TableNode, error) {
	if len(path) == 0 {
		return nil, nil
	}

	var matches []*TableNode
	collectMatches(t.root, path, &matches)

	last := path[len(path)-1]
	if last.Index > 0 && last.Index <= len(matches) {
		matches = matches[last.Index-1 : last.Index]
	}

	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, &AmbiguousQueryError{QueryStr: renderPath(path)}
	}
}

func collectMatches(node *TableNode, comps []QueryComponent, out *[]*TableNode) {
	name := comps[0].Name
	for _, child := range node.children {
		if child.Mnemonic != name {
			continue
		}
		if len(comps) == 1 {
			if child.IsLeaf() {
				*out = append(*out, child)
			}
		} else if !child.IsLeaf() {
			collectMatches(child, comps[1:], out)
		}
	}
}

// IsLeaf reports whether the node is a numeric or character element.
func (n *TableNode) IsLeaf() bool {
	return n.Typ == TypNumber || n.Typ == TypCharacter
}

// GetPathNodes returns the chain from the subset root down to this node.
func (n *TableNode) GetPathNodes() []*TableNode {
	var rev []*TableNode
	for node := n; node != nil; node = node.parent {
		rev = append(rev, node)
	}
	nodes := make([]*TableNode, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		nodes = append(nodes, rev[i])
	}
	return nodes
}

// GetDimPaths returns one human-readable path per exported dimension of
// this leaf, starting with "*" for the subset axis. Delayed-binary
// ancestors extend the label but export no dimension of their own.
func (n *TableNode) GetDimPaths() []string {
	current := "*"
	paths := []string{current}
	nodes := n.GetPathNodes()
	for i := 1; i < len(nodes)-1; i++ {
		construct := nodes[i]
		current = current + "/" + construct.dimLabel
		if construct.exportsDim() {
			paths = append(paths, current)
		}
	}
	return paths
}

// GetDimIdxs returns the positions of the exported dimensions within the
// leaf's full [subset, rep...] dimension list.
func (n *TableNode) GetDimIdxs() []int {
	idxs := []int{0}
	nodes := n.GetPathNodes()
	for i := 1; i < len(nodes)-1; i++ {
		if nodes[i].exportsDim() {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

func (n *TableNode) exportsDim() bool {
	return n.Typ == TypDelayedRep || n.Typ == TypFixedRep || n.Typ == TypDelayedRepStacked
}

// stripDelimiters removes the single-character sentinels wrapping a
// replication node's tag.
func stripDelimiters(tag string) string {
	if len(tag) >= 2 {
		return tag[1 : len(tag)-1]
	}
	return tag
}

func renderPath(path []QueryComponent) string {
	out := ""
	for _, c := range path {
		out += "/" + c.Name
	}
	return out
}
