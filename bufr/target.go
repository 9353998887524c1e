package bufr

// TargetComponentRole classifies a resolved path component.
type TargetComponentRole int

const (
	RoleSubset TargetComponentRole = iota
	RoleRepeat
	RoleValue
)

// TargetComponent is one element of a resolved query path: the original
// query component, the template node id it bound to (0 for the subset
// component), and its role.
type TargetComponent struct {
	QueryComponent QueryComponent
	Branch         int
	Role           TargetComponentRole
}

// roleForTyp maps a template node type onto the component role it plays in
// a resolved path.
func roleForTyp(t Typ) TargetComponentRole {
	switch t {
	case TypSubset:
		return RoleSubset
	case TypNumber, TypCharacter:
		return RoleValue
	default:
		return RoleRepeat
	}
}

// Target is an immutable description of one query resolved against one
// subset's template. Targets are shared read-only between the runner's
// resolution cache and every DataFrame harvested for that subset.
type Target struct {
	Name     string
	QueryStr string

	// Path holds the resolved components: subset, replication branches,
	// leaf. Empty when the query did not apply to the subset.
	Path []TargetComponent

	// SeqPath holds the node ids of the replication-bearing ancestors, in
	// root-to-leaf order. Its length is the leaf's dimensionality minus
	// the implicit subset axis.
	SeqPath []int

	// NodeIdx is the leaf's node id, or 0 when the query did not apply.
	NodeIdx int

	DimPaths      []string
	ExportDimIdxs []int
	TypeInfo      TypeInfo
}

// SetPath installs the resolved components and derives SeqPath from the
// replication-bearing entries.
func (t *Target) SetPath(path []TargetComponent) {
	t.Path = path
	t.SeqPath = t.SeqPath[:0]
	for _, comp := range path {
		if comp.Role == RoleRepeat {
			t.SeqPath = append(t.SeqPath, comp.Branch)
		}
	}
}

// emptyTarget builds the trivial target emitted when no alternative of a
// named query resolved against the current subset.
func emptyTarget(name, queryStr string) *Target {
	return &Target{
		Name:          name,
		QueryStr:      queryStr,
		DimPaths:      []string{"*"},
		ExportDimIdxs: []int{0},
	}
}
