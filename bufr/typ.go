// Package bufr implements the query-and-materialization core of a decoder
// for hierarchical meteorological binary messages. Callers describe the
// readings they want as slash-separated query paths, accumulate one decoded
// subset at a time through a QueryRunner, and extract each named query from
// the ResultSet as a dense multi-dimensional array aligned across subsets.
package bufr

import "fmt"

// Typ identifies the kind of a template node.
type Typ int

const (
	TypNone Typ = iota
	TypSubset
	TypDelayedRep
	TypFixedRep
	TypDelayedRepStacked
	TypDelayedBinary
	TypSequence
	TypRepeat
	TypStackedRepeat
	TypNumber
	TypCharacter
)

var typNames = map[Typ]string{
	TypNone:              "NONE",
	TypSubset:            "SUB",
	TypDelayedRep:        "DRP",
	TypFixedRep:          "REP",
	TypDelayedRepStacked: "DRS",
	TypDelayedBinary:     "DRB",
	TypSequence:          "SEQ",
	TypRepeat:            "RPC",
	TypStackedRepeat:     "RPS",
	TypNumber:            "NUM",
	TypCharacter:         "CHR",
}

func (t Typ) String() string {
	if s, ok := typNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Typ(%d)", int(t))
}

// ParseTyp converts the three-letter node type mnemonic used in template
// dumps back into a Typ. It returns TypNone for unrecognized strings.
func ParseTyp(s string) Typ {
	for t, name := range typNames {
		if name == s {
			return t
		}
	}
	return TypNone
}

// isQueryNode reports whether a node of this type introduces a dimension.
// Exactly these four types open replication scopes during the stream walk.
func isQueryNode(t Typ) bool {
	return t == TypDelayedRep ||
		t == TypFixedRep ||
		t == TypDelayedRepStacked ||
		t == TypDelayedBinary
}
