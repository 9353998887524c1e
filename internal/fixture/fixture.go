// Package fixture replays recorded subset state as a bufr.DataProvider.
// A fixture file is a YAML document carrying, verbatim, the template node
// arrays and flat value streams a native decoder would expose; it drives
// the CLI and integration tests without a message on hand.
package fixture

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rhoneyager-tomorrow/ioda-converters-1/bufr"
)

// Node is one recorded template node.
type Node struct {
	ID   int    `yaml:"id"`
	Typ  string `yaml:"typ"`
	Tag  string `yaml:"tag"`
	Jmpb int    `yaml:"jmpb"`
	Link int    `yaml:"link,omitempty"`

	Bits      int    `yaml:"bits,omitempty"`
	Scale     int    `yaml:"scale,omitempty"`
	Reference int    `yaml:"reference,omitempty"`
	Unit      string `yaml:"unit,omitempty"`
}

// Entry is one recorded value stream position.
type Entry struct {
	Node  int     `yaml:"node"`
	Value float64 `yaml:"value,omitempty"`
}

// Subset is one recorded subset: a template plus its flat value stream.
// It implements bufr.DataProvider.
type Subset struct {
	Name   string  `yaml:"name"`
	Inode  int     `yaml:"inode"`
	Nodes  []Node  `yaml:"nodes"`
	Stream []Entry `yaml:"stream"`

	byID map[int]*Node
	isc  int
}

// File is a parsed fixture document.
type File struct {
	Subsets []*Subset `yaml:"subsets"`
}

// Load parses and validates a fixture document.
func Load(r io.Reader) (*File, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if len(f.Subsets) == 0 {
		return nil, fmt.Errorf("fixture contains no subsets")
	}
	for _, s := range f.Subsets {
		if err := s.index(); err != nil {
			return nil, err
		}
	}
	return &f, nil
}

// LoadFile parses and validates the fixture document at path.
func LoadFile(path string) (*File, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer r.Close()
	return Load(r)
}

func (s *Subset) index() error {
	if s.Name == "" {
		return fmt.Errorf("subset has no name")
	}
	if s.Inode == 0 {
		s.Inode = 1
	}
	if len(s.Nodes) == 0 {
		return fmt.Errorf("subset %q has no nodes", s.Name)
	}

	s.byID = make(map[int]*Node, len(s.Nodes))
	s.isc = s.Inode
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if bufr.ParseTyp(n.Typ) == bufr.TypNone {
			return fmt.Errorf("subset %q node %d: unknown typ %q", s.Name, n.ID, n.Typ)
		}
		if _, dup := s.byID[n.ID]; dup {
			return fmt.Errorf("subset %q: duplicate node id %d", s.Name, n.ID)
		}
		s.byID[n.ID] = n
		if n.ID > s.isc {
			s.isc = n.ID
		}
	}
	if root, ok := s.byID[s.Inode]; !ok || bufr.ParseTyp(root.Typ) != bufr.TypSubset {
		return fmt.Errorf("subset %q: inode %d is not a SUB node", s.Name, s.Inode)
	}
	for _, e := range s.Stream {
		if _, ok := s.byID[e.Node]; !ok {
			return fmt.Errorf("subset %q: stream references unknown node %d", s.Name, e.Node)
		}
	}
	return nil
}

// Cursor steps a fixture file one subset at a time, presenting the current
// subset as a bufr.DataProvider. The runner never advances it; call Next
// before each Accumulate.
type Cursor struct {
	file *File
	pos  int
}

// Cursor returns an unpositioned cursor over the file's subsets.
func (f *File) Cursor() *Cursor {
	return &Cursor{file: f, pos: -1}
}

// Next advances to the next subset, reporting false when exhausted.
func (c *Cursor) Next() bool {
	if c.pos+1 >= len(c.file.Subsets) {
		return false
	}
	c.pos++
	return true
}

func (c *Cursor) current() *Subset { return c.file.Subsets[c.pos] }

var _ bufr.DataProvider = (*Cursor)(nil)

func (c *Cursor) GetSubset() string                    { return c.current().GetSubset() }
func (c *Cursor) GetInode() int                        { return c.current().GetInode() }
func (c *Cursor) GetIsc(nodeIdx int) int               { return c.current().GetIsc(nodeIdx) }
func (c *Cursor) GetNVal() int                         { return c.current().GetNVal() }
func (c *Cursor) GetInv(cursor int) int                { return c.current().GetInv(cursor) }
func (c *Cursor) GetVal(cursor int) float64            { return c.current().GetVal(cursor) }
func (c *Cursor) GetTyp(nodeIdx int) bufr.Typ          { return c.current().GetTyp(nodeIdx) }
func (c *Cursor) GetTag(nodeIdx int) string            { return c.current().GetTag(nodeIdx) }
func (c *Cursor) GetJmpb(nodeIdx int) int              { return c.current().GetJmpb(nodeIdx) }
func (c *Cursor) GetLink(nodeIdx int) int              { return c.current().GetLink(nodeIdx) }
func (c *Cursor) GetTypeInfo(nodeIdx int) bufr.TypeInfo { return c.current().GetTypeInfo(nodeIdx) }

var _ bufr.DataProvider = (*Subset)(nil)

func (s *Subset) GetSubset() string { return s.Name }
func (s *Subset) GetInode() int     { return s.Inode }
func (s *Subset) GetIsc(int) int    { return s.isc }
func (s *Subset) GetNVal() int      { return len(s.Stream) }

func (s *Subset) GetInv(cursor int) int     { return s.Stream[cursor-1].Node }
func (s *Subset) GetVal(cursor int) float64 { return s.Stream[cursor-1].Value }

func (s *Subset) GetTyp(nodeIdx int) bufr.Typ { return bufr.ParseTyp(s.byID[nodeIdx].Typ) }
func (s *Subset) GetTag(nodeIdx int) string   { return s.byID[nodeIdx].Tag }
func (s *Subset) GetJmpb(nodeIdx int) int     { return s.byID[nodeIdx].Jmpb }
func (s *Subset) GetLink(nodeIdx int) int     { return s.byID[nodeIdx].Link }

func (s *Subset) GetTypeInfo(nodeIdx int) bufr.TypeInfo {
	n := s.byID[nodeIdx]
	return bufr.TypeInfo{
		Scale:     n.Scale,
		Reference: n.Reference,
		Bits:      n.Bits,
		Unit:      n.Unit,
		Char:      bufr.ParseTyp(n.Typ) == bufr.TypCharacter,
	}
}
