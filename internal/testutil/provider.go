// Package testutil provides shared mock implementations of the decoder
// interfaces for use in tests across the codebase. This follows the Go
// convention of a shared test utility package (like net/http/httptest).
package testutil

import (
	"github.com/rhoneyager-tomorrow/ioda-converters-1/bufr"
)

// Node describes one template node of a mock subset. Nodes are laid out
// contiguously: the i-th entry has id Inode+i.
type Node struct {
	Typ  bufr.Typ
	Tag  string
	Jmpb int
	Link int
	Info bufr.TypeInfo
}

// Entry is one position of the mock value stream.
type Entry struct {
	Node  int
	Value float64
}

// MockProvider implements bufr.DataProvider over literal node and stream
// tables. TagCalls counts GetTag reads so tests can assert that resolution
// touches the template only on the first subset of a given name.
type MockProvider struct {
	Name   string
	Inode  int
	Nodes  []Node
	Stream []Entry

	TagCalls int
}

var _ bufr.DataProvider = (*MockProvider)(nil)

func (m *MockProvider) GetSubset() string { return m.Name }
func (m *MockProvider) GetInode() int     { return m.Inode }

// GetIsc returns the last node id of the template; the query core only asks
// for the root's last descendant.
func (m *MockProvider) GetIsc(int) int { return m.Inode + len(m.Nodes) - 1 }

func (m *MockProvider) GetNVal() int { return len(m.Stream) }

func (m *MockProvider) GetInv(cursor int) int { return m.Stream[cursor-1].Node }

func (m *MockProvider) GetVal(cursor int) float64 { return m.Stream[cursor-1].Value }

func (m *MockProvider) GetTyp(nodeIdx int) bufr.Typ { return m.node(nodeIdx).Typ }

func (m *MockProvider) GetTag(nodeIdx int) string {
	m.TagCalls++
	return m.node(nodeIdx).Tag
}

func (m *MockProvider) GetJmpb(nodeIdx int) int { return m.node(nodeIdx).Jmpb }
func (m *MockProvider) GetLink(nodeIdx int) int { return m.node(nodeIdx).Link }

func (m *MockProvider) GetTypeInfo(nodeIdx int) bufr.TypeInfo { return m.node(nodeIdx).Info }

func (m *MockProvider) node(nodeIdx int) *Node { return &m.Nodes[nodeIdx-m.Inode] }
