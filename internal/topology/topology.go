// Package topology describes the NUMA layout of the machine: how many nodes
// exist and which CPUs belong to each.
package topology

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// ErrNoNodes is returned when a topology source lists no usable nodes.
var ErrNoNodes = errors.New("topology: no NUMA nodes found")

// Provider exposes the node count and the CPU to node mapping.
type Provider interface {
	// NumNodes returns the number of NUMA nodes.
	NumNodes() int

	// NodeOfCPU returns the node owning cpu, or false when cpu is unmapped.
	NodeOfCPU(cpu int) (int, bool)

	// CPUsOfNode returns the CPUs of node in ascending order.
	CPUsOfNode(node int) []int
}

// Static is an immutable topology built from an explicit node → CPU table.
// Node ids are dense indexes 0..NumNodes()-1.
type Static struct {
	cpus    [][]int
	cpuNode map[int]int
}

// NewStatic builds a topology where nodeCPUs[i] lists the CPUs of node i.
// A CPU listed under two nodes is an error.
func NewStatic(nodeCPUs [][]int) (*Static, error) {
	if len(nodeCPUs) == 0 {
		return nil, ErrNoNodes
	}
	t := &Static{
		cpus:    make([][]int, len(nodeCPUs)),
		cpuNode: make(map[int]int),
	}
	for node, cpus := range nodeCPUs {
		sorted := slices.Clone(cpus)
		sort.Ints(sorted)
		sorted = slices.Compact(sorted)
		for _, cpu := range sorted {
			if cpu < 0 {
				return nil, fmt.Errorf("topology: negative cpu %d on node %d", cpu, node)
			}
			if prev, dup := t.cpuNode[cpu]; dup {
				return nil, fmt.Errorf("topology: cpu %d listed on nodes %d and %d", cpu, prev, node)
			}
			t.cpuNode[cpu] = node
		}
		t.cpus[node] = sorted
	}
	return t, nil
}

// SingleNode returns a one-node topology owning cpus 0..numCPU-1.
func SingleNode(numCPU int) *Static {
	cpus := make([]int, 0, numCPU)
	for i := range numCPU {
		cpus = append(cpus, i)
	}
	t, _ := NewStatic([][]int{cpus}) //nolint:errcheck // one node, no duplicates
	return t
}

// NumNodes returns the number of nodes.
func (t *Static) NumNodes() int { return len(t.cpus) }

// NodeOfCPU returns the node owning cpu.
func (t *Static) NodeOfCPU(cpu int) (int, bool) {
	node, ok := t.cpuNode[cpu]
	return node, ok
}

// CPUsOfNode returns the CPUs of node, or nil for an out-of-range node.
func (t *Static) CPUsOfNode(node int) []int {
	if node < 0 || node >= len(t.cpus) {
		return nil
	}
	return slices.Clone(t.cpus[node])
}

// NumCPUs returns the number of mapped CPUs.
func (t *Static) NumCPUs() int { return len(t.cpuNode) }

// String renders the topology as "node0=0-3 node1=4-7".
func (t *Static) String() string {
	s := ""
	for node, cpus := range t.cpus {
		if node > 0 {
			s += " "
		}
		s += fmt.Sprintf("node%d=%s", node, FormatCPUList(cpus))
	}
	return s
}
