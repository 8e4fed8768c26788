package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/joshuapare/numakit/internal/affinity"
	"github.com/joshuapare/numakit/internal/topology"
)

func init() {
	rootCmd.AddCommand(newTopologyCmd())
}

func newTopologyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topology",
		Short: "Show NUMA nodes and their CPUs",
		Long: `The topology command prints every NUMA node with its CPU list, the
CPU the command is running on and the CPUs it may be scheduled on.

Example:
  numakit topology
  numakit topology --sysfs /tmp/fake-node-tree
  numakit topology --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTopology()
		},
	}
}

type topologyNode struct {
	Node int    `json:"node"`
	CPUs string `json:"cpus"`
}

type topologyReport struct {
	Nodes      []topologyNode `json:"nodes"`
	NumCPU     int            `json:"num_cpu"`
	CurrentCPU int            `json:"current_cpu"`
	LocalNode  int            `json:"local_node"`
	Allowed    string         `json:"allowed,omitempty"`
}

func runTopology() error {
	topo, err := loadTopology()
	if err != nil {
		return err
	}

	report := topologyReport{NumCPU: runtime.NumCPU(), CurrentCPU: -1, LocalNode: -1}
	for node := range topo.NumNodes() {
		report.Nodes = append(report.Nodes, topologyNode{
			Node: node,
			CPUs: topology.FormatCPUList(topo.CPUsOfNode(node)),
		})
	}
	if simNodes == 0 {
		if cpu, err := affinity.Default().CurrentCPU(); err == nil {
			report.CurrentCPU = cpu
			if node, ok := topo.NodeOfCPU(cpu); ok {
				report.LocalNode = node
			}
		}
		if cpus, err := affinity.Allowed(); err == nil {
			report.Allowed = topology.FormatCPUList(cpus)
		}
	}

	if jsonOut {
		return printJSON(report)
	}

	printInfo("%s %d\n", label("Nodes"), len(report.Nodes))
	for _, n := range report.Nodes {
		printInfo("  %s %s\n", styled(nodeStyle, fmt.Sprintf("node%d:", n.Node)), n.CPUs)
	}
	if report.CurrentCPU >= 0 {
		printInfo("%s %d (node %d)\n", label("Current CPU"), report.CurrentCPU, report.LocalNode)
	}
	if report.Allowed != "" {
		printInfo("%s %s\n", label("Allowed CPUs"), styled(mutedStyle, report.Allowed))
	}
	return nil
}
