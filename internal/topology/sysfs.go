package topology

import (
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

// DefaultSysfsRoot is where Linux exposes one directory per NUMA node.
const DefaultSysfsRoot = "/sys/devices/system/node"

// EnvSysfsRoot overrides the sysfs root, mainly for containers and tests.
const EnvSysfsRoot = "NUMAKIT_SYSFS"

// FromFS reads a sysfs-style tree: one "nodeN" directory per node, each
// holding a "cpulist" file. Node ids are renumbered densely in ascending
// order of N.
func FromFS(fsys fs.FS) (*Static, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("topology: read node dir: %w", err)
	}

	type nodeDir struct {
		id   int
		name string
	}
	var dirs []nodeDir
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "node") {
			continue
		}
		id, err := strconv.Atoi(strings.TrimPrefix(e.Name(), "node"))
		if err != nil {
			continue
		}
		dirs = append(dirs, nodeDir{id: id, name: e.Name()})
	}
	if len(dirs) == 0 {
		return nil, ErrNoNodes
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].id < dirs[j].id })

	nodeCPUs := make([][]int, 0, len(dirs))
	for _, d := range dirs {
		raw, err := fs.ReadFile(fsys, d.name+"/cpulist")
		if err != nil {
			return nil, fmt.Errorf("topology: %s: %w", d.name, err)
		}
		cpus, err := ParseCPUList(string(raw))
		if err != nil {
			return nil, fmt.Errorf("topology: %s: %w", d.name, err)
		}
		nodeCPUs = append(nodeCPUs, cpus)
	}
	return NewStatic(nodeCPUs)
}

// Detect reads the system topology from sysfs, honouring NUMAKIT_SYSFS.
// Hosts without NUMA information get a single node owning every CPU.
func Detect() Provider {
	root := os.Getenv(EnvSysfsRoot)
	if root == "" {
		root = DefaultSysfsRoot
	}
	t, err := FromFS(os.DirFS(root))
	if err != nil {
		return SingleNode(runtime.NumCPU())
	}
	return t
}
