package topology

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"node0/cpulist": {Data: []byte("0-3\n")},
		"node1/cpulist": {Data: []byte("4-7\n")},
		"possible":      {Data: []byte("0-1\n")},
		"nodeX/cpulist": {Data: []byte("99\n")},
	}
	topo, err := FromFS(fsys)
	require.NoError(t, err)
	require.Equal(t, 2, topo.NumNodes())
	require.Equal(t, []int{4, 5, 6, 7}, topo.CPUsOfNode(1))
	require.Equal(t, 8, topo.NumCPUs())

	node, ok := topo.NodeOfCPU(5)
	require.True(t, ok)
	require.Equal(t, 1, node)

	_, ok = topo.NodeOfCPU(99)
	require.False(t, ok, "cpu under a non-numeric node dir must be unmapped")
	require.Equal(t, "node0=0-3 node1=4-7", topo.String())
}

func TestFromFSSparseNodeIDs(t *testing.T) {
	fsys := fstest.MapFS{
		"node2/cpulist": {Data: []byte("2")},
		"node0/cpulist": {Data: []byte("0")},
	}
	topo, err := FromFS(fsys)
	require.NoError(t, err)
	require.Equal(t, 2, topo.NumNodes())
	node, ok := topo.NodeOfCPU(2)
	require.True(t, ok)
	require.Equal(t, 1, node, "node ids are renumbered densely")
}

func TestFromFSErrors(t *testing.T) {
	_, err := FromFS(fstest.MapFS{"cpu0/online": {Data: []byte("1")}})
	require.ErrorIs(t, err, ErrNoNodes)

	_, err = FromFS(fstest.MapFS{"node0/cpulist": {Data: []byte("zz")}})
	require.ErrorIs(t, err, ErrBadCPUList)
}

func TestNewStaticRejectsDuplicates(t *testing.T) {
	_, err := NewStatic([][]int{{0, 1}, {1, 2}})
	require.Error(t, err)

	_, err = NewStatic(nil)
	require.ErrorIs(t, err, ErrNoNodes)
}

func TestSingleNode(t *testing.T) {
	topo := SingleNode(4)
	require.Equal(t, 1, topo.NumNodes())
	require.Equal(t, []int{0, 1, 2, 3}, topo.CPUsOfNode(0))
	require.Nil(t, topo.CPUsOfNode(1))
}

func TestDetectHonoursEnv(t *testing.T) {
	t.Setenv(EnvSysfsRoot, t.TempDir())
	topo := Detect()
	require.Equal(t, 1, topo.NumNodes(), "empty sysfs root falls back to a single node")
}
