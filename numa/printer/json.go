package printer

import (
	"encoding/json"

	"github.com/joshuapare/numakit/numa/alloc"
)

// jsonHeap is the document written by PrintAll in JSON format.
type jsonHeap struct {
	HeapSize int               `json:"heap_size"`
	Nodes    []alloc.NodeStats `json:"nodes"`
	Stats    jsonStats         `json:"stats"`
}

type jsonStats struct {
	AllocCalls     int64 `json:"alloc_calls"`
	FreeCalls      int64 `json:"free_calls"`
	RawAllocs      int64 `json:"raw_allocs"`
	RawFrees       int64 `json:"raw_frees"`
	Exhausted      int64 `json:"exhausted"`
	BytesAllocated int64 `json:"bytes_allocated"`
	BytesFreed     int64 `json:"bytes_freed"`
	RawOutstanding int   `json:"raw_outstanding"`
}

func toJSONStats(s alloc.Stats) jsonStats {
	return jsonStats(s)
}

func (p *Printer) printNodeJSON(ns alloc.NodeStats) error {
	if !p.opts.ShowAddresses {
		ns = stripAddresses(ns)
	}
	return p.encode(ns)
}

func (p *Printer) printAllJSON(nodes []alloc.NodeStats) error {
	if !p.opts.ShowAddresses {
		for i := range nodes {
			nodes[i] = stripAddresses(nodes[i])
		}
	}
	return p.encode(jsonHeap{
		HeapSize: p.src.HeapSize(),
		Nodes:    nodes,
		Stats:    toJSONStats(p.src.Stats()),
	})
}

func (p *Printer) encode(v any) error {
	if s, ok := v.(alloc.Stats); ok {
		v = toJSONStats(s)
	}
	enc := json.NewEncoder(p.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func stripAddresses(ns alloc.NodeStats) alloc.NodeStats {
	ns.Start = 0
	for i := range ns.Bins {
		ns.Bins[i].First = 0
	}
	return ns
}
