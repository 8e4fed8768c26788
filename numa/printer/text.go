package printer

import (
	"bytes"
	"strings"

	"github.com/joshuapare/numakit/numa/alloc"
)

func (p *Printer) indent(depth int) string {
	return strings.Repeat(" ", depth*p.opts.IndentSize)
}

// flush writes a rendered report to the destination in one call, so a failing
// writer surfaces as an error instead of a silently truncated report.
func (p *Printer) flush(b *bytes.Buffer) error {
	_, err := p.writer.Write(b.Bytes())
	return err
}

func (p *Printer) printNodeText(ns alloc.NodeStats, depth int) error {
	var b bytes.Buffer
	p.renderNode(&b, ns, depth)
	return p.flush(&b)
}

func (p *Printer) printAllText(nodes []alloc.NodeStats) error {
	var b bytes.Buffer
	p.msg.Fprintf(&b, "Nodes: %d, Heap per node: %d bytes\n", len(nodes), p.src.HeapSize())
	for _, ns := range nodes {
		p.renderNode(&b, ns, 0)
	}
	p.renderStats(&b, p.src.Stats(), 0)
	return p.flush(&b)
}

func (p *Printer) printStatsText(s alloc.Stats, depth int) error {
	var b bytes.Buffer
	p.renderStats(&b, s, depth)
	return p.flush(&b)
}

// renderNode renders one node as a header line and one line per bin.
// Writes to a bytes.Buffer cannot fail.
func (p *Printer) renderNode(b *bytes.Buffer, ns alloc.NodeStats, depth int) {
	in := p.indent(depth)

	if p.opts.ShowAddresses {
		p.msg.Fprintf(b, "%sNode %d @ %s\n", in, ns.Node, ns.Start)
	} else {
		p.msg.Fprintf(b, "%sNode %d\n", in, ns.Node)
	}
	p.msg.Fprintf(b, "%s  Size: %d bytes, Free: %d bytes\n", in, ns.Size, ns.FreeBytes)

	in = p.indent(depth + 1)
	for _, bin := range ns.Bins {
		if p.opts.SkipEmptyBins && bin.Blocks == 0 {
			continue
		}
		p.msg.Fprintf(b, "%sBin %d (%d B): %d/%d free", in, bin.Index, bin.Class, bin.Free, bin.Blocks)
		if p.opts.ShowAddresses && bin.First != 0 {
			p.msg.Fprintf(b, " first %s", bin.First)
		}
		b.WriteByte('\n')
	}
}

func (p *Printer) renderStats(b *bytes.Buffer, s alloc.Stats, depth int) {
	in := p.indent(depth)
	p.msg.Fprintf(b, "%sAllocations: %d (raw %d), Frees: %d (raw %d)\n",
		in, s.AllocCalls, s.RawAllocs, s.FreeCalls, s.RawFrees)
	p.msg.Fprintf(b, "%sBytes allocated: %d, Bytes freed: %d\n", in, s.BytesAllocated, s.BytesFreed)
	p.msg.Fprintf(b, "%sExhausted: %d, Raw outstanding: %d\n", in, s.Exhausted, s.RawOutstanding)
}
