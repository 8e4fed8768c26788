// Package printer renders allocator heap state for humans and tools.
package printer

import (
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/numakit/numa/alloc"
)

const DefaultIndentSize = 2

// Format specifies the output format for printing.
type Format string

const (
	// FormatText outputs a human-readable table per node.
	FormatText Format = "text"

	// FormatJSON outputs one JSON document.
	FormatJSON Format = "json"
)

// Source is the heap state a Printer reads. *alloc.Allocator implements it.
type Source interface {
	NumNodes() int
	HeapSize() int
	NodeStats(node int) (alloc.NodeStats, error)
	Stats() alloc.Stats
}

// Options controls printing behavior.
type Options struct {
	// Format specifies output format (text, json).
	// Default: FormatText
	Format Format

	// IndentSize is the number of spaces per indent level (text format only).
	// Default: 2
	IndentSize int

	// ShowAddresses includes node and bin start addresses.
	// Default: true
	ShowAddresses bool

	// SkipEmptyBins omits bins that own no blocks (text format only).
	// Default: false
	SkipEmptyBins bool

	// Language selects digit grouping for byte and block counts
	// (text format only).
	// Default: language.English
	Language language.Tag
}

// DefaultOptions returns sensible defaults for printing.
func DefaultOptions() Options {
	return Options{
		Format:        FormatText,
		IndentSize:    DefaultIndentSize,
		ShowAddresses: true,
		Language:      language.English,
	}
}

// Printer writes heap reports for a Source.
type Printer struct {
	opts   Options
	writer io.Writer
	src    Source
	msg    *message.Printer
}

// New creates a new Printer.
//
// Example:
//
//	a, _ := alloc.New(alloc.DefaultOptions())
//	p := printer.New(a, os.Stdout, printer.DefaultOptions())
//	p.PrintHeap(0)
func New(src Source, w io.Writer, opts Options) *Printer {
	if opts.IndentSize < 0 {
		opts.IndentSize = 0
	}
	return &Printer{
		opts:   opts,
		writer: w,
		src:    src,
		msg:    message.NewPrinter(opts.Language),
	}
}

// PrintHeap prints the free lists of one node.
func (p *Printer) PrintHeap(node int) error {
	ns, err := p.src.NodeStats(node)
	if err != nil {
		return fmt.Errorf("node %d: %w", node, err)
	}
	if p.opts.Format == FormatJSON {
		return p.printNodeJSON(ns)
	}
	return p.printNodeText(ns, 0)
}

// PrintAll prints every node followed by the cumulative counters.
func (p *Printer) PrintAll() error {
	nodes := make([]alloc.NodeStats, 0, p.src.NumNodes())
	for node := range p.src.NumNodes() {
		ns, err := p.src.NodeStats(node)
		if err != nil {
			return fmt.Errorf("node %d: %w", node, err)
		}
		nodes = append(nodes, ns)
	}

	if p.opts.Format == FormatJSON {
		return p.printAllJSON(nodes)
	}
	return p.printAllText(nodes)
}

// PrintStats prints only the cumulative counters.
func (p *Printer) PrintStats() error {
	if p.opts.Format == FormatJSON {
		return p.encode(p.src.Stats())
	}
	return p.printStatsText(p.src.Stats(), 0)
}
