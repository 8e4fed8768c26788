// Command numakit inspects NUMA topology and exercises the numakit allocator
// and collector.
package main

func main() {
	execute()
}
