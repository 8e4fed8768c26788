//go:build unix && !linux

package backing

func adviseHuge([]byte) error { return nil }
