package util

import "runtime"

// GetOptimalPoolSize returns the pool size shared by the parser pools and
// the file analysis workers.
//
// Formula: min(max(runtime.NumCPU() * 2, 4), 32)
//
// Parsing runs in cgo, so twice the core count keeps the CPUs busy while
// some workers are blocked in C. Both pools MUST use the same size,
// otherwise workers queue up waiting for a free parser.
//
// Examples:
//   - 1-2 cores: 4 (minimum enforced)
//   - 4 cores: 8
//   - 8 cores: 16
//   - 16+ cores: 32 (maximum enforced)
func GetOptimalPoolSize() int {
	cores := runtime.NumCPU()
	poolSize := cores * 2

	if poolSize < 4 {
		poolSize = 4
	}
	if poolSize > 32 {
		poolSize = 32
	}

	return poolSize
}

// GetOptimalPoolSizeWithOverride returns override when it is positive and
// GetOptimalPoolSize() otherwise.
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
