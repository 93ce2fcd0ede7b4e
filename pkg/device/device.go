// Package device reports the compute resources training runs on.
package device

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
	"go.uber.org/zap"
)

// Info describes the host CPU
type Info struct {
	Brand         string
	PhysicalCores int
	LogicalCores  int
	AVX2          bool
	AVX512        bool
}

// Detect inspects the host CPU
func Detect() Info {
	info := Info{
		Brand:         cpuid.CPU.BrandName,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
		AVX2:          cpuid.CPU.Supports(cpuid.AVX2),
		AVX512:        cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ),
	}
	if info.Brand == "" {
		info.Brand = runtime.GOARCH
	}
	return info
}

// Workers returns how many evaluation episodes may run concurrently
func (i Info) Workers() int {
	n := i.PhysicalCores
	if n <= 0 {
		n = i.LogicalCores
	}
	if procs := runtime.GOMAXPROCS(0); n <= 0 || n > procs {
		n = procs
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Fields returns the info as log fields
func (i Info) Fields() []zap.Field {
	return []zap.Field{
		zap.String("cpu", i.Brand),
		zap.Int("physical_cores", i.PhysicalCores),
		zap.Int("logical_cores", i.LogicalCores),
		zap.Bool("avx2", i.AVX2),
		zap.Bool("avx512", i.AVX512),
	}
}
