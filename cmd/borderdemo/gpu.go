//go:build gpu

package main

// Registers gg's GPU accelerator. Rasterization falls back to the CPU when
// no adapter is available.
import _ "github.com/gogpu/gg/gpu"
