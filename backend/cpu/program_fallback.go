//go:build !amd64 && !arm64

package cpu

// programKind names the textual kernel-program family emitted on
// architectures without a vectorized path (teacher: kernels/asm_fallback.go's
// useASM=false split).
func programKind() string { return "scalar_cpu" }
