//go:build amd64 || arm64

package cpu

// programKind names the textual kernel-program family emitted when the
// target architecture has a vectorized path available (teacher:
// kernels/asm.go's useASM=true split).
func programKind() string { return "vector_cpu" }
