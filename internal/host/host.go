// Package host defines the boundary to the memory-analysis host: the
// external collaborator whose process, memory, and structure state the
// tools read and mutate. The server core never touches this state
// directly; tool handlers delegate to a Host and all calls reach it
// through the single affinity worker, so implementations may be freely
// thread-unsafe.
package host

import (
	"context"
	"errors"
)

// Sentinel domain errors. These surface as application-level failures
// inside a successful tool result, never as protocol errors.
var (
	ErrNotAttached     = errors.New("no target attached")
	ErrProcessNotFound = errors.New("process not found")
	ErrBadAddress      = errors.New("address out of mapped range")
	ErrBadPattern      = errors.New("invalid scan pattern")
	ErrNoStructure     = errors.New("structure not found")
)

// ProcessInfo identifies an attachable target process.
type ProcessInfo struct {
	PID  int    `json:"pid"`
	Name string `json:"name"`
}

// Section is one mapped memory region of the attached target.
type Section struct {
	Name     string `json:"name"`
	Start    uint64 `json:"start"`
	Size     uint64 `json:"size"`
	Writable bool   `json:"writable"`
}

// Instruction is one decoded instruction as rendered by the host's
// disassembly backend.
type Instruction struct {
	Address uint64 `json:"address"`
	Bytes   string `json:"bytes"`
	Text    string `json:"text"`
}

// StructureField is one field of a user-defined structure.
type StructureField struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Offset int64  `json:"offset"`
}

// Structure is a user-defined layout over target memory.
type Structure struct {
	Name   string           `json:"name"`
	Fields []StructureField `json:"fields"`
}

// Host is the collaborator contract. Implementations are not required to
// be safe for concurrent use; the dispatcher guarantees single-threaded
// access.
type Host interface {
	ListProcesses(ctx context.Context) ([]ProcessInfo, error)
	Attach(ctx context.Context, pid int) error
	Detach(ctx context.Context) error
	AttachedPID(ctx context.Context) (int, bool)

	ReadMemory(ctx context.Context, addr uint64, size int) ([]byte, error)
	WriteMemory(ctx context.Context, addr uint64, data []byte) error
	Sections(ctx context.Context) ([]Section, error)

	ScanPattern(ctx context.Context, pattern string, writableOnly bool) ([]uint64, error)
	Disassemble(ctx context.Context, addr uint64, count int) ([]Instruction, error)

	Structures(ctx context.Context) ([]Structure, error)
	AddStructureField(ctx context.Context, structure, name, kind string, offset int64) error
}
