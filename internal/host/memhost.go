package host

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// MemHost is an in-memory Host implementation: a set of simulated
// processes whose address spaces are plain byte slices. It backs tests
// and local development; a production deployment swaps in a backend that
// talks to a real debugger or analysis engine.
//
// MemHost is deliberately not synchronized — it relies on the dispatcher's
// single-worker guarantee, like any real host backend would.
type MemHost struct {
	processes map[int]*memProcess
	attached  int // 0 = detached
}

type memProcess struct {
	info       ProcessInfo
	sections   []Section
	memory     map[uint64][]byte // section start -> backing bytes
	structures []Structure
}

// NewMemHost creates a MemHost with no processes. Use AddProcess to
// populate targets.
func NewMemHost() *MemHost {
	return &MemHost{processes: make(map[int]*memProcess)}
}

// AddProcess registers a simulated process with a single writable section
// at base containing data.
func (h *MemHost) AddProcess(pid int, name string, base uint64, data []byte) {
	backing := make([]byte, len(data))
	copy(backing, data)
	h.processes[pid] = &memProcess{
		info: ProcessInfo{PID: pid, Name: name},
		sections: []Section{
			{Name: name + ".data", Start: base, Size: uint64(len(backing)), Writable: true},
		},
		memory: map[uint64][]byte{base: backing},
	}
}

func (h *MemHost) ListProcesses(_ context.Context) ([]ProcessInfo, error) {
	out := make([]ProcessInfo, 0, len(h.processes))
	for _, p := range h.processes {
		out = append(out, p.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out, nil
}

func (h *MemHost) Attach(_ context.Context, pid int) error {
	if _, ok := h.processes[pid]; !ok {
		return fmt.Errorf("%w: pid %d", ErrProcessNotFound, pid)
	}
	h.attached = pid
	return nil
}

func (h *MemHost) Detach(_ context.Context) error {
	if h.attached == 0 {
		return ErrNotAttached
	}
	h.attached = 0
	return nil
}

func (h *MemHost) AttachedPID(_ context.Context) (int, bool) {
	return h.attached, h.attached != 0
}

func (h *MemHost) target() (*memProcess, error) {
	if h.attached == 0 {
		return nil, ErrNotAttached
	}
	return h.processes[h.attached], nil
}

func (h *MemHost) ReadMemory(_ context.Context, addr uint64, size int) ([]byte, error) {
	p, err := h.target()
	if err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrBadAddress, size)
	}
	for start, backing := range p.memory {
		if inSection(addr, uint64(size), start, uint64(len(backing))) {
			out := make([]byte, size)
			copy(out, backing[addr-start:])
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: %#x", ErrBadAddress, addr)
}

func (h *MemHost) WriteMemory(_ context.Context, addr uint64, data []byte) error {
	p, err := h.target()
	if err != nil {
		return err
	}
	for start, backing := range p.memory {
		if inSection(addr, uint64(len(data)), start, uint64(len(backing))) {
			copy(backing[addr-start:], data)
			return nil
		}
	}
	return fmt.Errorf("%w: %#x", ErrBadAddress, addr)
}

// inSection reports whether [addr, addr+size) lies within the section at
// start. Comparisons stay on the section side of the subtraction so a
// large addr cannot wrap addr+size around zero.
func inSection(addr, size, start, sectionSize uint64) bool {
	end := start + sectionSize
	return addr >= start && addr <= end && size <= end-addr
}

func (h *MemHost) Sections(_ context.Context) ([]Section, error) {
	p, err := h.target()
	if err != nil {
		return nil, err
	}
	return p.sections, nil
}

// ScanPattern searches the attached target for a byte pattern given as
// space-separated hex pairs, "??" matching any byte ("48 8B ?? 05").
func (h *MemHost) ScanPattern(_ context.Context, pattern string, writableOnly bool) ([]uint64, error) {
	p, err := h.target()
	if err != nil {
		return nil, err
	}
	needle, mask, err := parsePattern(pattern)
	if err != nil {
		return nil, err
	}

	var matches []uint64
	for _, s := range p.sections {
		if writableOnly && !s.Writable {
			continue
		}
		backing := p.memory[s.Start]
		for i := 0; i+len(needle) <= len(backing); i++ {
			if matchesAt(backing[i:], needle, mask) {
				matches = append(matches, s.Start+uint64(i))
			}
		}
	}
	return matches, nil
}

// Disassemble renders instructions as raw byte listings. A real backend
// plugs in an actual decoder; the contract only promises an ordered
// instruction list starting at addr.
func (h *MemHost) Disassemble(ctx context.Context, addr uint64, count int) ([]Instruction, error) {
	const width = 4
	data, err := h.ReadMemory(ctx, addr, count*width)
	if err != nil {
		return nil, err
	}
	out := make([]Instruction, 0, count)
	for i := 0; i < count; i++ {
		chunk := data[i*width : (i+1)*width]
		out = append(out, Instruction{
			Address: addr + uint64(i*width),
			Bytes:   hex.EncodeToString(chunk),
			Text:    fmt.Sprintf("db %s", strings.ToUpper(hex.EncodeToString(chunk))),
		})
	}
	return out, nil
}

func (h *MemHost) Structures(_ context.Context) ([]Structure, error) {
	p, err := h.target()
	if err != nil {
		return nil, err
	}
	return p.structures, nil
}

func (h *MemHost) AddStructureField(_ context.Context, structure, name, kind string, offset int64) error {
	p, err := h.target()
	if err != nil {
		return err
	}
	field := StructureField{Name: name, Kind: kind, Offset: offset}
	for i := range p.structures {
		if p.structures[i].Name == structure {
			p.structures[i].Fields = append(p.structures[i].Fields, field)
			return nil
		}
	}
	// First field of a new structure creates it.
	p.structures = append(p.structures, Structure{Name: structure, Fields: []StructureField{field}})
	return nil
}

func parsePattern(pattern string) (needle []byte, mask []bool, err error) {
	fields := strings.Fields(pattern)
	if len(fields) == 0 {
		return nil, nil, ErrBadPattern
	}
	for _, f := range fields {
		if f == "??" || f == "?" {
			needle = append(needle, 0)
			mask = append(mask, false)
			continue
		}
		b, decodeErr := hex.DecodeString(f)
		if decodeErr != nil || len(b) != 1 {
			return nil, nil, fmt.Errorf("%w: %q", ErrBadPattern, f)
		}
		needle = append(needle, b[0])
		mask = append(mask, true)
	}
	return needle, mask, nil
}

func matchesAt(data, needle []byte, mask []bool) bool {
	if len(data) < len(needle) {
		return false
	}
	for i := range needle {
		if mask[i] && data[i] != needle[i] {
			return false
		}
	}
	return true
}
