package host

import (
	"context"
	"strings"
	"testing"

	"membridge/internal/tool"
)

func newAttachedHost(t *testing.T) *MemHost {
	t.Helper()
	h := NewMemHost()
	h.AddProcess(1234, "game", 0x1000, []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x01, 0xBE, 0xEF})
	if err := h.Attach(context.Background(), 1234); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	return h
}

func callTool(t *testing.T, p tool.Provider, name string, args map[string]any) map[string]any {
	t.Helper()
	for _, tl := range p.Tools() {
		if tl.Name != name {
			continue
		}
		coerced, err := tool.BuildArgs(tl.Params, args)
		if err != nil {
			t.Fatalf("BuildArgs(%s): %v", name, err)
		}
		result, err := tl.Handler(context.Background(), coerced)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		payload, ok := result.(map[string]any)
		if !ok {
			t.Fatalf("%s: expected map payload, got %T", name, result)
		}
		return payload
	}
	t.Fatalf("tool %q not declared by provider", name)
	return nil
}

func TestReadMemory_HexPayload(t *testing.T) {
	h := newAttachedHost(t)
	p := &MemoryProvider{Host: h}

	payload := callTool(t, p, "read_memory", map[string]any{
		"address": "0x1000",
		"size":    float64(4),
	})
	if payload["bytes"] != "DEADBEEF" {
		t.Errorf("expected DEADBEEF, got %v", payload["bytes"])
	}
	if payload["address"] != "0x1000" {
		t.Errorf("expected address echoed, got %v", payload["address"])
	}
}

// TestReadMemory_NotAttached verifies the domain failure stays inside the
// result payload instead of becoming a handler error.
func TestReadMemory_NotAttached(t *testing.T) {
	h := NewMemHost()
	p := &MemoryProvider{Host: h}

	payload := callTool(t, p, "read_memory", map[string]any{"address": "0x1000"})
	if payload["error"] != ErrNotAttached.Error() {
		t.Errorf("expected not-attached domain error, got %v", payload)
	}
}

func TestWriteMemory_RoundTrip(t *testing.T) {
	h := newAttachedHost(t)
	p := &MemoryProvider{Host: h}

	write := callTool(t, p, "write_memory", map[string]any{
		"address": "0x1004",
		"bytes":   "CA FE",
	})
	if write["ok"] != true {
		t.Fatalf("expected ok write, got %v", write)
	}

	read := callTool(t, p, "read_memory", map[string]any{
		"address": "0x1004",
		"size":    float64(2),
	})
	if read["bytes"] != "CAFE" {
		t.Errorf("expected written bytes back, got %v", read["bytes"])
	}
}

func TestWriteMemory_InvalidHexIsDomainFailure(t *testing.T) {
	h := newAttachedHost(t)
	p := &MemoryProvider{Host: h}

	payload := callTool(t, p, "write_memory", map[string]any{
		"address": "0x1000",
		"bytes":   "zz",
	})
	if payload["ok"] != false {
		t.Errorf("expected ok=false, got %v", payload)
	}
}

// TestReadMemory_OutOfRangeStaysInBand covers the ranges the permissive
// address coercion lets through: addresses near the top of the space must
// not wrap the bounds arithmetic, and a negative size must not reach
// allocation. All of them are domain failures, never handler errors.
func TestReadMemory_OutOfRangeStaysInBand(t *testing.T) {
	h := newAttachedHost(t)
	p := &MemoryProvider{Host: h}

	cases := []map[string]any{
		{"address": "0xFFFFFFFFFFFFFFF0", "size": float64(64)},
		{"address": "0x1000", "size": float64(-1)},
		{"address": "0x1000", "size": float64(1 << 32)},
		{"address": "0x2000", "size": float64(4)},
	}
	for _, args := range cases {
		payload := callTool(t, p, "read_memory", args)
		msg, ok := payload["error"].(string)
		if !ok || !strings.Contains(msg, ErrBadAddress.Error()) {
			t.Errorf("read_memory(%v): expected in-band range error, got %v", args, payload)
		}
	}
}

func TestWriteMemory_OutOfRangeStaysInBand(t *testing.T) {
	h := newAttachedHost(t)
	p := &MemoryProvider{Host: h}

	for _, addr := range []string{"0xFFFFFFFFFFFFFFF0", "0x2000"} {
		payload := callTool(t, p, "write_memory", map[string]any{
			"address": addr,
			"bytes":   "CAFE",
		})
		if payload["ok"] != false {
			t.Errorf("write_memory(%s): expected ok=false, got %v", addr, payload)
		}
		msg, _ := payload["error"].(string)
		if !strings.Contains(msg, ErrBadAddress.Error()) {
			t.Errorf("write_memory(%s): expected range error, got %v", addr, payload)
		}
	}
}

func TestDisassemble_BadCountStaysInBand(t *testing.T) {
	h := newAttachedHost(t)
	p := &DisasmProvider{Host: h}

	payload := callTool(t, p, "disassemble", map[string]any{
		"address": "0x1000",
		"count":   float64(-1),
	})
	msg, ok := payload["error"].(string)
	if !ok || !strings.Contains(msg, ErrBadAddress.Error()) {
		t.Errorf("expected in-band range error, got %v", payload)
	}
}

func TestScanPattern_WildcardMatches(t *testing.T) {
	h := newAttachedHost(t)
	p := &ScanProvider{Host: h}

	payload := callTool(t, p, "scan_pattern", map[string]any{"pattern": "BE ??"})
	matches, ok := payload["matches"].([]string)
	if !ok {
		t.Fatalf("expected match list, got %v", payload)
	}
	// BE EF occurs at 0x1002 and 0x1006.
	if len(matches) != 2 || matches[0] != "0x1002" || matches[1] != "0x1006" {
		t.Errorf("unexpected matches %v", matches)
	}
}

func TestScanPattern_BadPattern(t *testing.T) {
	h := newAttachedHost(t)
	p := &ScanProvider{Host: h}

	payload := callTool(t, p, "scan_pattern", map[string]any{"pattern": "nope"})
	if _, ok := payload["error"]; !ok {
		t.Errorf("expected domain error for bad pattern, got %v", payload)
	}
}

func TestAttachLifecycle(t *testing.T) {
	h := NewMemHost()
	h.AddProcess(42, "target", 0x4000, make([]byte, 16))
	p := &ProcessProvider{Host: h}

	status := callTool(t, p, "attach_status", nil)
	if status["attached"] != false {
		t.Fatalf("expected detached initially, got %v", status)
	}

	if got := callTool(t, p, "attach", map[string]any{"pid": float64(42)}); got["ok"] != true {
		t.Fatalf("attach failed: %v", got)
	}
	status = callTool(t, p, "attach_status", nil)
	if status["attached"] != true || status["pid"] != 42 {
		t.Errorf("unexpected status %v", status)
	}

	if got := callTool(t, p, "attach", map[string]any{"pid": float64(999)}); got["ok"] != false {
		t.Errorf("expected attach to unknown pid to fail in-band, got %v", got)
	}
}

func TestStructureEditing(t *testing.T) {
	h := newAttachedHost(t)
	p := &StructureProvider{Host: h}

	add := callTool(t, p, "add_structure_field", map[string]any{
		"structure": "Player",
		"name":      "health",
		"kind":      "int32",
		"offset":    float64(0x10),
	})
	if add["ok"] != true {
		t.Fatalf("add_structure_field: %v", add)
	}

	list := callTool(t, p, "list_structures", nil)
	structs, ok := list["structures"].([]Structure)
	if !ok || len(structs) != 1 {
		t.Fatalf("expected one structure, got %v", list)
	}
	if structs[0].Name != "Player" || structs[0].Fields[0].Offset != 0x10 {
		t.Errorf("unexpected structure %+v", structs[0])
	}
}

func TestDisassemble_InstructionCount(t *testing.T) {
	h := newAttachedHost(t)
	p := &DisasmProvider{Host: h}

	payload := callTool(t, p, "disassemble", map[string]any{
		"address": "0x1000",
		"count":   float64(2),
	})
	instrs, ok := payload["instructions"].([]Instruction)
	if !ok || len(instrs) != 2 {
		t.Fatalf("expected 2 instructions, got %v", payload)
	}
	if instrs[1].Address != 0x1004 {
		t.Errorf("expected second instruction at 0x1004, got %#x", instrs[1].Address)
	}
}
