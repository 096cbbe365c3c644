package host

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"membridge/internal/tool"
)

// The providers below expose the host's capabilities as tool manifests.
// Every handler follows the same error discipline: a host failure becomes
// an application-level payload ({"error": ...}, or {"ok": false, ...} for
// mutating operations), never a Go error — a returned Go error would be
// promoted to a protocol-level internal error, which domain failures must
// not be.

func errPayload(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}

func okPayload() map[string]any {
	return map[string]any{"ok": true}
}

func failPayload(err error) map[string]any {
	return map[string]any{"ok": false, "error": err.Error()}
}

func hexAddr(addr uint64) string {
	return fmt.Sprintf("%#x", addr)
}

// ProcessProvider exposes process discovery and attach lifecycle tools.
type ProcessProvider struct {
	Host Host
}

func (p *ProcessProvider) Tools() []tool.Tool {
	return []tool.Tool{
		{
			Name:        "list_processes",
			Description: "List processes the host can attach to",
			Handler: func(ctx context.Context, _ map[string]any) (any, error) {
				procs, err := p.Host.ListProcesses(ctx)
				if err != nil {
					return errPayload(err), nil
				}
				return map[string]any{"processes": procs}, nil
			},
		},
		{
			Name:        "attach",
			Description: "Attach the host to a process by pid",
			Params: []tool.Param{
				{Name: "pid", Description: "Target process id", Kind: tool.Int},
			},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				if err := p.Host.Attach(ctx, int(args["pid"].(int64))); err != nil {
					return failPayload(err), nil
				}
				return okPayload(), nil
			},
		},
		{
			Name:        "detach",
			Description: "Detach the host from the current target",
			Handler: func(ctx context.Context, _ map[string]any) (any, error) {
				if err := p.Host.Detach(ctx); err != nil {
					return failPayload(err), nil
				}
				return okPayload(), nil
			},
		},
		{
			Name:        "attach_status",
			Description: "Report whether a target is attached and its pid",
			Handler: func(ctx context.Context, _ map[string]any) (any, error) {
				pid, attached := p.Host.AttachedPID(ctx)
				out := map[string]any{"attached": attached}
				if attached {
					out["pid"] = pid
				}
				return out, nil
			},
		},
	}
}

// MemoryProvider exposes raw memory access and section listing.
type MemoryProvider struct {
	Host Host
}

func (p *MemoryProvider) Tools() []tool.Tool {
	return []tool.Tool{
		{
			Name:        "read_memory",
			Description: "Read bytes from target memory",
			Params: []tool.Param{
				{Name: "address", Description: "Start address", Kind: tool.Address},
				{Name: "size", Description: "Number of bytes", Kind: tool.Int, Default: int64(64), HasDefault: true},
			},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				addr := args["address"].(uint64)
				data, err := p.Host.ReadMemory(ctx, addr, int(args["size"].(int64)))
				if err != nil {
					return errPayload(err), nil
				}
				return map[string]any{
					"address": hexAddr(addr),
					"bytes":   strings.ToUpper(hex.EncodeToString(data)),
				}, nil
			},
		},
		{
			Name:        "write_memory",
			Description: "Write hex-encoded bytes to target memory",
			Params: []tool.Param{
				{Name: "address", Description: "Start address", Kind: tool.Address},
				{Name: "bytes", Description: "Hex-encoded payload", Kind: tool.String},
			},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				raw := strings.ReplaceAll(args["bytes"].(string), " ", "")
				data, err := hex.DecodeString(raw)
				if err != nil {
					return failPayload(fmt.Errorf("invalid hex payload: %w", err)), nil
				}
				if err := p.Host.WriteMemory(ctx, args["address"].(uint64), data); err != nil {
					return failPayload(err), nil
				}
				return okPayload(), nil
			},
		},
		{
			Name:        "list_sections",
			Description: "List mapped memory sections of the target",
			Handler: func(ctx context.Context, _ map[string]any) (any, error) {
				sections, err := p.Host.Sections(ctx)
				if err != nil {
					return errPayload(err), nil
				}
				return map[string]any{"sections": sections}, nil
			},
		},
	}
}

// ScanProvider exposes pattern scanning. Any scan-session state lives in
// the host, not here.
type ScanProvider struct {
	Host Host
}

func (p *ScanProvider) Tools() []tool.Tool {
	return []tool.Tool{
		{
			Name:        "scan_pattern",
			Description: "Scan target memory for a hex byte pattern (?? wildcards allowed)",
			Params: []tool.Param{
				{Name: "pattern", Description: "Space-separated hex pairs", Kind: tool.String},
				{Name: "writable", Description: "Restrict to writable sections", Kind: tool.Bool, Default: true, HasDefault: true},
			},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				matches, err := p.Host.ScanPattern(ctx, args["pattern"].(string), args["writable"].(bool))
				if err != nil {
					return errPayload(err), nil
				}
				out := make([]string, len(matches))
				for i, m := range matches {
					out[i] = hexAddr(m)
				}
				return map[string]any{"matches": out, "count": len(out)}, nil
			},
		},
	}
}

// DisasmProvider exposes the host's disassembly backend.
type DisasmProvider struct {
	Host Host
}

func (p *DisasmProvider) Tools() []tool.Tool {
	return []tool.Tool{
		{
			Name:        "disassemble",
			Description: "Disassemble instructions starting at an address",
			Params: []tool.Param{
				{Name: "address", Description: "Start address", Kind: tool.Address},
				{Name: "count", Description: "Instruction count", Kind: tool.Int, Default: int64(16), HasDefault: true},
			},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				instrs, err := p.Host.Disassemble(ctx, args["address"].(uint64), int(args["count"].(int64)))
				if err != nil {
					return errPayload(err), nil
				}
				return map[string]any{"instructions": instrs}, nil
			},
		},
	}
}

// StructureProvider exposes the host's structure editor.
type StructureProvider struct {
	Host Host
}

func (p *StructureProvider) Tools() []tool.Tool {
	return []tool.Tool{
		{
			Name:        "list_structures",
			Description: "List user-defined structures",
			Handler: func(ctx context.Context, _ map[string]any) (any, error) {
				structs, err := p.Host.Structures(ctx)
				if err != nil {
					return errPayload(err), nil
				}
				return map[string]any{"structures": structs}, nil
			},
		},
		{
			Name:        "add_structure_field",
			Description: "Add a field to a structure, creating the structure if needed",
			Params: []tool.Param{
				{Name: "structure", Description: "Structure name", Kind: tool.String},
				{Name: "name", Description: "Field name", Kind: tool.String},
				{Name: "kind", Description: "Field kind (int32, float, pointer, ...)", Kind: tool.String},
				{Name: "offset", Description: "Byte offset within the structure", Kind: tool.Int, Default: int64(0), HasDefault: true},
			},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				err := p.Host.AddStructureField(ctx,
					args["structure"].(string),
					args["name"].(string),
					args["kind"].(string),
					args["offset"].(int64),
				)
				if err != nil {
					return failPayload(err), nil
				}
				return okPayload(), nil
			},
		},
	}
}

// Providers returns the full provider set for a host, in the order they
// should be registered.
func Providers(h Host) []tool.Provider {
	return []tool.Provider{
		&ProcessProvider{Host: h},
		&MemoryProvider{Host: h},
		&ScanProvider{Host: h},
		&DisasmProvider{Host: h},
		&StructureProvider{Host: h},
	}
}
