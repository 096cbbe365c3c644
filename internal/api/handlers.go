package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"membridge/internal/audit"
	"membridge/internal/dispatch"
	"membridge/internal/infra/config"
	"membridge/internal/infra/eventbus"
	"membridge/internal/rpc"
	"membridge/internal/tool"
	"membridge/internal/version"
)

// protocolVersion is the handshake tag advertised to clients.
const protocolVersion = "2024-11-05"

// Handler serves the JSON-RPC methods of the message endpoint.
type Handler struct {
	cfg      config.Config
	registry *tool.Registry
	executor *dispatch.Executor
	bus      eventbus.EventBus
}

type initializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    capabilities `json:"capabilities"`
	ServerInfo      serverInfo   `json:"serverInfo"`
}

type capabilities struct {
	Tools map[string]any `json:"tools"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type callResult struct {
	Content []contentBlock `json:"content"`
	IsError bool           `json:"isError"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// handleMessage processes one call envelope per request. The HTTP status
// is 200 for protocol success and protocol error alike; error information
// lives in the envelope. Notifications get 202 and no body.
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeResponse(w, rpc.NewError(nil, rpc.CodeInternalError, "failed to read request body"))
		return
	}

	req, parseErr := rpc.Parse(body)
	if parseErr != nil {
		h.publish(audit.Event{Method: "", Outcome: audit.OutcomeProtocolError, Code: parseErr.Code, Detail: parseErr.Message})
		h.writeResponse(w, rpc.NewError(nil, parseErr.Code, parseErr.Message))
		return
	}

	if req.IsNotification() {
		// No response envelope for notifications; side effects only.
		h.dispatchMethod(r, req)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	h.writeResponse(w, h.dispatchMethod(r, req))
}

// dispatchMethod routes a decoded request to its method handler and
// returns the response envelope (nil for notifications of no interest).
func (h *Handler) dispatchMethod(r *http.Request, req *rpc.Request) *rpc.Response {
	switch req.Method {
	case "initialize":
		return rpc.NewResult(req.ID, initializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities:    capabilities{Tools: map[string]any{}},
			ServerInfo:      serverInfo{Name: h.cfg.ServerName, Version: version.Version},
		})
	case "initialized", "notifications/initialized":
		return rpc.NewResult(req.ID, map[string]any{})
	case "ping":
		return rpc.NewResult(req.ID, map[string]any{})
	case "tools/list":
		return rpc.NewResult(req.ID, map[string]any{"tools": h.registry.Catalog()})
	case "tools/call":
		return h.handleToolsCall(r, req)
	default:
		h.publish(audit.Event{Method: req.Method, Outcome: audit.OutcomeProtocolError, Code: rpc.CodeMethodNotFound})
		return rpc.NewError(req.ID, rpc.CodeMethodNotFound, "Method not found: "+req.Method)
	}
}

func (h *Handler) handleToolsCall(r *http.Request, req *rpc.Request) *rpc.Response {
	start := time.Now()

	var params callParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return h.protocolError(req, params.Name, start, rpc.CodeInvalidParams, "invalid tools/call params: "+err.Error())
		}
	}
	if params.Name == "" {
		return h.protocolError(req, params.Name, start, rpc.CodeInvalidParams, "missing required parameter: name")
	}

	t, ok := h.registry.Get(params.Name)
	if !ok {
		return h.protocolError(req, params.Name, start, rpc.CodeMethodNotFound, "Unknown tool: "+params.Name)
	}

	args, err := tool.BuildArgs(t.Params, params.Arguments)
	if err != nil {
		return h.protocolError(req, params.Name, start, rpc.CodeInvalidParams, err.Error())
	}

	result, err := h.executor.Invoke(r.Context(), t, args)
	if err != nil {
		return h.protocolError(req, params.Name, start, rpc.CodeInternalError, err.Error())
	}

	text, err := json.Marshal(result)
	if err != nil {
		return h.protocolError(req, params.Name, start, rpc.CodeInternalError, "failed to serialize tool result: "+err.Error())
	}

	h.publish(audit.Event{
		Method:   req.Method,
		Tool:     t.Name,
		Outcome:  outcomeOf(result),
		Detail:   domainErrorOf(result),
		Duration: time.Since(start),
	})

	return rpc.NewResult(req.ID, callResult{
		Content: []contentBlock{{Type: "text", Text: string(text)}},
		IsError: false,
	})
}

func (h *Handler) protocolError(req *rpc.Request, toolName string, start time.Time, code int, message string) *rpc.Response {
	h.publish(audit.Event{
		Method:   req.Method,
		Tool:     toolName,
		Outcome:  audit.OutcomeProtocolError,
		Code:     code,
		Detail:   message,
		Duration: time.Since(start),
	})
	return rpc.NewError(req.ID, code, message)
}

func (h *Handler) publish(evt audit.Event) {
	if h.bus != nil {
		h.bus.Publish(audit.TopicRPC, evt)
	}
}

func (h *Handler) writeResponse(w http.ResponseWriter, resp *rpc.Response) {
	data, err := resp.Encode()
	if err != nil {
		// Fall back to a minimal internal error; losing the id here is
		// acceptable because the result itself was unencodable.
		data, _ = rpc.NewError(nil, rpc.CodeInternalError, "failed to encode response").Encode()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("api: write response: %v", err)
	}
}

// outcomeOf classifies a successful RPC by its payload: a conventional
// {"error": ...} or {"ok": false, ...} shape marks a domain failure.
func outcomeOf(result any) audit.Outcome {
	if domainErrorOf(result) != "" {
		return audit.OutcomeDomainError
	}
	return audit.OutcomeOK
}

func domainErrorOf(result any) string {
	payload, ok := result.(map[string]any)
	if !ok {
		return ""
	}
	if okFlag, exists := payload["ok"]; exists && okFlag == true {
		return ""
	}
	if msg, ok := payload["error"].(string); ok {
		return msg
	}
	return ""
}
