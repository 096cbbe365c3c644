package rpc

import (
	"encoding/json"
	"testing"
)

func TestParse_ValidRequest(t *testing.T) {
	req, rpcErr := Parse([]byte(`{"jsonrpc":"2.0","id":7,"method":"tools/list"}`))
	if rpcErr != nil {
		t.Fatalf("Parse: unexpected error: %v", rpcErr)
	}
	if req.Method != "tools/list" {
		t.Errorf("expected method tools/list, got %q", req.Method)
	}
	if string(req.ID) != "7" {
		t.Errorf("expected id preserved as 7, got %q", string(req.ID))
	}
	if req.IsNotification() {
		t.Error("request with id must not be a notification")
	}
}

func TestParse_MalformedPayload(t *testing.T) {
	_, rpcErr := Parse([]byte(`{not json`))
	if rpcErr == nil {
		t.Fatal("expected parse error")
	}
	if rpcErr.Code != CodeParseError {
		t.Errorf("expected code %d, got %d", CodeParseError, rpcErr.Code)
	}
}

func TestParse_MissingMethod(t *testing.T) {
	_, rpcErr := Parse([]byte(`{"jsonrpc":"2.0","id":1}`))
	if rpcErr == nil {
		t.Fatal("expected invalid request error")
	}
	if rpcErr.Code != CodeInvalidRequest {
		t.Errorf("expected code %d, got %d", CodeInvalidRequest, rpcErr.Code)
	}
}

func TestParse_NotificationHasNoID(t *testing.T) {
	for _, payload := range []string{
		`{"jsonrpc":"2.0","method":"initialized"}`,
		`{"jsonrpc":"2.0","id":null,"method":"initialized"}`,
	} {
		req, rpcErr := Parse([]byte(payload))
		if rpcErr != nil {
			t.Fatalf("Parse(%s): %v", payload, rpcErr)
		}
		if !req.IsNotification() {
			t.Errorf("Parse(%s): expected notification", payload)
		}
	}
}

// TestResult_RoundTrip verifies decode(encode(id, r)) recovers both id and
// result, for string and numeric ids.
func TestResult_RoundTrip(t *testing.T) {
	cases := []struct {
		name string
		id   string
	}{
		{"numeric id", `42`},
		{"string id", `"req-9"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := NewResult(json.RawMessage(tc.id), map[string]any{"value": "hello"})
			data, err := resp.Encode()
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}

			var decoded struct {
				JSONRPC string          `json:"jsonrpc"`
				ID      json.RawMessage `json:"id"`
				Result  map[string]any  `json:"result"`
				Error   *Error          `json:"error"`
			}
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if decoded.JSONRPC != Version {
				t.Errorf("expected version tag %q, got %q", Version, decoded.JSONRPC)
			}
			if string(decoded.ID) != tc.id {
				t.Errorf("expected id %s, got %s", tc.id, decoded.ID)
			}
			if decoded.Result["value"] != "hello" {
				t.Errorf("expected result value hello, got %v", decoded.Result)
			}
			if decoded.Error != nil {
				t.Errorf("success envelope must not carry an error, got %v", decoded.Error)
			}
		})
	}
}

func TestError_RoundTrip(t *testing.T) {
	resp := NewError(json.RawMessage(`"abc"`), CodeMethodNotFound, "Unknown tool: nope")
	data, err := resp.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var decoded Response
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Result != nil {
		t.Errorf("error envelope must not carry a result, got %v", decoded.Result)
	}
	if decoded.Error == nil {
		t.Fatal("expected error member")
	}
	if decoded.Error.Code != CodeMethodNotFound {
		t.Errorf("expected code %d, got %d", CodeMethodNotFound, decoded.Error.Code)
	}
	if decoded.Error.Message != "Unknown tool: nope" {
		t.Errorf("unexpected message %q", decoded.Error.Message)
	}
	if string(decoded.ID) != `"abc"` {
		t.Errorf("expected id preserved, got %s", decoded.ID)
	}
}

// TestNewError_AbsentID covers the parse-error path: when the request id
// could not be read the response id must be literal null.
func TestNewError_AbsentID(t *testing.T) {
	data, err := NewError(nil, CodeParseError, "parse error").Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if string(decoded["id"]) != "null" {
		t.Errorf("expected id null, got %s", decoded["id"])
	}
}
