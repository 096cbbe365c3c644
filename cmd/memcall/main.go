// memcall - command-line client for a running membridge server.
// Lists the tool catalog or invokes a single tool and prints the result.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("memcall", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	url := fs.String("url", "http://127.0.0.1:8321/mcp", "Message endpoint of the membridge server")
	list := fs.Bool("list", false, "List the tool catalog and exit")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(errOut, "usage: memcall [--url URL] --list | <tool> [json-arguments]")
		return 2
	}

	if *list {
		return call(*url, "tools/list", nil, out, errOut)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(errOut, "usage: memcall [--url URL] --list | <tool> [json-arguments]")
		return 2
	}

	arguments := map[string]any{}
	if fs.NArg() > 1 {
		if err := json.Unmarshal([]byte(fs.Arg(1)), &arguments); err != nil {
			fmt.Fprintf(errOut, "invalid json arguments: %v\n", err)
			return 2
		}
	}

	params := map[string]any{"name": fs.Arg(0), "arguments": arguments}
	return call(*url, "tools/call", params, out, errOut)
}

func call(url, method string, params any, out, errOut io.Writer) int {
	envelope := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		envelope["params"] = params
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		fmt.Fprintf(errOut, "encode request: %v\n", err)
		return 1
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(errOut, "request failed: %v\n", err)
		return 1
	}
	defer resp.Body.Close()

	var decoded struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		fmt.Fprintf(errOut, "decode response: %v\n", err)
		return 1
	}

	if decoded.Error != nil {
		fmt.Fprintf(errOut, "rpc error %d: %s\n", decoded.Error.Code, decoded.Error.Message)
		return 1
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, decoded.Result, "", "  "); err != nil {
		fmt.Fprintln(out, string(decoded.Result)) //nolint:errcheck
		return 0
	}
	fmt.Fprintln(out, pretty.String()) //nolint:errcheck
	return 0
}
