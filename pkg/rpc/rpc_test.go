package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

type echoRequest struct {
	Message string `json:"message"`
}

type echoResponse struct {
	Message string `json:"message"`
}

// startServer runs a server on an ephemeral port and returns its address.
func startServer(t *testing.T, s *Server) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserving port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	go s.Serve(addr)
	t.Cleanup(s.Stop)

	// Wait for the listener to come up.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			conn.Close()
			return addr
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server did not start on %s", addr)
	return ""
}

func TestCallRoundtrip(t *testing.T) {
	s := NewServer()
	s.Register("Echo.Say", func(ctx context.Context, req json.RawMessage) (any, error) {
		var in echoRequest
		if err := json.Unmarshal(req, &in); err != nil {
			return nil, err
		}
		return &echoResponse{Message: in.Message}, nil
	})
	addr := startServer(t, s)

	client, err := Dial(addr)
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	defer client.Close()

	var resp echoResponse
	if err := client.Call("Echo.Say", echoRequest{Message: "hello"}, &resp); err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if resp.Message != "hello" {
		t.Errorf("expected echo of %q, got %q", "hello", resp.Message)
	}
}

func TestCallUnknownMethod(t *testing.T) {
	s := NewServer()
	addr := startServer(t, s)

	client, err := Dial(addr)
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	defer client.Close()

	err = client.Call("No.Such", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "unknown method") {
		t.Errorf("expected unknown-method error, got %v", err)
	}
}

func TestCallHandlerError(t *testing.T) {
	s := NewServer()
	s.Register("Fail.Always", func(ctx context.Context, req json.RawMessage) (any, error) {
		return nil, errors.New("boom")
	})
	addr := startServer(t, s)

	client, err := Dial(addr)
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	defer client.Close()

	err = client.Call("Fail.Always", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected handler error, got %v", err)
	}
}

func TestMultipleCallsOnOneConnection(t *testing.T) {
	s := NewServer()
	s.Register("Echo.Say", func(ctx context.Context, req json.RawMessage) (any, error) {
		var in echoRequest
		json.Unmarshal(req, &in)
		return &echoResponse{Message: in.Message}, nil
	})
	addr := startServer(t, s)

	client, err := Dial(addr)
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	defer client.Close()

	for i := 0; i < 20; i++ {
		msg := fmt.Sprintf("message-%d", i)
		var resp echoResponse
		if err := client.Call("Echo.Say", echoRequest{Message: msg}, &resp); err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
		if resp.Message != msg {
			t.Errorf("call %d: expected %q, got %q", i, msg, resp.Message)
		}
	}
}

func TestConcurrentClients(t *testing.T) {
	s := NewServer()
	s.Register("Echo.Say", func(ctx context.Context, req json.RawMessage) (any, error) {
		var in echoRequest
		json.Unmarshal(req, &in)
		return &echoResponse{Message: in.Message}, nil
	})
	addr := startServer(t, s)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			client, err := Dial(addr)
			if err != nil {
				t.Errorf("client %d: dial failed: %v", i, err)
				return
			}
			defer client.Close()

			for j := 0; j < 10; j++ {
				msg := fmt.Sprintf("c%d-m%d", i, j)
				var resp echoResponse
				if err := client.Call("Echo.Say", echoRequest{Message: msg}, &resp); err != nil {
					t.Errorf("client %d call %d: %v", i, j, err)
					return
				}
				if resp.Message != msg {
					t.Errorf("client %d call %d: expected %q, got %q", i, j, msg, resp.Message)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestMethodCount(t *testing.T) {
	s := NewServer()
	if s.MethodCount() != 0 {
		t.Errorf("expected 0 methods, got %d", s.MethodCount())
	}
	s.Register("A.One", func(ctx context.Context, req json.RawMessage) (any, error) { return nil, nil })
	s.Register("A.Two", func(ctx context.Context, req json.RawMessage) (any, error) { return nil, nil })
	if s.MethodCount() != 2 {
		t.Errorf("expected 2 methods, got %d", s.MethodCount())
	}
}
