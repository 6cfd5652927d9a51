package walletclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Klingon-tech/klingnet-mint/internal/pipeline"
	"github.com/Klingon-tech/klingnet-mint/pkg/tx"
	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

const boxJSON = `{"boxId":"e56847ed19b3dc6b72828fcfb992fdf7310828cf291221269b7ffc72fd66706e","value":"10000000",` +
	`"ergoTree":"0008cd0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798","assets":[],` +
	`"additionalRegisters":{},"creationHeight":600000,` +
	`"transactionId":"9148408c04c2e38a6402a7950d6157730fa7d49e9ab3b9cadec481d7769918e9","index":0}`

const submittedID = "9148408c04c2e38a6402a7950d6157730fa7d49e9ab3b9cadec481d7769918e9"

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     int64             `json:"id"`
}

// bridge is a fake wallet bridge. Handlers return a result or an error.
type bridge struct {
	t        *testing.T
	handlers map[string]func(params []json.RawMessage) (interface{}, *rpcError)
	calls    []rpcRequest
}

func (b *bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		b.t.Errorf("decode request: %v", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	b.calls = append(b.calls, req)

	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	h, ok := b.handlers[req.Method]
	if !ok {
		resp["error"] = rpcError{Code: -32601, Message: "method not found"}
	} else if result, rerr := h(req.Params); rerr != nil {
		resp["error"] = rerr
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func newBridge(t *testing.T) (*bridge, *Wallet) {
	t.Helper()
	b := &bridge{t: t, handlers: map[string]func([]json.RawMessage) (interface{}, *rpcError){
		"get_utxos": func([]json.RawMessage) (interface{}, *rpcError) {
			return []json.RawMessage{json.RawMessage(boxJSON)}, nil
		},
		"get_change_address": func([]json.RawMessage) (interface{}, *rpcError) {
			return "9fRAWhdxEsTcdb8PhGNrZfwqa65zfkuYHAMmkQLcic1gdLSV5vA", nil
		},
		"get_current_height": func([]json.RawMessage) (interface{}, *rpcError) {
			return 612345, nil
		},
		"sign_tx": func(params []json.RawMessage) (interface{}, *rpcError) {
			return json.RawMessage(`{"id":"signed"}`), nil
		},
		"submit_tx": func([]json.RawMessage) (interface{}, *rpcError) {
			return submittedID, nil
		},
	}}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return b, NewWallet(New(srv.URL))
}

func TestWallet_FetchBoxes(t *testing.T) {
	b, w := newBridge(t)

	boxes, err := w.FetchBoxes(context.Background(), types.NewAmount(4_100_000))
	if err != nil {
		t.Fatalf("FetchBoxes: %v", err)
	}
	if len(boxes) != 1 {
		t.Fatalf("got %d boxes, want 1", len(boxes))
	}
	if _, err := types.ParseBox(boxes[0]); err != nil {
		t.Errorf("ParseBox: %v", err)
	}

	call := b.calls[0]
	if len(call.Params) != 1 || string(call.Params[0]) != `"4100000"` {
		t.Errorf("params = %s, want [\"4100000\"]", call.Params)
	}

	if _, err := w.FetchBoxes(context.Background(), types.Amount{}); err != nil {
		t.Fatal(err)
	}
	if len(b.calls[1].Params) != 0 {
		t.Errorf("zero min value should send no params, got %s", b.calls[1].Params)
	}
}

func TestWallet_FetchBoxes_NoneAvailable(t *testing.T) {
	for _, result := range []interface{}{nil, false} {
		b, w := newBridge(t)
		result := result
		b.handlers["get_utxos"] = func([]json.RawMessage) (interface{}, *rpcError) { return result, nil }

		boxes, err := w.FetchBoxes(context.Background(), types.NewAmount(1))
		if err != nil {
			t.Fatalf("FetchBoxes(%v): %v", result, err)
		}
		if len(boxes) != 0 {
			t.Errorf("FetchBoxes(%v) = %d boxes, want 0", result, len(boxes))
		}
	}
}

func TestWallet_AddressAndHeight(t *testing.T) {
	_, w := newBridge(t)
	ctx := context.Background()

	addr, err := w.ChangeAddress(ctx)
	if err != nil {
		t.Fatalf("ChangeAddress: %v", err)
	}
	if !strings.HasPrefix(addr, "9") {
		t.Errorf("address = %q", addr)
	}

	height, err := w.CurrentHeight(ctx)
	if err != nil {
		t.Fatalf("CurrentHeight: %v", err)
	}
	if height != 612345 {
		t.Errorf("height = %d, want 612345", height)
	}
}

func TestWallet_SignAndSubmit(t *testing.T) {
	b, w := newBridge(t)
	ctx := context.Background()
	utx := tx.NewBuilder().Build()

	signed, err := w.Sign(ctx, utx)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if string(signed) != `{"id":"signed"}` {
		t.Errorf("signed = %s", signed)
	}
	var sent map[string]json.RawMessage
	if err := json.Unmarshal(b.calls[0].Params[0], &sent); err != nil {
		t.Fatalf("sign_tx param: %v", err)
	}
	for _, field := range []string{"id", "inputs", "dataInputs", "outputs"} {
		if _, ok := sent[field]; !ok {
			t.Errorf("sign_tx param missing %q", field)
		}
	}

	id, err := w.Submit(ctx, signed)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id.String() != submittedID {
		t.Errorf("id = %s, want %s", id, submittedID)
	}
}

func TestWallet_SignDeclined(t *testing.T) {
	b, w := newBridge(t)
	b.handlers["sign_tx"] = func([]json.RawMessage) (interface{}, *rpcError) {
		return nil, &rpcError{Code: CodeUserDeclined, Message: "declined", Info: "User rejected"}
	}

	_, err := w.Sign(context.Background(), tx.NewBuilder().Build())
	if !errors.Is(err, pipeline.ErrSigningRejected) {
		t.Fatalf("err = %v, want ErrSigningRejected", err)
	}
}

func TestWallet_SignProofError(t *testing.T) {
	b, w := newBridge(t)
	b.handlers["sign_tx"] = func([]json.RawMessage) (interface{}, *rpcError) {
		return nil, &rpcError{Code: CodeProofGeneration, Message: "cannot prove"}
	}

	_, err := w.Sign(context.Background(), tx.NewBuilder().Build())
	if errors.Is(err, pipeline.ErrSigningRejected) {
		t.Fatal("proof error must not read as a decline")
	}
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != CodeProofGeneration {
		t.Fatalf("err = %v, want RPCError code %d", err, CodeProofGeneration)
	}
}

func TestWallet_SubmitBadID(t *testing.T) {
	b, w := newBridge(t)
	b.handlers["submit_tx"] = func([]json.RawMessage) (interface{}, *rpcError) { return "nope", nil }

	if _, err := w.Submit(context.Background(), json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error for malformed transaction id")
	}
}

func TestClient_Call_InvalidEndpoint(t *testing.T) {
	client := New("http://127.0.0.1:1/") // nothing listens on port 1

	var height uint32
	if err := client.Call(context.Background(), "get_current_height", nil, &height); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestClient_Call_MethodNotFound(t *testing.T) {
	_, w := newBridge(t)

	var raw json.RawMessage
	err := w.client.Call(context.Background(), "nonexistent_method", nil, &raw)
	if err == nil {
		t.Fatal("expected error for unknown method")
	}

	rpcErr, ok := err.(*RPCError)
	if !ok {
		t.Fatalf("expected RPCError, got %T: %v", err, err)
	}
	if rpcErr.Code != -32601 {
		t.Errorf("error code = %d, want -32601", rpcErr.Code)
	}
}

func TestClient_Call_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewWithTimeout(srv.URL, 50*time.Millisecond)
	err := client.Call(context.Background(), "get_current_height", nil, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestClient_Call_HTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bridge down", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New(srv.URL).Call(context.Background(), "get_current_height", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("err = %v, want http status 502", err)
	}
}
