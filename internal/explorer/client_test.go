package explorer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Klingon-tech/klingnet-mint/internal/token"
	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

const (
	tokenHex = "03faf2cb329f2e90d6d23b58d91bbb6c046aa143261cc21f52fbe2824bfcbf04"
	boxHex   = "e56847ed19b3dc6b72828fcfb992fdf7310828cf291221269b7ffc72fd66706e"
)

// R4 "KlingCoin", R5 "test", R6 "2"
var (
	regName  = types.EncodeStringRegister("KlingCoin")
	regDesc  = types.EncodeStringRegister("test")
	regDecim = types.EncodeStringRegister("2")
)

func newExplorer(t *testing.T, objectRegisters bool) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/tokens/"+tokenHex, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"` + tokenHex + `","boxId":"` + boxHex + `","emissionAmount":100000,` +
			`"name":"KlingCoin","description":"test","type":"EIP-004","decimals":2}`))
	})
	mux.HandleFunc("/api/v1/boxes/"+boxHex, func(w http.ResponseWriter, r *http.Request) {
		regs := `{"R4":"` + regName + `","R5":"` + regDesc + `","R6":"` + regDecim + `"}`
		if objectRegisters {
			regs = `{"R4":{"serializedValue":"` + regName + `","sigmaType":"Coll[SByte]","renderedValue":"4b6c696e67436f696e"},` +
				`"R5":{"serializedValue":"` + regDesc + `","sigmaType":"Coll[SByte]"},` +
				`"R6":{"serializedValue":"` + regDecim + `","sigmaType":"Coll[SByte]"}}`
		}
		w.Write([]byte(`{"boxId":"` + boxHex + `","transactionId":"9148408c04c2e38a6402a7950d6157730fa7d49e9ab3b9cadec481d7769918e9",` +
			`"value":2000000,"index":0,"creationHeight":600000,"settlementHeight":600002,` +
			`"ergoTree":"0008cd0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798",` +
			`"address":"9fRAWhdxEsTcdb8PhGNrZfwqa65zfkuYHAMmkQLcic1gdLSV5vA",` +
			`"assets":[{"tokenId":"` + tokenHex + `","index":0,"amount":100000,"name":"KlingCoin","decimals":2,"type":"EIP-004"}],` +
			`"additionalRegisters":` + regs + `,"spentTransactionId":null,"mainChain":true}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", time.Second)
}

func TestClient_TokenBox(t *testing.T) {
	for _, objectRegisters := range []bool{false, true} {
		c := newExplorer(t, objectRegisters)
		id, _ := types.ParseTokenID(tokenHex)

		box, err := c.TokenBox(context.Background(), id)
		if err != nil {
			t.Fatalf("TokenBox (object registers %v): %v", objectRegisters, err)
		}
		if box.BoxID.String() != boxHex {
			t.Errorf("box id = %s, want %s", box.BoxID, boxHex)
		}
		if got := box.TokenAmount(id); got.String() != "100000" {
			t.Errorf("token amount = %s, want 100000", got)
		}

		meta, err := token.DecodeMetadata(box.Registers)
		if err != nil {
			t.Fatalf("DecodeMetadata: %v", err)
		}
		if meta.Name != "KlingCoin" || meta.Description != "test" || meta.Decimals != 2 {
			t.Errorf("metadata = %+v", meta)
		}
	}
}

func TestClient_Token(t *testing.T) {
	c := newExplorer(t, false)
	id, _ := types.ParseTokenID(tokenHex)

	info, err := c.Token(context.Background(), id)
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if info.EmissionAmount.String() != "100000" || info.Decimals != 2 || info.Name != "KlingCoin" {
		t.Errorf("info = %+v", info)
	}
}

func TestClient_NotFound(t *testing.T) {
	c := newExplorer(t, false)

	_, err := c.TokenBox(context.Background(), types.TokenID{0x01})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Token(context.Background(), types.TokenID{0x01})
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want http status error", err)
	}
}

func TestRegisterValue_MissingSerialized(t *testing.T) {
	var r registerValue
	if err := r.UnmarshalJSON([]byte(`{"sigmaType":"SInt"}`)); err == nil {
		t.Fatal("expected error for register without serializedValue")
	}
}
