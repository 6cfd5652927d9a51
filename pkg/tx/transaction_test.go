package tx

import (
	"encoding/json"
	"testing"

	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

func TestComputeID_Deterministic(t *testing.T) {
	a, _ := balancedTx(t)
	b, _ := balancedTx(t)

	if a.ID != b.ID {
		t.Error("same content should produce the same id")
	}
	if a.ID.IsZero() {
		t.Error("id should not be zero")
	}
}

func TestComputeID_ChangesWithContent(t *testing.T) {
	utx, _ := balancedTx(t)
	before := utx.ID

	utx.Outputs[1].Value = types.NewAmount(2_000_001)
	if utx.ComputeID() == before {
		t.Error("changing an output should change the id")
	}
}

func TestComputeID_DependsOnInputOrder(t *testing.T) {
	utx, inputs := balancedTx(t)

	swapped := NewBuilder().
		AddInput(inputs[1]).
		AddInput(inputs[0]).
		AddOutput(utx.Outputs[0]).
		AddOutput(utx.Outputs[1]).
		Build()
	if swapped.ID == utx.ID {
		t.Error("input order must be part of the id")
	}
}

func TestComputeID_IgnoresInputContent(t *testing.T) {
	utx, _ := balancedTx(t)
	before := utx.ComputeID()

	utx.Inputs[0].Value = types.NewAmount(1)
	utx.Inputs[0].Extension["0"] = "ff"
	if utx.ComputeID() != before {
		t.Error("id should only cover input box ids")
	}
}

func TestFinalize_AssignsOutputs(t *testing.T) {
	utx, _ := balancedTx(t)

	seen := make(map[types.BoxID]bool)
	for i, out := range utx.Outputs {
		if out.TransactionID != utx.ID {
			t.Errorf("output %d transactionId = %s, want %s", i, out.TransactionID, utx.ID)
		}
		if int(out.Index) != i {
			t.Errorf("output %d index = %d", i, out.Index)
		}
		if out.BoxID.IsZero() || seen[out.BoxID] {
			t.Errorf("output %d has zero or duplicate box id", i)
		}
		seen[out.BoxID] = true
	}
}

func TestMarshalJSON_FullForm(t *testing.T) {
	utx, _ := balancedTx(t)

	data, err := json.Marshal(utx)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw struct {
		ID         string                   `json:"id"`
		Inputs     []map[string]interface{} `json:"inputs"`
		DataInputs []interface{}            `json:"dataInputs"`
		Outputs    []map[string]interface{} `json:"outputs"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if raw.ID != utx.ID.String() {
		t.Errorf("id = %s, want %s", raw.ID, utx.ID)
	}
	if raw.DataInputs == nil || len(raw.DataInputs) != 0 {
		t.Errorf("dataInputs should be an empty array: %s", data)
	}
	for _, key := range []string{"boxId", "value", "ergoTree", "assets", "additionalRegisters", "creationHeight", "transactionId", "index", "extension"} {
		if _, ok := raw.Inputs[0][key]; !ok {
			t.Errorf("full input missing %q", key)
		}
	}
	if raw.Outputs[0]["transactionId"] != utx.ID.String() {
		t.Errorf("output transactionId = %v", raw.Outputs[0]["transactionId"])
	}
}

func TestCanonicalJSON_MinimalInputs(t *testing.T) {
	utx, _ := balancedTx(t)

	data, err := utx.CanonicalJSON()
	if err != nil {
		t.Fatalf("CanonicalJSON: %v", err)
	}

	var raw struct {
		Inputs []map[string]json.RawMessage `json:"inputs"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for i, in := range raw.Inputs {
		if len(in) != 2 {
			t.Errorf("canonical input %d has keys %v, want boxId and extension", i, in)
		}
		if string(in["extension"]) != "{}" {
			t.Errorf("canonical input %d extension = %s", i, in["extension"])
		}
	}
}

func TestInput_UnmarshalBothForms(t *testing.T) {
	full := Input{Box: testBox(0x07, 42, asset(0x01, 3)), Extension: map[string]string{}}
	data, err := json.Marshal(full)
	if err != nil {
		t.Fatal(err)
	}

	var back Input
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal full: %v", err)
	}
	if back.BoxID != full.BoxID || back.Value != full.Value || len(back.Assets) != 1 {
		t.Errorf("full roundtrip mismatch: %+v", back)
	}

	var ref Input
	if err := json.Unmarshal([]byte(`{"boxId":"`+full.BoxID.String()+`","extension":{}}`), &ref); err != nil {
		t.Fatalf("Unmarshal canonical: %v", err)
	}
	if ref.BoxID != full.BoxID || !ref.Value.IsZero() || ref.Extension == nil {
		t.Errorf("canonical decode = %+v", ref)
	}
}

func TestClone_IsDeep(t *testing.T) {
	utx, _ := balancedTx(t)
	cp := utx.Clone()

	cp.Inputs[0].Assets[0].Amount = types.NewAmount(1)
	cp.Inputs[0].Extension["x"] = "y"
	cp.Outputs[0].Value = types.NewAmount(1)

	if utx.Inputs[0].Assets[0].Amount.String() != "10" {
		t.Error("clone shares input assets")
	}
	if _, ok := utx.Inputs[0].Extension["x"]; ok {
		t.Error("clone shares input extension")
	}
	if utx.Outputs[0].Value.String() != "6000000" {
		t.Error("clone shares outputs")
	}
}
