// Package tx defines the unsigned transaction model, its wire encodings and
// conservation checks.
package tx

import (
	"encoding/binary"
	"encoding/json"

	"github.com/Klingon-tech/klingnet-mint/pkg/crypto"
	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

// UnsignedTransaction is a transaction ready to be handed to a signer.
type UnsignedTransaction struct {
	ID         types.TxID  `json:"id"`
	Inputs     []Input     `json:"inputs"`
	DataInputs []DataInput `json:"dataInputs"`
	Outputs    []types.Box `json:"outputs"`
}

// Input is a box being spent. After rehydration it carries the full box
// content; in canonical form only BoxID is set.
type Input struct {
	types.Box
	Extension map[string]string
}

// DataInput references a box read but not spent.
type DataInput struct {
	BoxID types.BoxID `json:"boxId"`
}

// inputJSON is the full wire form of an input: the box fields plus an
// extension. Declared explicitly so Box.MarshalJSON is not promoted.
type inputJSON struct {
	BoxID          types.BoxID       `json:"boxId"`
	Value          types.Amount      `json:"value"`
	ErgoTree       types.Script      `json:"ergoTree"`
	Assets         []types.Asset     `json:"assets"`
	Registers      types.Registers   `json:"additionalRegisters"`
	CreationHeight uint32            `json:"creationHeight"`
	TransactionID  types.TxID        `json:"transactionId"`
	Index          uint16            `json:"index"`
	Extension      map[string]string `json:"extension"`
}

// canonicalInputJSON is the minimal input reference used in canonical form.
type canonicalInputJSON struct {
	BoxID     types.BoxID       `json:"boxId"`
	Extension map[string]string `json:"extension"`
}

// MarshalJSON encodes the input as a full box plus extension.
func (in Input) MarshalJSON() ([]byte, error) {
	j := inputJSON{
		BoxID:          in.BoxID,
		Value:          in.Value,
		ErgoTree:       in.ErgoTree,
		Assets:         in.Assets,
		Registers:      in.Registers,
		CreationHeight: in.CreationHeight,
		TransactionID:  in.TransactionID,
		Index:          in.Index,
		Extension:      in.Extension,
	}
	if j.Assets == nil {
		j.Assets = []types.Asset{}
	}
	if j.Registers == nil {
		j.Registers = types.Registers{}
	}
	if j.Extension == nil {
		j.Extension = map[string]string{}
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes either the full or the canonical input form.
func (in *Input) UnmarshalJSON(data []byte) error {
	var box types.Box
	if err := json.Unmarshal(data, &box); err != nil {
		return err
	}
	var ext struct {
		Extension map[string]string `json:"extension"`
	}
	if err := json.Unmarshal(data, &ext); err != nil {
		return err
	}
	in.Box = box
	in.Extension = ext.Extension
	if in.Extension == nil {
		in.Extension = map[string]string{}
	}
	return nil
}

// MarshalJSON encodes the full form handed to the signer.
func (tx UnsignedTransaction) MarshalJSON() ([]byte, error) {
	type fullJSON struct {
		ID         types.TxID  `json:"id"`
		Inputs     []Input     `json:"inputs"`
		DataInputs []DataInput `json:"dataInputs"`
		Outputs    []types.Box `json:"outputs"`
	}
	j := fullJSON{ID: tx.ID, Inputs: tx.Inputs, DataInputs: tx.DataInputs, Outputs: tx.Outputs}
	if j.Inputs == nil {
		j.Inputs = []Input{}
	}
	if j.DataInputs == nil {
		j.DataInputs = []DataInput{}
	}
	if j.Outputs == nil {
		j.Outputs = []types.Box{}
	}
	return json.Marshal(j)
}

// CanonicalJSON encodes the canonical form: inputs carry only their box id
// and extension.
func (tx *UnsignedTransaction) CanonicalJSON() ([]byte, error) {
	type canonicalJSON struct {
		ID         types.TxID           `json:"id"`
		Inputs     []canonicalInputJSON `json:"inputs"`
		DataInputs []DataInput          `json:"dataInputs"`
		Outputs    []types.Box          `json:"outputs"`
	}
	j := canonicalJSON{
		ID:         tx.ID,
		Inputs:     make([]canonicalInputJSON, len(tx.Inputs)),
		DataInputs: tx.DataInputs,
		Outputs:    tx.Outputs,
	}
	for i, in := range tx.Inputs {
		ext := in.Extension
		if ext == nil {
			ext = map[string]string{}
		}
		j.Inputs[i] = canonicalInputJSON{BoxID: in.BoxID, Extension: ext}
	}
	if j.DataInputs == nil {
		j.DataInputs = []DataInput{}
	}
	if j.Outputs == nil {
		j.Outputs = []types.Box{}
	}
	return json.Marshal(j)
}

// ComputeID derives the transaction ID from its signing bytes.
func (tx *UnsignedTransaction) ComputeID() types.TxID {
	return crypto.TxID(tx.SigningBytes())
}

// SigningBytes returns the canonical byte representation the ID is derived
// from. Only input box ids are included, so a canonical and a rehydrated
// transaction share one ID.
// Format: input_count(4) | [box_id(32)]... | data_input_count(4) | [box_id(32)]... | output_count(4) | [output]...
func (tx *UnsignedTransaction) SigningBytes() []byte {
	var buf []byte

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		buf = append(buf, in.BoxID[:]...)
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.DataInputs)))
	for _, di := range tx.DataInputs {
		buf = append(buf, di.BoxID[:]...)
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.Outputs)))
	for i := range tx.Outputs {
		buf = appendOutput(buf, &tx.Outputs[i])
	}
	return buf
}

// appendOutput serializes the content of an output candidate.
// Format: value(32) | script_len(4) | script | height(4) | asset_count(4) | [token_id(32) + amount(32)]... | register_count(1) | [slot(1) + len(4) + hex]...
func appendOutput(buf []byte, out *types.Box) []byte {
	v := out.Value.Bytes32()
	buf = append(buf, v[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(out.ErgoTree)))
	buf = append(buf, out.ErgoTree...)
	buf = binary.LittleEndian.AppendUint32(buf, out.CreationHeight)

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(out.Assets)))
	for _, a := range out.Assets {
		amt := a.Amount.Bytes32()
		buf = append(buf, a.TokenID[:]...)
		buf = append(buf, amt[:]...)
	}

	slots := out.Registers.Sorted()
	buf = append(buf, byte(len(slots)))
	for _, id := range slots {
		val := out.Registers[id]
		buf = append(buf, id[1]-'0')
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(val)))
		buf = append(buf, val...)
	}
	return buf
}

// Finalize recomputes the ID and assigns every output its transaction id,
// index and content-derived box id.
func (tx *UnsignedTransaction) Finalize() {
	tx.ID = tx.ComputeID()
	for i := range tx.Outputs {
		out := &tx.Outputs[i]
		out.TransactionID = tx.ID
		out.Index = uint16(i)
		out.BoxID = crypto.OutputBoxID(tx.ID, out.Index, appendOutput(nil, out))
	}
}

// InputBoxes returns the boxes being spent, in input order.
func (tx *UnsignedTransaction) InputBoxes() []types.Box {
	boxes := make([]types.Box, len(tx.Inputs))
	for i, in := range tx.Inputs {
		boxes[i] = in.Box
	}
	return boxes
}

// Clone returns a deep copy of the transaction.
func (tx *UnsignedTransaction) Clone() *UnsignedTransaction {
	out := &UnsignedTransaction{
		ID:         tx.ID,
		Inputs:     make([]Input, len(tx.Inputs)),
		DataInputs: append([]DataInput{}, tx.DataInputs...),
		Outputs:    make([]types.Box, len(tx.Outputs)),
	}
	for i, in := range tx.Inputs {
		ext := make(map[string]string, len(in.Extension))
		for k, v := range in.Extension {
			ext[k] = v
		}
		out.Inputs[i] = Input{Box: in.Box.Clone(), Extension: ext}
	}
	for i, o := range tx.Outputs {
		out.Outputs[i] = o.Clone()
	}
	return out
}
