package tx

import (
	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

// Builder constructs unsigned transactions incrementally.
type Builder struct {
	tx *UnsignedTransaction
}

// NewBuilder creates a new transaction builder.
func NewBuilder() *Builder {
	return &Builder{
		tx: &UnsignedTransaction{
			Inputs:     []Input{},
			DataInputs: []DataInput{},
			Outputs:    []types.Box{},
		},
	}
}

// AddInput adds a box to spend. Inputs keep the order they are added in.
func (b *Builder) AddInput(box types.Box) *Builder {
	b.tx.Inputs = append(b.tx.Inputs, Input{Box: box.Clone(), Extension: map[string]string{}})
	return b
}

// AddInputs adds several boxes to spend, in order.
func (b *Builder) AddInputs(boxes []types.Box) *Builder {
	for _, box := range boxes {
		b.AddInput(box)
	}
	return b
}

// AddDataInput adds a read-only box reference.
func (b *Builder) AddDataInput(id types.BoxID) *Builder {
	b.tx.DataInputs = append(b.tx.DataInputs, DataInput{BoxID: id})
	return b
}

// AddOutput adds an output candidate.
func (b *Builder) AddOutput(out types.Box) *Builder {
	b.tx.Outputs = append(b.tx.Outputs, out.Clone())
	return b
}

// Outputs returns the outputs added so far.
func (b *Builder) Outputs() []types.Box {
	return b.tx.Outputs
}

// Build finalizes and returns the constructed transaction.
// Does NOT validate; call Validate or ValidateConservation separately.
func (b *Builder) Build() *UnsignedTransaction {
	b.tx.Finalize()
	return b.tx
}
