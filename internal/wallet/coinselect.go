// Package wallet selects spendable boxes and summarises wallet holdings.
package wallet

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

// Box selection errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoBoxes           = errors.New("no boxes available")
	ErrEmptyRequirement  = errors.New("nothing to select for")
)

// Shortfall compares what the candidate set holds against what was asked.
type Shortfall struct {
	Have types.Amount
	Need types.Amount
}

// InsufficientFundsError reports which constraints the candidate set could
// not satisfy. It matches ErrInsufficientFunds with errors.Is.
type InsufficientFundsError struct {
	ValueShort *Shortfall                  // Nil when value was covered.
	TokenShort map[types.TokenID]Shortfall // Only tokens that were short.
}

func (e *InsufficientFundsError) Error() string {
	var parts []string
	if e.ValueShort != nil {
		parts = append(parts, fmt.Sprintf("value: have %s, need %s", e.ValueShort.Have, e.ValueShort.Need))
	}
	ids := make([]types.TokenID, 0, len(e.TokenShort))
	for id := range e.TokenShort {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	for _, id := range ids {
		s := e.TokenShort[id]
		parts = append(parts, fmt.Sprintf("token %s: have %s, need %s", id, s.Have, s.Need))
	}
	return fmt.Sprintf("%s: %s", ErrInsufficientFunds, strings.Join(parts, "; "))
}

// Is reports whether target is ErrInsufficientFunds.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// IsValueBound reports whether the value requirement could not be met.
// Callers should suggest increasing the amount sent.
func (e *InsufficientFundsError) IsValueBound() bool {
	return e.ValueShort != nil
}

// IsTokenBound reports whether some token requirement could not be met.
func (e *InsufficientFundsError) IsTokenBound() bool {
	return len(e.TokenShort) > 0
}

// BoxSelection holds the result of box selection.
type BoxSelection struct {
	Inputs []types.Box                    // Selected boxes, in candidate order.
	Total  types.Amount                   // Sum of selected input values.
	Tokens map[types.TokenID]types.Amount // Per-token totals across the inputs.
	Change types.Amount                   // Total - target.
}

// Last returns the last selected box. Minted token ids derive from it.
func (s *BoxSelection) Last() types.Box {
	return s.Inputs[len(s.Inputs)-1]
}

// requirement is a value target plus minimum per-token amounts.
type requirement struct {
	value  types.Amount
	tokens map[types.TokenID]types.Amount
}

// tally accumulates value and token totals over a set of boxes.
type tally struct {
	value  types.Amount
	tokens map[types.TokenID]types.Amount
}

func newTally() *tally {
	return &tally{tokens: make(map[types.TokenID]types.Amount)}
}

func (t *tally) add(b *types.Box) error {
	var err error
	if t.value, err = t.value.Add(b.Value); err != nil {
		return fmt.Errorf("box %s value: %w", b.BoxID, err)
	}
	for _, a := range b.Assets {
		sum, err := t.tokens[a.TokenID].Add(a.Amount)
		if err != nil {
			return fmt.Errorf("box %s token %s: %w", b.BoxID, a.TokenID, err)
		}
		t.tokens[a.TokenID] = sum
	}
	return nil
}

func (t *tally) covers(req requirement) bool {
	if t.value.Lt(req.value) {
		return false
	}
	for id, need := range req.tokens {
		if t.tokens[id].Lt(need) {
			return false
		}
	}
	return true
}

// contributes reports whether b holds a token still short in t.
func (t *tally) contributes(b *types.Box, req requirement) bool {
	for _, a := range b.Assets {
		if need, ok := req.tokens[a.TokenID]; ok && t.tokens[a.TokenID].Lt(need) {
			return true
		}
	}
	return false
}

func tallyOf(boxes []types.Box) (*tally, error) {
	t := newTally()
	for i := range boxes {
		if err := t.add(&boxes[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// SelectBoxes chooses boxes covering the target value and the minimum
// amount of every required token. Selection is deterministic for a given
// ordered candidate set. It tries two strategies:
//  1. Single box: the lowest-value box that satisfies everything on its own.
//  2. Accumulation: take boxes holding still-short tokens in candidate
//     order, then more boxes in candidate order until the value is met,
//     then prune boxes that are not needed.
//
// The single box is used when it exists and accumulation needs more boxes.
func SelectBoxes(boxes []types.Box, target types.Amount, tokens map[types.TokenID]types.Amount) (*BoxSelection, error) {
	if len(boxes) == 0 {
		return nil, ErrNoBoxes
	}

	req := requirement{value: target, tokens: make(map[types.TokenID]types.Amount, len(tokens))}
	for id, amt := range tokens {
		if !amt.IsZero() {
			req.tokens[id] = amt
		}
	}
	if req.value.IsZero() && len(req.tokens) == 0 {
		return nil, ErrEmptyRequirement
	}

	// Zero-value boxes cannot exist on-chain; ignore them.
	candidates := make([]types.Box, 0, len(boxes))
	for _, b := range boxes {
		if !b.Value.IsZero() {
			candidates = append(candidates, b)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoBoxes
	}

	all, err := tallyOf(candidates)
	if err != nil {
		return nil, err
	}
	if !all.covers(req) {
		return nil, shortfall(all, req)
	}

	single := selectSingle(candidates, req)
	accum, err := selectAccumulate(candidates, req)
	if err != nil {
		return nil, err
	}

	chosen := accum
	if single != nil && len(accum) > 1 {
		chosen = single
	}
	return newSelection(chosen, target)
}

// selectSingle returns the lowest-value box that covers req alone, ties
// going to the earlier candidate.
func selectSingle(candidates []types.Box, req requirement) []types.Box {
	best := -1
	for i := range candidates {
		t := newTally()
		if err := t.add(&candidates[i]); err != nil || !t.covers(req) {
			continue
		}
		if best < 0 || candidates[i].Value.Lt(candidates[best].Value) {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	return []types.Box{candidates[best]}
}

// selectAccumulate returns the pruned accumulation in candidate order.
// The caller has already checked that all candidates together cover req.
func selectAccumulate(candidates []types.Box, req requirement) ([]types.Box, error) {
	picked := make([]bool, len(candidates))
	t := newTally()

	for i := range candidates {
		if t.contributes(&candidates[i], req) {
			if err := t.add(&candidates[i]); err != nil {
				return nil, err
			}
			picked[i] = true
		}
	}
	for i := range candidates {
		if t.covers(req) {
			break
		}
		if picked[i] {
			continue
		}
		if err := t.add(&candidates[i]); err != nil {
			return nil, err
		}
		picked[i] = true
	}

	for i := range candidates {
		if !picked[i] {
			continue
		}
		picked[i] = false
		without, err := tallyOf(pick(candidates, picked))
		if err != nil {
			return nil, err
		}
		if !without.covers(req) {
			picked[i] = true
		}
	}
	return pick(candidates, picked), nil
}

func pick(candidates []types.Box, picked []bool) []types.Box {
	out := make([]types.Box, 0, len(candidates))
	for i, ok := range picked {
		if ok {
			out = append(out, candidates[i])
		}
	}
	return out
}

func newSelection(inputs []types.Box, target types.Amount) (*BoxSelection, error) {
	t, err := tallyOf(inputs)
	if err != nil {
		return nil, err
	}
	change, err := t.value.Sub(target)
	if err != nil {
		return nil, err
	}
	return &BoxSelection{
		Inputs: inputs,
		Total:  t.value,
		Tokens: t.tokens,
		Change: change,
	}, nil
}

func shortfall(all *tally, req requirement) *InsufficientFundsError {
	e := &InsufficientFundsError{TokenShort: make(map[types.TokenID]Shortfall)}
	if all.value.Lt(req.value) {
		e.ValueShort = &Shortfall{Have: all.value, Need: req.value}
	}
	for id, need := range req.tokens {
		if have := all.tokens[id]; have.Lt(need) {
			e.TokenShort[id] = Shortfall{Have: have, Need: need}
		}
	}
	return e
}
