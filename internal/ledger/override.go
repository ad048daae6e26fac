package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ashmitsharp/trackmoney-api/internal/models"
)

// Kind names a balance that can be pinned by hand
type Kind string

const (
	KindDebt    Kind = "debt"
	KindSavings Kind = "savings"
)

// ParseKind validates a balance kind coming from the outside
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindDebt, KindSavings:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: unknown balance %q", ErrInvalidBalance, s)
	}
}

// Mode is the observable state of an Override
type Mode string

const (
	ModeAutomatic Mode = "automatic"
	ModeManual    Mode = "manual"
)

// Override is either Automatic or Manual(baseline). The zero value is Automatic.
//
// A manual override also remembers how much each transaction added after the pin moved
// the baseline, so deleting that transaction can move it back.
type Override struct {
	manual      bool
	baseline    decimal.Decimal
	adjustments map[string]decimal.Decimal
}

// Automatic derives the balance from the transaction log
func Automatic() Override {
	return Override{}
}

// Manual pins the balance to baseline
func Manual(baseline decimal.Decimal) Override {
	return Override{manual: true, baseline: baseline}
}

func (o Override) Mode() Mode {
	if o.manual {
		return ModeManual
	}
	return ModeAutomatic
}

func (o Override) IsManual() bool {
	return o.manual
}

// Baseline returns the pinned value; ok is false in automatic mode.
func (o Override) Baseline() (decimal.Decimal, bool) {
	if !o.manual {
		return decimal.Zero, false
	}
	return o.baseline, true
}

// absorb moves the baseline by delta on behalf of transaction id
func (o Override) absorb(id string, delta decimal.Decimal) Override {
	if !o.manual {
		return o
	}
	adjustments := make(map[string]decimal.Decimal, len(o.adjustments)+1)
	for k, v := range o.adjustments {
		adjustments[k] = v
	}
	adjustments[id] = delta
	return Override{manual: true, baseline: o.baseline.Add(delta), adjustments: adjustments}
}

// release undoes whatever absorb recorded for transaction id
func (o Override) release(id string) Override {
	delta, ok := o.adjustments[id]
	if !o.manual || !ok {
		return o
	}
	adjustments := make(map[string]decimal.Decimal, len(o.adjustments))
	for k, v := range o.adjustments {
		if k != id {
			adjustments[k] = v
		}
	}
	return Override{manual: true, baseline: o.baseline.Sub(delta), adjustments: adjustments}
}

// releaseDebt removes transaction id from a pinned debt balance. Because the
// debt clamp makes later payments depend on earlier ones, the remaining
// payments in txs are absorbed again in log order from the pinned value.
func (o Override) releaseDebt(id string, txs []models.Transaction) Override {
	if _, ok := o.adjustments[id]; !o.manual || !ok {
		return o
	}

	baseline := o.baseline
	for _, delta := range o.adjustments {
		baseline = baseline.Sub(delta)
	}

	adjustments := make(map[string]decimal.Decimal, len(o.adjustments)-1)
	for _, tx := range txs {
		if _, ok := o.adjustments[tx.ID]; !ok || tx.ID == id {
			continue
		}
		next := clampDebt(baseline.Sub(tx.Amount))
		adjustments[tx.ID] = next.Sub(baseline)
		baseline = next
	}
	return Override{manual: true, baseline: baseline, adjustments: adjustments}
}

type overrideJSON struct {
	Mode        Mode                       `json:"mode"`
	Baseline    *decimal.Decimal           `json:"baseline,omitempty"`
	Adjustments map[string]decimal.Decimal `json:"adjustments,omitempty"`
}

func (o Override) MarshalJSON() ([]byte, error) {
	out := overrideJSON{Mode: o.Mode()}
	if o.manual {
		baseline := o.baseline
		out.Baseline = &baseline
		if len(o.adjustments) > 0 {
			out.Adjustments = o.adjustments
		}
	}
	return json.Marshal(out)
}

func (o *Override) UnmarshalJSON(data []byte) error {
	var in overrideJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	switch in.Mode {
	case "", ModeAutomatic:
		*o = Automatic()
	case ModeManual:
		if in.Baseline == nil {
			return fmt.Errorf("%w: manual override without baseline", ErrInvalidBalance)
		}
		*o = Override{manual: true, baseline: *in.Baseline, adjustments: in.Adjustments}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidBalance, in.Mode)
	}
	return nil
}
