package ledger

import (
	"fmt"
	"time"
)

// OneDay is the unit the retention windows are configured in.
const OneDay = 24 * time.Hour

// Window is one ExtendTTL parameter pair.
type Window struct {
	Threshold time.Duration
	ExtendTo  time.Duration
}

// Policy holds the retention windows applied by the protocol.
type Policy struct {
	// Instance is applied to the shared allowance on every mutating call.
	Instance Window
	// Transfer is applied to each record when it is written.
	Transfer Window
}

// DefaultPolicy returns the 31/30 day shared and 120/100 day record windows.
func DefaultPolicy() Policy {
	return Policy{
		Instance: Window{Threshold: 30 * OneDay, ExtendTo: 31 * OneDay},
		Transfer: Window{Threshold: 100 * OneDay, ExtendTo: 120 * OneDay},
	}
}

// PolicyFromDays builds a Policy from whole-day values.
func PolicyFromDays(instanceThreshold, instanceTTL, transferThreshold, transferTTL int) Policy {
	return Policy{
		Instance: Window{
			Threshold: time.Duration(instanceThreshold) * OneDay,
			ExtendTo:  time.Duration(instanceTTL) * OneDay,
		},
		Transfer: Window{
			Threshold: time.Duration(transferThreshold) * OneDay,
			ExtendTo:  time.Duration(transferTTL) * OneDay,
		},
	}
}

// Validate checks each window and that records can outlive the shared
// allowance. A record lost early leaves its pool held by the protocol.
func (p Policy) Validate() error {
	if err := p.Instance.validate("instance"); err != nil {
		return err
	}
	if err := p.Transfer.validate("transfer"); err != nil {
		return err
	}
	if p.Transfer.ExtendTo <= p.Instance.ExtendTo {
		return fmt.Errorf("transfer ttl %s must exceed instance ttl %s", p.Transfer.ExtendTo, p.Instance.ExtendTo)
	}
	return nil
}

func (w Window) validate(name string) error {
	if w.ExtendTo <= 0 {
		return fmt.Errorf("%s ttl must be positive, got %s", name, w.ExtendTo)
	}
	if w.Threshold < 0 || w.Threshold >= w.ExtendTo {
		return fmt.Errorf("%s threshold %s must be in [0, %s)", name, w.Threshold, w.ExtendTo)
	}
	return nil
}
