package models

import (
	"encoding/json"
	"fmt"
)

// ConstraintReason explains why a slot is constrained. The set of variants
// is closed; a nil ConstraintReason means no reason is recorded.
type ConstraintReason interface {
	Kind() ReasonKind
	isConstraintReason()
}

type ReasonKind string

const (
	ReasonChainRecovery ReasonKind = "chain_recovery"
	ReasonManualBlock   ReasonKind = "manual_block"
	ReasonAbsence       ReasonKind = "absence"
)

// ChainRecovery marks a next-day slot blocked to recover from a chain
// service.
type ChainRecovery struct {
	Service string
}

// ManualBlock marks a slot blocked by a planner.
type ManualBlock struct {
	Note string
}

// Absence marks a slot unavailable because of leave, training and so on.
type Absence struct {
	Type string
}

func (ChainRecovery) Kind() ReasonKind { return ReasonChainRecovery }
func (ManualBlock) Kind() ReasonKind   { return ReasonManualBlock }
func (Absence) Kind() ReasonKind       { return ReasonAbsence }

func (ChainRecovery) isConstraintReason() {}
func (ManualBlock) isConstraintReason()   {}
func (Absence) isConstraintReason()       {}

type reasonJSON struct {
	Kind    ReasonKind `json:"kind"`
	Service string     `json:"service,omitempty"`
	Note    string     `json:"note,omitempty"`
	Type    string     `json:"type,omitempty"`
}

// EncodeReason serialises a reason for the constraint_reason column.
// A nil reason encodes to the empty string.
func EncodeReason(r ConstraintReason) (string, error) {
	if r == nil {
		return "", nil
	}
	var out reasonJSON
	switch v := r.(type) {
	case ChainRecovery:
		out = reasonJSON{Kind: ReasonChainRecovery, Service: v.Service}
	case ManualBlock:
		out = reasonJSON{Kind: ReasonManualBlock, Note: v.Note}
	case Absence:
		out = reasonJSON{Kind: ReasonAbsence, Type: v.Type}
	default:
		return "", fmt.Errorf("unsupported constraint reason %T", r)
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeReason is the inverse of EncodeReason. Unknown kinds are rejected.
func DecodeReason(s string) (ConstraintReason, error) {
	if s == "" {
		return nil, nil
	}
	var in reasonJSON
	if err := json.Unmarshal([]byte(s), &in); err != nil {
		return nil, fmt.Errorf("decoding constraint reason: %w", err)
	}
	switch in.Kind {
	case ReasonChainRecovery:
		return ChainRecovery{Service: in.Service}, nil
	case ReasonManualBlock:
		return ManualBlock{Note: in.Note}, nil
	case ReasonAbsence:
		return Absence{Type: in.Type}, nil
	}
	return nil, fmt.Errorf("unknown constraint reason kind %q", in.Kind)
}
