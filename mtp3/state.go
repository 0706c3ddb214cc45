package mtp3

import "fmt"

// AdjSPState is the traffic state of an adjacent signalling point.
type AdjSPState int

const (
	AdjSPDown AdjSPState = iota
	AdjSPLocalRestart
	AdjSPRemoteRestart
	AdjSPAligning
	AdjSPUp
)

func (s AdjSPState) String() string {
	switch s {
	case AdjSPDown:
		return "DOWN"
	case AdjSPLocalRestart:
		return "LOCAL-RESTART"
	case AdjSPRemoteRestart:
		return "REMOTE-RESTART"
	case AdjSPAligning:
		return "ALIGNING"
	case AdjSPUp:
		return "UP"
	default:
		return fmt.Sprintf("AdjSPState(%d)", int(s))
	}
}

// RouteState is the prohibited/restricted/allowed state of a route to a
// non-adjacent DPC, driven by TFP/TFR/TFA.
type RouteState int

const (
	RouteProhibited RouteState = iota + 1 // TFP
	RouteAllowed                          // TFA
	RouteRestrictedNonActive              // TFR, controlled reroute not yet engaged
	RouteRestrictedActive                 // TFR, controlled reroute (T6) engaged
)

func (s RouteState) String() string {
	switch s {
	case RouteProhibited:
		return "TFP"
	case RouteAllowed:
		return "TFA"
	case RouteRestrictedNonActive:
		return "TFR-NON-ACTIVE"
	case RouteRestrictedActive:
		return "TFR-ACTIVE"
	default:
		return fmt.Sprintf("RouteState(%d)", int(s))
	}
}

// ChangeoverState tracks a link's changeover/changeback progress.
type ChangeoverState int

const (
	NoChangeover ChangeoverState = iota
	ChangeoverInitiated
	ChangeoverInProgress
	ChangeoverCompleted
	ChangebackInitiated
	Changeback
)

func (s ChangeoverState) String() string {
	switch s {
	case NoChangeover:
		return "NONE"
	case ChangeoverInitiated:
		return "CO-INITIATED"
	case ChangeoverInProgress:
		return "CO-IN-PROGRESS"
	case ChangeoverCompleted:
		return "CO-COMPLETED"
	case ChangebackInitiated:
		return "CB-INITIATED"
	case Changeback:
		return "CHANGEBACK"
	default:
		return fmt.Sprintf("ChangeoverState(%d)", int(s))
	}
}

// Inhibit is a bitmask of local/remote inhibition on a link. Both bits are
// maintained independently, per spec: inhibition is symmetric.
type Inhibit int

const (
	InhibitedLocally  Inhibit = 1 << 0
	InhibitedRemotely Inhibit = 1 << 1
)

// SentGotNetMsg is a bitmask recording which changeover-family messages
// have been sent or received for a link. The original's SENT_CBD and
// SENT_LFU share bit 4 (both "1 << 4"); that collision is a defect, not a
// feature — CBD (changeback) and LFU (forced uninhibit) are unrelated and
// can legitimately be in flight at once, so they get distinct bits here.
type SentGotNetMsg int

const (
	SentLUN SentGotNetMsg = 1 << iota
	SentLIN
	SentCOO
	SentECO
	SentCBD
	SentLFU
	GotCOO
	GotECO
	GotCBD
	GotTRA
)
