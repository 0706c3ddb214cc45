package ss7

// DebugMask selects which layers SetDumpWriter traces. Unlike the
// original's mtp2_dump/mtp3_dump/isup_dump, which log every raw signal
// unit crossing the wire, this traces only at the facade's event-emission
// boundary — one line per ISUP event and per link/linkset transition. Full
// raw-SU tracing would need instrumentation inside mtp2/mtp3's internal
// send/receive paths that this module does not add; see DESIGN.md.
type DebugMask uint8

const (
	DebugMTP2 DebugMask = 1 << iota
	DebugMTP3
	DebugISUP

	DebugAll = DebugMTP2 | DebugMTP3 | DebugISUP
)
