package isup

import "fmt"

// messageDescriptor is §4.4's "message-type → descriptor" table entry:
// fixed mandatory parameters (encoded back-to-back at their declared
// width, no length prefix), variable mandatory parameters (each pointed to
// by a one-byte offset and individually length-prefixed), and whether an
// optional section follows.
type messageDescriptor struct {
	Name     string
	Fixed    []byte // parameter ids; width comes from paramTable[id].FixedLen
	Variable []byte // parameter ids
	Optional bool
}

// messageTable is intentionally exhaustive over every message type
// declared in const.go, even where §4.4's call state machine
// does not gate a transition on a given type: every type gets at least a
// minimal fixed/variable/optional shape so the codec round-trip invariant
// (§8 property 4) holds for "every supported message type".
var messageTable = map[byte]messageDescriptor{
	IAM: {Name: "IAM",
		Fixed:    []byte{ParmNatureOfConnectionInd, ParmForwardCallInd, ParmCallingPartyCat},
		Variable: []byte{ParmCalledPartyNum},
		Optional: true,
	},
	SAM:  {Name: "SAM", Variable: []byte{ParmSubsequentNumber}},
	INR:  {Name: "INR", Fixed: []byte{}, Optional: false},
	INF:  {Name: "INF", Optional: true},
	COT:  {Name: "COT"},
	ACM:  {Name: "ACM", Fixed: []byte{ParmBackwardCallInd}, Optional: true},
	CON:  {Name: "CON", Fixed: []byte{ParmBackwardCallInd}, Optional: true},
	FOT:  {Name: "FOT"},
	ANM:  {Name: "ANM", Optional: true},
	REL:  {Name: "REL", Variable: []byte{ParmCause}, Optional: true},
	SUS:  {Name: "SUS", Fixed: []byte{ParmSusresInd}},
	RES:  {Name: "RES", Fixed: []byte{ParmSusresInd}},
	RLC:  {Name: "RLC", Optional: true},
	CCR:  {Name: "CCR"},
	RSC:  {Name: "RSC"},
	BLO:  {Name: "BLO"},
	UBL:  {Name: "UBL"},
	BLA:  {Name: "BLA"},
	UBA:  {Name: "UBA"},
	GRS:  {Name: "GRS", Variable: []byte{ParmRangeAndStatus}},
	CGB:  {Name: "CGB", Fixed: []byte{ParmCircuitGroupSupervisionInd}, Variable: []byte{ParmRangeAndStatus}},
	CGU:  {Name: "CGU", Fixed: []byte{ParmCircuitGroupSupervisionInd}, Variable: []byte{ParmRangeAndStatus}},
	CGBA: {Name: "CGBA", Fixed: []byte{ParmCircuitGroupSupervisionInd}, Variable: []byte{ParmRangeAndStatus}},
	CGUA: {Name: "CGUA", Fixed: []byte{ParmCircuitGroupSupervisionInd}, Variable: []byte{ParmRangeAndStatus}},
	CMR:  {Name: "CMR", Optional: true},
	CMC:  {Name: "CMC"},
	CMRJ: {Name: "CMRJ"},
	FAR:  {Name: "FAR", Optional: true},
	FAA:  {Name: "FAA", Optional: true},
	FRJ:  {Name: "FRJ", Optional: true},
	FAD:  {Name: "FAD", Optional: true},
	FAI:  {Name: "FAI", Optional: true},
	LPA:  {Name: "LPA"},
	CSVR: {Name: "CSVR", Optional: true},
	CSVS: {Name: "CSVS", Optional: true},
	DRS:  {Name: "DRS", Optional: true},
	PAM:  {Name: "PAM", Optional: true},
	GRA:  {Name: "GRA", Variable: []byte{ParmRangeAndStatus}},
	CQM:  {Name: "CQM", Variable: []byte{ParmRangeAndStatus}},
	CQR:  {Name: "CQR", Variable: []byte{ParmRangeAndStatus}},
	CPG:  {Name: "CPG", Fixed: []byte{ParmEventInfo}, Optional: true},
	USR:  {Name: "USR", Optional: true},
	UCIC: {Name: "UCIC"},
	CFN:  {Name: "CFN", Optional: true},
	OLM:  {Name: "OLM", Optional: true},
	CRG:  {Name: "CRG", Optional: true},
	FAC:  {Name: "FAC", Optional: true},
	CRA:  {Name: "CRA", Optional: true},
	CRM:  {Name: "CRM", Optional: true},
	CVR:  {Name: "CVR"},
	CVT:  {Name: "CVT"},
	EXM:  {Name: "EXM", Optional: true},
}

// encodeMessage builds the parameter body (everything after the message
// type octet) for msgType from c, per §4.4's encoding order: fixed
// parameters, then an offset-pointer array for the variable parameters,
// then their length-prefixed data, then (if the descriptor has an
// optional section) a {type,len,data}... stream terminated by a zero type
// byte. No pointer to the optional section is written: the stream starts
// right after the last variable parameter.
func encodeMessage(msgType byte, c *Call) ([]byte, error) {
	d, ok := messageTable[msgType]
	if !ok {
		return nil, fmt.Errorf("isup: unknown message type %#x", msgType)
	}
	var body []byte
	for _, id := range d.Fixed {
		pc, ok := paramTable[id]
		if !ok {
			return nil, fmt.Errorf("isup: no codec for fixed parameter %#x", id)
		}
		enc := pc.Encode(c)
		if len(enc) != pc.FixedLen {
			return nil, fmt.Errorf("isup: fixed parameter %#x encoded to %d bytes, want %d", id, len(enc), pc.FixedLen)
		}
		body = append(body, enc...)
	}
	if n := len(d.Variable); n > 0 {
		var datas [][]byte
		for _, id := range d.Variable {
			pc, ok := paramTable[id]
			if !ok {
				return nil, fmt.Errorf("isup: no codec for variable parameter %#x", id)
			}
			datas = append(datas, pc.Encode(c))
		}
		ptrs := make([]byte, n)
		var data []byte
		offset := 0 // offset measured from the end of the pointer array
		for i, d := range datas {
			ptrs[i] = byte(offset)
			data = append(data, byte(len(d)))
			data = append(data, d...)
			offset += 1 + len(d)
		}
		body = append(body, ptrs...)
		body = append(body, data...)
	}
	if d.Optional {
		var opt []byte
		for id, raw := range c.rawOptional {
			opt = append(opt, id, byte(len(raw)))
			opt = append(opt, raw...)
		}
		opt = append(opt, 0)
		body = append(body, opt...)
	}
	return body, nil
}

// decodeMessage parses msgType's parameter body into c, mirroring
// encodeMessage's layout.
func decodeMessage(msgType byte, body []byte, c *Call) error {
	d, ok := messageTable[msgType]
	if !ok {
		return fmt.Errorf("isup: unknown message type %#x", msgType)
	}
	pos := 0
	for _, id := range d.Fixed {
		pc, ok := paramTable[id]
		if !ok {
			return fmt.Errorf("isup: no codec for fixed parameter %#x", id)
		}
		if pos+pc.FixedLen > len(body) {
			return fmt.Errorf("isup: short fixed parameter %#x", id)
		}
		pc.Decode(c, body[pos:pos+pc.FixedLen])
		pos += pc.FixedLen
	}
	if n := len(d.Variable); n > 0 {
		if pos+n > len(body) {
			return fmt.Errorf("isup: short variable-parameter pointer array")
		}
		ptrs := body[pos : pos+n]
		base := pos + n
		for i, id := range d.Variable {
			off := base + int(ptrs[i])
			if off >= len(body) {
				return fmt.Errorf("isup: variable parameter %#x pointer out of range", id)
			}
			plen := int(body[off])
			if off+1+plen > len(body) {
				return fmt.Errorf("isup: variable parameter %#x truncated", id)
			}
			pc, ok := paramTable[id]
			if !ok {
				return fmt.Errorf("isup: no codec for variable parameter %#x", id)
			}
			pc.Decode(c, body[off+1:off+1+plen])
		}
		// advance pos past the last variable parameter's data for callers
		// that also expect an optional section to follow; since parameters
		// are laid out contiguously after the pointer array in encode
		// order, the end of the last one is the end of the variable part.
		last := base
		for _, off := range ptrs {
			end := base + int(off) + 1 + int(body[base+int(off)])
			if end > last {
				last = end
			}
		}
		pos = last
	}
	if d.Optional && pos < len(body) {
		if c.rawOptional == nil {
			c.rawOptional = make(map[byte][]byte)
		}
		for pos < len(body) {
			typ := body[pos]
			if typ == 0 {
				break
			}
			if pos+2 > len(body) {
				break
			}
			l := int(body[pos+1])
			if pos+2+l > len(body) {
				break
			}
			raw := make([]byte, l)
			copy(raw, body[pos+2:pos+2+l])
			c.rawOptional[typ] = raw
			pos += 2 + l
		}
	}
	return nil
}
