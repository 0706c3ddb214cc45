package mtp3

import "fmt"

// NetMsgType is a network-management message, identified by its h0/h1
// nibble pair (h0 in the low nibble, h1 in the high nibble of the single
// header octet that follows the routing label).
type NetMsgType struct {
	H0 byte
	H1 byte
}

func (t NetMsgType) String() string {
	if n, ok := netMsgNames[t]; ok {
		return n
	}
	return fmt.Sprintf("NetMsg(h0=%x,h1=%x)", t.H0, t.H1)
}

// byte packs h0/h1 into the single wire octet: low nibble h0, high nibble h1.
func (t NetMsgType) byte() byte { return (t.H0 & 0xf) | (t.H1&0xf)<<4 }

func decodeNetMsgType(b byte) NetMsgType {
	return NetMsgType{H0: b & 0xf, H1: (b >> 4) & 0xf}
}

// The changeover/changeback and traffic-restart family.
var (
	COO = NetMsgType{0x1, 0x1}
	COA = NetMsgType{0x1, 0x2}
	CBD = NetMsgType{0x1, 0x5}
	CBA = NetMsgType{0x1, 0x6}

	ECO = NetMsgType{0x2, 0x1}
	ECA = NetMsgType{0x2, 0x2}

	RCT = NetMsgType{0x3, 0x1}
	TFC = NetMsgType{0x3, 0x2}

	TFP = NetMsgType{0x4, 0x1}
	TFR = NetMsgType{0x4, 0x3}
	TFA = NetMsgType{0x4, 0x5}

	RST = NetMsgType{0x5, 0x1}
	RSR = NetMsgType{0x5, 0x2}

	LIN = NetMsgType{0x6, 0x1}
	LUN = NetMsgType{0x6, 0x2}
	LIA = NetMsgType{0x6, 0x3}
	LUA = NetMsgType{0x6, 0x4}
	LID = NetMsgType{0x6, 0x5}
	LFU = NetMsgType{0x6, 0x6}
	LLT = NetMsgType{0x6, 0x7}
	LRT = NetMsgType{0x6, 0x8}

	TRA = NetMsgType{0x7, 0x1}

	DLC = NetMsgType{0x8, 0x1}
	CSS = NetMsgType{0x8, 0x2}
	CNS = NetMsgType{0x8, 0x3}
	CNP = NetMsgType{0x8, 0x4}

	UPU = NetMsgType{0xa, 0x1}
)

var netMsgNames = map[NetMsgType]string{
	COO: "COO", COA: "COA", CBD: "CBD", CBA: "CBA",
	ECO: "ECO", ECA: "ECA",
	RCT: "RCT", TFC: "TFC",
	TFP: "TFP", TFR: "TFR", TFA: "TFA",
	RST: "RST", RSR: "RSR",
	LIN: "LIN", LUN: "LUN", LIA: "LIA", LUA: "LUA", LID: "LID", LFU: "LFU", LLT: "LLT", LRT: "LRT",
	TRA: "TRA",
	DLC: "DLC", CSS: "CSS", CNS: "CNS", CNP: "CNP",
	UPU: "UPU",
}

// NetMsg is a decoded network-management message: its type, the routing
// label it travelled with and a single trailing parameter octet (a
// changeover sequence number, an SLC, or a group-field — the original's
// single "param" argument covers all of these).
type NetMsg struct {
	Type  NetMsgType
	Label RoutingLabel
	Param byte
}

// EncodeNetMsg builds the SIF for a network-management message: routing
// label, then the h0/h1 octet, then the parameter octet.
func EncodeNetMsg(v Variant, msg NetMsg) []byte {
	label := EncodeLabel(v, msg.Label)
	out := make([]byte, 0, len(label)+2)
	out = append(out, label...)
	out = append(out, msg.Type.byte(), msg.Param)
	return out
}

// DecodeNetMsg parses a network-management SIF (the part of the MSU after
// the SIO has already identified it as SIG_NET_MNG).
func DecodeNetMsg(v Variant, sif []byte) (NetMsg, error) {
	rl, n, err := DecodeLabel(v, sif)
	if err != nil {
		return NetMsg{}, err
	}
	rest := sif[n:]
	if len(rest) < 1 {
		return NetMsg{}, fmt.Errorf("mtp3: short net-mng message: no h0/h1 octet")
	}
	msg := NetMsg{Type: decodeNetMsgType(rest[0]), Label: rl}
	if len(rest) > 1 {
		msg.Param = rest[1]
	}
	return msg, nil
}
