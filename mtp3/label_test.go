package mtp3

import "testing"

func TestEncodeDecodeSIO(t *testing.T) {
	sio := EncodeSIO(NINational, 1, SIGISUP)
	ni, pri, up := DecodeSIO(sio)
	if ni != NINational || pri != 1 || up != SIGISUP {
		t.Fatalf("got ni=%v pri=%d up=%d", ni, pri, up)
	}
}

func TestLabelRoundTripITU(t *testing.T) {
	rl := RoutingLabel{DPC: 1234, OPC: 5678, SLS: 9}
	buf := EncodeLabel(ITU, rl)
	if len(buf) != 4 {
		t.Fatalf("expected 4-byte ITU label, got %d", len(buf))
	}
	got, n, err := DecodeLabel(ITU, buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != 4 {
		t.Errorf("expected to consume 4 bytes, got %d", n)
	}
	if got.DPC != rl.DPC || got.OPC != rl.OPC || got.SLS != rl.SLS {
		t.Errorf("round trip mismatch: got %+v want %+v", got, rl)
	}
}

func TestLabelRoundTripANSI(t *testing.T) {
	rl := RoutingLabel{DPC: 0x123456, OPC: 0x654321, SLS: 0x0f}
	buf := EncodeLabel(ANSI, rl)
	if len(buf) != 7 {
		t.Fatalf("expected 7-byte ANSI label, got %d", len(buf))
	}
	got, n, err := DecodeLabel(ANSI, buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != 7 {
		t.Errorf("expected to consume 7 bytes, got %d", n)
	}
	if got != rl {
		t.Errorf("round trip mismatch: got %+v want %+v", got, rl)
	}
}

func TestDecodeLabelShort(t *testing.T) {
	if _, _, err := DecodeLabel(ITU, []byte{1, 2}); err == nil {
		t.Fatal("expected error on short ITU label")
	}
}

func TestNetMsgEncodeDecode(t *testing.T) {
	rl := RoutingLabel{DPC: 1, OPC: 2, SLS: 3}
	msg := NetMsg{Type: TFP, Label: rl, Param: 7}
	sif := EncodeNetMsg(ITU, msg)
	got, err := DecodeNetMsg(ITU, sif)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != TFP || got.Param != 7 || got.Label != rl {
		t.Errorf("got %+v", got)
	}
}

func TestNetMsgTypeString(t *testing.T) {
	if TFP.String() != "TFP" {
		t.Errorf("got %s", TFP.String())
	}
	unknown := NetMsgType{0xe, 0xe}
	if unknown.String() == "" {
		t.Errorf("expected non-empty fallback string")
	}
}
