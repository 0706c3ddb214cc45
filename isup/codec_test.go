package isup

import (
	"testing"

	"github.com/creslin7/ss7stack/mtp3"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeDigitsRoundTrip(t *testing.T) {
	for _, digits := range []string{"5551234", "1", "", "#123", "18005551212"} {
		packed, odd := EncodeDigits(digits)
		got := DecodeDigits(packed, odd)
		require.Equal(t, digits, got)
	}
}

func TestCICMasking(t *testing.T) {
	require.Equal(t, uint16(0x0123), DecodeCIC(mtp3.ITU, EncodeCIC(mtp3.ITU, 0x1123)))
	require.Equal(t, uint16(0x3123), DecodeCIC(mtp3.ANSI, EncodeCIC(mtp3.ANSI, 0x7123)))
}

func TestPartyNumberCalledStyleRoundTrip(t *testing.T) {
	p := PartyNumber{Digits: "5551234", NAI: NAINational, Plan: 1}
	got := decodeCalledStyle(p.encodeCalledStyle())
	require.Equal(t, p.Digits, got.Digits)
	require.Equal(t, p.NAI, got.NAI)
	require.Equal(t, p.Plan, got.Plan)
}

func TestPartyNumberCallingStyleRoundTrip(t *testing.T) {
	p := PartyNumber{
		Digits: "8005551212", NAI: NAIInternational, Plan: 1,
		Presentation: PresentationRestricted, Screening: ScreeningNetworkProvided,
	}
	got := decodeCallingStyle(p.encodeCallingStyle())
	require.Equal(t, p.Digits, got.Digits)
	require.Equal(t, p.NAI, got.NAI)
	require.Equal(t, p.Presentation, got.Presentation)
	require.Equal(t, p.Screening, got.Screening)
}

func TestEncodeDecodeMessageIAMRoundTrip(t *testing.T) {
	c := NewCall(12, 2000, 4)
	c.NatureOfConnection = 0
	c.ForwardCallInd = 0x0200
	c.CallingPartyCat = 0x0a
	c.Called = PartyNumber{Digits: "5551234", NAI: NAINational, Plan: 1}

	body, err := encodeMessage(IAM, c)
	require.NoError(t, err)

	got := NewCall(0, 0, 0)
	require.NoError(t, decodeMessage(IAM, body, got))
	require.Equal(t, c.ForwardCallInd, got.ForwardCallInd)
	require.Equal(t, c.CallingPartyCat, got.CallingPartyCat)
	require.Equal(t, c.Called.Digits, got.Called.Digits)
}

func TestEncodeDecodeMessageRELRoundTrip(t *testing.T) {
	c := NewCall(7, 100, 0)
	c.CauseCode = 1
	c.CauseLoc = 3
	c.Cause = 16

	body, err := encodeMessage(REL, c)
	require.NoError(t, err)

	got := NewCall(0, 0, 0)
	require.NoError(t, decodeMessage(REL, body, got))
	require.Equal(t, c.CauseCode, got.CauseCode)
	require.Equal(t, c.CauseLoc, got.CauseLoc)
	require.Equal(t, c.Cause, got.Cause)
}

func TestRawParameterPassthrough(t *testing.T) {
	c := NewCall(1, 1, 0)
	c.rawOptional = map[byte][]byte{ParmCallRef: {0xaa, 0xbb, 0xcc}}

	body, err := encodeMessage(ANM, c)
	require.NoError(t, err)

	got := NewCall(0, 0, 0)
	require.NoError(t, decodeMessage(ANM, body, got))
	require.Equal(t, []byte{0xaa, 0xbb, 0xcc}, got.rawOptional[ParmCallRef])
}
