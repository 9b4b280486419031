package zatca_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/registerd/pkg/zatca"
)

func TestEncode_RoundTrip(t *testing.T) {
	encoded, err := zatca.Encode("ACME", "123456789", "2024-01-01T10:00:00Z", "115.00", "15.00")
	require.NoError(t, err)

	fields, err := zatca.Decode(encoded)
	require.NoError(t, err)
	require.Len(t, fields, 5)

	assert.Equal(t, zatca.Field{Tag: zatca.TagSellerName, Value: "ACME"}, fields[0])
	assert.Equal(t, zatca.Field{Tag: zatca.TagVATNumber, Value: "123456789"}, fields[1])
	assert.Equal(t, zatca.Field{Tag: zatca.TagTimestamp, Value: "2024-01-01T10:00:00Z"}, fields[2])
	assert.Equal(t, zatca.Field{Tag: zatca.TagInvoiceTotal, Value: "115.00"}, fields[3])
	assert.Equal(t, zatca.Field{Tag: zatca.TagVATTotal, Value: "15.00"}, fields[4])
}

func TestEncode_ByteLayout(t *testing.T) {
	encoded, err := zatca.Encode("AB", "12", "T", "1.00", "0.15")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	// tag 1, len 2, "AB"
	assert.Equal(t, byte(0x01), raw[0])
	assert.Equal(t, byte(2), raw[1])
	assert.Equal(t, "AB", string(raw[2:4]))
	// tag 2 follows immediately, no padding or separators
	assert.Equal(t, byte(0x02), raw[4])

	// total length is the sum of the field headers and values
	want := 2 + 2 + 2 + 2 + 2 + 1 + 2 + 4 + 2 + 4
	assert.Len(t, raw, want)
}

func TestEncode_UTF8ByteLengths(t *testing.T) {
	// Arabic seller names are the common case for ZATCA; the length byte
	// must count UTF-8 bytes, not runes.
	name := "شركة"
	encoded, err := zatca.Encode(name, "310122393500003", "2024-06-15T08:30:00Z", "57.50", "7.50")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, byte(len([]byte(name))), raw[1])

	fields, err := zatca.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, name, fields[0].Value)
}

func TestEncode_NoLineWrapping(t *testing.T) {
	encoded, err := zatca.Encode(strings.Repeat("a", 200), "123456789", "2024-01-01T10:00:00Z", "115.00", "15.00")
	require.NoError(t, err)
	assert.NotContains(t, encoded, "\n")
	assert.NotContains(t, encoded, "\r")
}

func TestEncode_FieldTooLong(t *testing.T) {
	_, err := zatca.Encode(strings.Repeat("x", 256), "123456789", "2024-01-01T10:00:00Z", "115.00", "15.00")
	require.Error(t, err)

	var fe *zatca.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, byte(zatca.TagSellerName), fe.Tag)
	assert.Equal(t, 256, fe.Size)
}

func TestEncode_MultibyteOverflow(t *testing.T) {
	// 128 two-byte runes is 256 encoded bytes; must be rejected even though
	// the rune count fits.
	_, err := zatca.Encode(strings.Repeat("ش", 128), "1", "t", "1.00", "0.00")
	require.Error(t, err)
}

func TestPayload_Encode(t *testing.T) {
	p := &zatca.Payload{
		SellerName:   "ACME",
		VATNumber:    "123456789",
		Timestamp:    "2024-01-01T10:00:00Z",
		InvoiceTotal: 115,
		VATTotal:     15,
	}
	fromPayload, err := p.Encode()
	require.NoError(t, err)

	fromStrings, err := zatca.Encode("ACME", "123456789", "2024-01-01T10:00:00Z", "115.00", "15.00")
	require.NoError(t, err)

	assert.Equal(t, fromStrings, fromPayload)
}

func TestAmount(t *testing.T) {
	assert.Equal(t, "115.00", zatca.Amount(115))
	assert.Equal(t, "0.10", zatca.Amount(0.1))
	assert.Equal(t, "-34.50", zatca.Amount(-34.5))
	assert.Equal(t, "26.09", zatca.Amount(26.086956521739129))
}

func TestDecode_Truncated(t *testing.T) {
	// header claims 10 bytes but only 2 follow
	bad := base64.StdEncoding.EncodeToString([]byte{0x01, 10, 'a', 'b'})
	_, err := zatca.Decode(bad)
	require.Error(t, err)
}
