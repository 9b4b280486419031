package zatca

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
)

// ZATCA simplified-invoice QR tags. The tag order on the wire is fixed 1..5.
const (
	TagSellerName   = 0x01
	TagVATNumber    = 0x02
	TagTimestamp    = 0x03
	TagInvoiceTotal = 0x04
	TagVATTotal     = 0x05
)

// MaxFieldBytes is the largest value a single-byte TLV length can carry.
// A field exceeding it is a caller error, never silently truncated.
const MaxFieldBytes = 255

// FormatError reports a field whose UTF-8 encoding exceeds MaxFieldBytes.
type FormatError struct {
	Tag  byte
	Size int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("zatca: field with tag %d is %d bytes, exceeds TLV limit of %d", e.Tag, e.Size, MaxFieldBytes)
}

// Payload holds the five fields of a ZATCA simplified-invoice QR code.
// Timestamp must be ISO-8601 with a Z suffix; the totals are formatted
// with two decimals before encoding.
type Payload struct {
	SellerName   string
	VATNumber    string
	Timestamp    string
	InvoiceTotal float64
	VATTotal     float64
}

// Encode builds the TLV byte stream for the payload and Base64-encodes it
// with no line wrapping. Output is byte-exact per the ZATCA QR scheme:
// tag(1) || length(1) || UTF-8 value, concatenated in tag order 1..5.
func (p *Payload) Encode() (string, error) {
	var buf bytes.Buffer

	fields := []struct {
		tag   byte
		value string
	}{
		{TagSellerName, p.SellerName},
		{TagVATNumber, p.VATNumber},
		{TagTimestamp, p.Timestamp},
		{TagInvoiceTotal, Amount(p.InvoiceTotal)},
		{TagVATTotal, Amount(p.VATTotal)},
	}

	for _, f := range fields {
		if err := appendTLV(&buf, f.tag, f.value); err != nil {
			return "", err
		}
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Encode encodes the five ZATCA fields directly from strings. The totals are
// expected to be pre-formatted with two decimals.
func Encode(sellerName, vatNumber, timestamp, invoiceTotal, vatTotal string) (string, error) {
	var buf bytes.Buffer

	fields := []struct {
		tag   byte
		value string
	}{
		{TagSellerName, sellerName},
		{TagVATNumber, vatNumber},
		{TagTimestamp, timestamp},
		{TagInvoiceTotal, invoiceTotal},
		{TagVATTotal, vatTotal},
	}

	for _, f := range fields {
		if err := appendTLV(&buf, f.tag, f.value); err != nil {
			return "", err
		}
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func appendTLV(buf *bytes.Buffer, tag byte, value string) error {
	raw := []byte(value)
	if len(raw) > MaxFieldBytes {
		return &FormatError{Tag: tag, Size: len(raw)}
	}
	buf.WriteByte(tag)
	buf.WriteByte(byte(len(raw)))
	buf.Write(raw)
	return nil
}

// Amount formats a monetary value the way the QR payload carries it:
// a plain decimal string with exactly two fraction digits.
func Amount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Field is a decoded TLV entry.
type Field struct {
	Tag   byte
	Value string
}

// Decode parses a Base64 TLV payload back into its tagged fields.
// Used for receipt verification and round-trip tests.
func Decode(encoded string) ([]Field, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("zatca: invalid base64 payload: %w", err)
	}

	var fields []Field
	for i := 0; i < len(raw); {
		if len(raw)-i < 2 {
			return nil, fmt.Errorf("zatca: truncated TLV header at offset %d", i)
		}
		tag := raw[i]
		length := int(raw[i+1])
		i += 2
		if len(raw)-i < length {
			return nil, fmt.Errorf("zatca: field with tag %d declares %d bytes, %d remain", tag, length, len(raw)-i)
		}
		fields = append(fields, Field{Tag: tag, Value: string(raw[i : i+length])})
		i += length
	}
	return fields, nil
}
