package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Scalar is a form value that may arrive as a JSON string, number or boolean.
// Text holds its string form; Number records whether it was a JSON number.
type Scalar struct {
	Text   string
	Number bool
	Set    bool
}

// ScalarText builds a Scalar from a string value.
func ScalarText(s string) Scalar {
	return Scalar{Text: s, Set: true}
}

// ScalarNumber builds a Scalar from a numeric value.
func ScalarNumber(f float64) Scalar {
	return Scalar{Text: strconv.FormatFloat(f, 'f', -1, 64), Number: true, Set: true}
}

// UnmarshalJSON accepts strings, numbers, booleans and null. Objects and
// arrays are rejected.
func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = Scalar{}
	case bytes.Equal(b, []byte("false")):
		*s = Scalar{Set: true}
	case bytes.Equal(b, []byte("true")):
		*s = Scalar{Text: "true", Set: true}
	case len(b) > 0 && b[0] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Scalar{Text: str, Set: true}
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected a string or number, got %s", b)
		}
		*s = Scalar{Text: n.String(), Number: true, Set: true}
	}
	return nil
}

// MarshalJSON writes numbers back as numbers and everything else as strings.
func (s Scalar) MarshalJSON() ([]byte, error) {
	if !s.Set {
		return []byte("null"), nil
	}
	if s.Number {
		return []byte(s.Text), nil
	}
	return json.Marshal(s.Text)
}

// Empty reports whether the value counts as not provided: absent, null,
// false, an empty string or the number zero. A non-empty string such as "0"
// or " " is provided.
func (s Scalar) Empty() bool {
	if !s.Set || s.Text == "" {
		return true
	}
	if s.Number {
		f, err := strconv.ParseFloat(s.Text, 64)
		return err == nil && f == 0
	}
	return false
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// Float parses the leading decimal number of the value, ignoring leading
// whitespace and any trailing text ("650 sqft" gives 650). It returns NaN when
// no finite number can be read, so "Infinity" and "1e999" are rejected like
// any other non-number.
func (s Scalar) Float() float64 {
	m := leadingNumber.FindString(strings.TrimLeft(s.Text, " \t\n\r\v\f"))
	if m == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

// PhotoList is a photos field that may be sent as one value or as an array.
// Entries that are not strings are kept as empty strings so they are dropped
// by ImagesOnly.
type PhotoList []string

// UnmarshalJSON accepts null, a single value or an array.
func (p *PhotoList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*p = nil
		return nil
	}
	var raw []json.RawMessage
	if b[0] == '[' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	} else {
		raw = []json.RawMessage{b}
	}
	out := make(PhotoList, 0, len(raw))
	for _, r := range raw {
		var str string
		if err := json.Unmarshal(r, &str); err != nil {
			str = ""
		}
		out = append(out, str)
	}
	*p = out
	return nil
}

// ImagesOnly returns the entries that carry inline image data, in order.
func (p PhotoList) ImagesOnly() []string {
	out := make([]string, 0, len(p))
	for _, photo := range p {
		if strings.HasPrefix(photo, ImageDataPrefix) {
			out = append(out, photo)
		}
	}
	return out
}

// OptionalString distinguishes an absent field from an explicit null in a
// partial update body.
type OptionalString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON is only invoked when the key is present.
func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// Some returns a set OptionalString holding s.
func Some(s string) OptionalString {
	return OptionalString{Set: true, Value: &s}
}
