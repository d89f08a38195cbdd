package dto

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FlexString is a string that also accepts JSON numbers and null.
//
// The catalog API is inconsistent about ids and years: the same field may
// arrive as 2012, "2012" or null depending on the record. Booleans, objects
// and arrays decode to the empty string.
type FlexString string

// UnmarshalJSON parses a string, number or null into a FlexString.
func (fs *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*fs = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*fs = FlexString(strings.TrimSpace(s))
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*fs = FlexString(n.String())
	default:
		*fs = ""
	}
	return nil
}

// String returns the plain string value.
func (fs FlexString) String() string {
	return string(fs)
}
