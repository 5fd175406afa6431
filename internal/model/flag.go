package model

import (
	"bytes"
	"strconv"
)

// Flag is a TINYINT(1) column.  It decodes from JSON booleans, numbers and
// quoted numbers, and encodes as a boolean.
type Flag bool

func (f Flag) MarshalJSON() ([]byte, error) {
	return strconv.AppendBool(nil, bool(f)), nil
}

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	switch string(b) {
	case "true", "1":
		*f = true
	case "false", "0", "null", "":
		*f = false
	default:
		n, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return err
		}
		*f = n != 0
	}
	return nil
}
