// SPDX-FileCopyrightText: Copyright 2024 Olavo Dias
// SPDX-License-Identifier: MIT

package api

import (
	"strconv"
	"time"
)

// Timestamp represents a time that can be unmarshalled from a JSON string
// formatted as either an RFC3339 timestamp or a Unix timestamp in seconds
// or milliseconds. The API responds with both forms depending on the
// endpoint.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements [encoding/json.Unmarshaler].
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	str := string(data)
	if i, err := strconv.ParseInt(str, 10, 64); err == nil {
		// Heuristic: values this large are milliseconds.
		if i > 999999999999 {
			t.Time = time.Unix(0, i*int64(time.Millisecond)).UTC()
		} else {
			t.Time = time.Unix(i, 0).UTC()
		}
		return nil
	}

	parsed, err := time.Parse(`"`+time.RFC3339+`"`, str)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// Equal reports whether t and u represent the same time instant.
func (t Timestamp) Equal(u Timestamp) bool {
	return t.Time.Equal(u.Time)
}
