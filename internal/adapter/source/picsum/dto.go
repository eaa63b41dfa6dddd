package picsum

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Image is one record of the /v2/list response
type Image struct {
	ID          FlexibleID `json:"id"`
	Author      string     `json:"author"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	URL         string     `json:"url"`
	DownloadURL string     `json:"download_url"`
}

// FlexibleID accepts both string and numeric JSON ids
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = FlexibleID(n.String())
	return nil
}
