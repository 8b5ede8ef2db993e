package openpayu

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// StatusSuccess is the only StatusCode treated as success
const StatusSuccess = "OPENPAYU_SUCCESS"

// Status is the <Status> block of an OpenPayU response, keyed by element name
// (StatusCode, StatusDesc, Code, Location, ...).
type Status map[string]string

// StatusCode returns the provider outcome code
func (s Status) StatusCode() string {
	return s["StatusCode"]
}

// StatusDesc returns the human readable description and whether it was present
func (s Status) StatusDesc() (string, bool) {
	desc, ok := s["StatusDesc"]
	return desc, ok
}

// IsSuccess reports whether StatusCode is OPENPAYU_SUCCESS
func (s Status) IsSuccess() bool {
	return s.StatusCode() == StatusSuccess
}

// String renders the status deterministically for debug output
func (s Status) String() string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+s[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ExtractStatus reads the first <Status> block that belongs to a *Response element.
// It stops as soon as that block is closed, so a body that is damaged after the
// status still yields the status.
func ExtractStatus(data []byte) (Status, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var (
		path    []string
		status  Status
		inField string
		text    strings.Builder
	)

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("response has no status")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read response status: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			name := t.Name.Local
			switch {
			case status == nil && name == "Status" && len(path) > 0 && strings.HasSuffix(path[len(path)-1], "Response"):
				status = Status{}
			case status != nil:
				inField = name
				text.Reset()
			}
			path = append(path, name)

		case xml.CharData:
			if inField != "" {
				text.Write(t)
			}

		case xml.EndElement:
			path = path[:len(path)-1]
			if status == nil {
				continue
			}
			if t.Name.Local == "Status" && inField == "" {
				if status.StatusCode() == "" {
					return nil, fmt.Errorf("response status has no StatusCode")
				}
				return status, nil
			}
			if t.Name.Local == inField {
				status[inField] = strings.TrimSpace(text.String())
				inField = ""
			}
		}
	}
}
