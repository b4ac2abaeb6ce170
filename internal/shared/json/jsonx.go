package jsonx

import "github.com/goccy/go-json"

// Thin wrapper so the asset store codec and the HTTP adapter share one JSON
// implementation.
var (
	Marshal    = json.Marshal
	Unmarshal  = json.Unmarshal
	NewDecoder = json.NewDecoder
	NewEncoder = json.NewEncoder
)

type RawMessage = json.RawMessage
