package envelope

import (
	"encoding/json"

	"github.com/oriys/actoredge/actorid"
)

// wireEnvelope is the JSON-serializable shape of an Envelope, used by
// any transport that needs to move an envelope across a byte-oriented
// channel (gRPC's JSON codec, the length-prefixed framed transport).
// Envelope's fields stay unexported so construction always goes through
// the New* constructors; wireEnvelope is the one seam allowed to see
// them all at once.
type wireEnvelope struct {
	Recipient actorid.ID `json:"recipient"`
	Sender    actorid.ID `json:"sender,omitempty"`
	Manifest  Manifest   `json:"manifest"`
	Payload   []byte     `json:"payload,omitempty"`
	Metadata  Metadata   `json:"metadata"`
	Kind      Kind       `json:"kind"`
}

// MarshalJSON encodes the envelope's full wire representation,
// including its normally-unexported recipient/sender/kind fields.
func (e Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEnvelope{
		Recipient: e.recipient,
		Sender:    e.sender,
		Manifest:  e.manifest,
		Payload:   e.payload,
		Metadata:  e.metadata,
		Kind:      e.kind,
	})
}

// UnmarshalJSON decodes an envelope previously produced by MarshalJSON.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.recipient = w.Recipient
	e.sender = w.Sender
	e.manifest = w.Manifest
	e.payload = w.Payload
	e.metadata = w.Metadata
	e.kind = w.Kind
	return nil
}
