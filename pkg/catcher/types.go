package catcher

// metricMessage is one metric update as it appears on the wire: an element of
// the JSON array carried by a datagram.
type metricMessage struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Biased bool    `json:"biased,omitempty"`
	Value  float64 `json:"value"`
}
