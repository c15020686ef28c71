// Package display holds the content model for two-line kiosk signs:
// departures, operator messages, the per-kiosk departure buffer and the
// rule that picks which message controls a sign for one decision cycle.
package display

// Departure is one upcoming transit departure as shown on a sign.
type Departure struct {
	Route string `json:"route"`
	Time  string `json:"time"`
}

// GeneralMessage is an operator-authored message scoped to a stop.
// A blocking message takes the whole sign; a non-blocking one shares
// the sign with a single departure line.
type GeneralMessage struct {
	StopID   string `json:"stopId"`
	Text     string `json:"message"`
	Blocking bool   `json:"blockRealtime"`
}

// NoDeparturesText is shown when there is neither a message nor a departure.
const NoDeparturesText = "No departures at this time."
