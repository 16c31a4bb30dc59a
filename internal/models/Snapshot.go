package models

// Snapshot is the full durable state of the service. Reports are kept
// newest first; the other collections are in insertion order.
type Snapshot struct {
	Users       []User       `json:"users"`
	Reports     []Report     `json:"reports"`
	Contractors []Contractor `json:"contractors"`
	Budget      *Budget      `json:"budget,omitempty"`
	Votes       []Vote       `json:"votes,omitempty"`
}
