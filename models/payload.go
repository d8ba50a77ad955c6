package models

// PayloadKind discriminates the semi-structured documents attached to a booking.
type PayloadKind string

const (
	PayloadMedical   PayloadKind = "medical"
	PayloadQuotation PayloadKind = "quotation"
	PayloadTravel    PayloadKind = "travel"
)

// Payload is a versioned JSON object attached at a given lifecycle stage.
type Payload struct {
	SchemaVersion int            `bson:"schema_version" json:"schemaVersion"`
	Kind          PayloadKind    `bson:"kind" json:"kind"`
	Data          map[string]any `bson:"data" json:"data"`
}
