package kafka

import "time"

// WireEvent is the JSON payload of one catalog change. Layer is the
// workspace-qualified resource name and H3Cells the cover of its lat/lon
// extent at Resolutions[0].
type WireEvent struct {
	Key         string    `json:"key,omitempty"`
	Layer       string    `json:"layer,omitempty"`
	Kind        string    `json:"kind,omitempty"`
	Path        string    `json:"path,omitempty"`
	H3Cells     []string  `json:"h3_cells,omitempty"`
	Resolutions []int     `json:"res,omitempty"`
	Version     uint64    `json:"version"`
	TS          time.Time `json:"ts"`
	Op          string    `json:"op,omitempty"`
}

// wire ops as understood by spatial cache invalidators
const (
	opInsert = "insert"
	opUpdate = "update"
	opDelete = "delete"
)
