// Package api holds the JSON request and response bodies of the journalsync
// HTTP API.
package api

// Response statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Response wraps every API reply.
type Response struct {
	Data   any    `json:"data,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// RegisterRequest is the body of POST /api/v1/files.
type RegisterRequest struct {
	Compress   *bool  `json:"compress,omitempty"` // defaults to the data type setting
	LocalPath  string `json:"local_path"`
	RemotePath string `json:"remote_path,omitempty"`
	Direction  string `json:"direction,omitempty"`
	DataType   string `json:"data_type,omitempty"`
}

// SyncRequest is the body of POST /api/v1/sync. An empty LocalPath syncs
// every tracked file of DataTypes, or all files when DataTypes is empty.
type SyncRequest struct {
	LocalPath string   `json:"local_path,omitempty"`
	DataTypes []string `json:"data_types,omitempty"`
}

// ResolveRequest is the body of POST /api/v1/conflicts/resolve.
type ResolveRequest struct {
	LocalPath  string `json:"local_path"`
	Resolution string `json:"resolution"`
}

// ConfigUpdate maps configuration keys to their new values.
// Intervals are whole seconds.
type ConfigUpdate map[string]string

// DataTypeUpdate is the body of PUT /api/v1/datatypes/{name}.
// Omitted fields keep their current values.
type DataTypeUpdate struct {
	Enabled            *bool `json:"enabled,omitempty"`
	Priority           *int  `json:"priority,omitempty"`
	CompressionEnabled *bool `json:"compression_enabled,omitempty"`
}
