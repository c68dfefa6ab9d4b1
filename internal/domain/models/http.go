package models

// Requests for the state API. Defined in domain for consistency and reuse.

type StateRequest struct {
	Asset string `param:"asset" json:"asset" validate:"required"`
}

type HistoryRequest struct {
	Asset string `param:"asset" json:"asset" validate:"required"`
	From  string `query:"from" json:"from"`
	To    string `query:"to" json:"to"`
	Limit int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=5000"`
}

type ReplayRequest struct {
	Asset     string `json:"asset" validate:"required"`
	Timestamp string `json:"timestamp" validate:"required"`
	// Version pins the mapping version; empty means the recorded one.
	Version string `json:"version"`
}

// ReplayResponse reports whether a recomputed vector matched its recorded digest.
type ReplayResponse struct {
	Vector   *StateVector `json:"vector"`
	Digest   string       `json:"digest"`
	Verified bool         `json:"verified"`
}

// VersionsResponse lists registered mapping versions and the active one.
type VersionsResponse struct {
	Active   string   `json:"active"`
	Versions []string `json:"versions"`
}
