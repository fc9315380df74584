// Package queue defines the payloads exchanged over RabbitMQ and the
// consumer that processes them.
package queue

import "time"

// PlaylistExportRequested is published when a playlist owner asks for an
// export.  The consumer loads the playlist from the store of record, so the
// message carries identifiers only.
type PlaylistExportRequested struct {
	PlaylistID  string    `json:"playlistId"`
	TargetEmail string    `json:"targetEmail"`
	RequestedBy string    `json:"requestedBy"`
	RequestedAt time.Time `json:"requestedAt"`
}
