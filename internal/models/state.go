// Package models defines flow state constants for the structured intake flow.
package models

// StateType identifies the current step of the structured intake flow for one
// user session. The empty string means the user is not in the flow.
type StateType string

const (
	// StateIdle means no structured flow is in progress.
	StateIdle StateType = ""
	// StateCollectName waits for the client's name.
	StateCollectName StateType = "collect_name"
	// StateCollectPhone waits for the client's phone number.
	StateCollectPhone StateType = "collect_phone"
	// StateCollectService waits for a service selection from the fixed list.
	StateCollectService StateType = "collect_service"
	// StateCollectDate waits for the desired date and time as free text.
	StateCollectDate StateType = "collect_date"
	// StateCollectDocuments waits for the list of documents on hand.
	StateCollectDocuments StateType = "collect_documents"
	// StateCollectComment waits for the final comment before completion.
	StateCollectComment StateType = "collect_comment"
)
