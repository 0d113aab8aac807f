package message

import "encoding/json"

// Scratchpad response statuses.
const (
	StatusCreated = "201 Created"
	StatusOK      = "200 OK"
)

// ErrorPayload is returned whenever a request cannot be fulfilled.
type ErrorPayload struct {
	ErrorMessage string `json:"errorMessage"`
}

// ScratchpadCreate is the scratchpad.create request payload.
type ScratchpadCreate struct {
	Resource json.RawMessage `json:"resource"`
}

// ScratchpadCreateResponse answers scratchpad.create.
type ScratchpadCreateResponse struct {
	Status           string          `json:"status"`
	Location         string          `json:"location"`
	OperationOutcome json.RawMessage `json:"operationOutcome,omitempty"`
}

// ScratchpadUpdate is the scratchpad.update request payload.
type ScratchpadUpdate struct {
	Resource json.RawMessage `json:"resource"`
}

// ScratchpadUpdateResponse answers scratchpad.update.
type ScratchpadUpdateResponse struct {
	Status           string          `json:"status"`
	OperationOutcome json.RawMessage `json:"operationOutcome,omitempty"`
}

// ScratchpadDelete is the scratchpad.delete request payload.
type ScratchpadDelete struct {
	Location *string `json:"location"`
}

// ScratchpadDeleteResponse answers scratchpad.delete.
type ScratchpadDeleteResponse struct {
	Status           string          `json:"status"`
	OperationOutcome json.RawMessage `json:"operationOutcome,omitempty"`
}

// ScratchpadRead is the scratchpad.read request payload. A nil or empty
// Location reads the whole scratchpad.
type ScratchpadRead struct {
	Location *string `json:"location"`
}

// ScratchpadReadResponse answers scratchpad.read with either a single
// Resource (omitted when not found) or the Scratchpad snapshot.
type ScratchpadReadResponse struct {
	Resource         json.RawMessage    `json:"resource,omitempty"`
	Scratchpad       *[]json.RawMessage `json:"scratchpad,omitempty"`
	OperationOutcome json.RawMessage    `json:"operationOutcome,omitempty"`
}

// FormSubmittedPayload is the form.submitted request payload.
type FormSubmittedPayload struct {
	Response json.RawMessage `json:"response"`
}

// Ack is the empty success payload for handshake, form.submitted and ui.done.
type Ack struct{}
