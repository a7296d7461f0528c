package models

type ErrorResponse struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// CaseEvent is published on the owner's Redis channel after every mutation
// so other open clients can re-fetch the case list.
type CaseEvent struct {
	Type   string `json:"type"` // case.created | case.updated | case.deleted
	CaseID string `json:"case_id"`
}
