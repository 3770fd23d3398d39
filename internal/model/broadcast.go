package model

// BroadcastRequest is the operator-supplied batch: one message, many
// recipients in any accepted phone format.
type BroadcastRequest struct {
	Message  string   `json:"message"`
	Contacts []string `json:"contacts"`
}

// BroadcastResult partitions the batch into delivered and failed recipients.
// Failed entries hold the normalized recipient when normalization succeeded,
// otherwise the raw input.
type BroadcastResult struct {
	JobID       string   `json:"jobId"`
	Sent        []string `json:"sent"`
	Failed      []string `json:"failed"`
	SentCount   int      `json:"sentCount"`
	FailedCount int      `json:"failedCount"`
}
