package api

import "costledger/pkg/costledger"

// createBatchPayload is the JSON body for POST /api/batches. CSV uploads use
// multipart form data instead.
type createBatchPayload struct {
	Name         string                   `json:"name"`
	Transactions []costledger.Transaction `json:"transactions"`
}

type ledgerResponse struct {
	Items  []costledger.AnnotatedTransaction `json:"items"`
	Total  int                               `json:"total"`
	Limit  int                               `json:"limit"`
	Offset int                               `json:"offset"`
}

type holdingsResponse struct {
	Level    string               `json:"level"`
	AsOf     string               `json:"as_of,omitempty"`
	Holdings []costledger.Holding `json:"holdings"`
}

type reviewPayload struct {
	Level string `json:"level"`
	AsOf  string `json:"as_of"`
}
