package models

import "fmt"

// MaxUploadSize is the largest PDF accepted for upload (5 MiB)
const MaxUploadSize int64 = 5 * 1024 * 1024

// DocumentRecord represents one indexed file as known to the backend
type DocumentRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Size       int64  `json:"size,omitempty"`
	UploadDate string `json:"upload_date,omitempty"`

	// Pending marks a client-only placeholder inserted while an upload is in flight
	Pending bool `json:"pending,omitempty"`
}

// DocumentRef is the shape of a single entry in the backend document listing
type DocumentRef struct {
	ID string `json:"id"`
}

// UploadResponse is returned by the backend after a PDF upload
type UploadResponse struct {
	ID string `json:"id"`
}

// PendingDocumentID builds the provisional id used for an upload placeholder
func PendingDocumentID(filename string, unixMillis int64) string {
	return fmt.Sprintf("temp-%s-%d", filename, unixMillis)
}

// SampleQuestion is an admin-curated prompt shown to new users
type SampleQuestion struct {
	ID        string `json:"id"`
	Question  string `json:"question"`
	CreatedAt string `json:"created_at"`
}

// MaxSampleQuestions is the number of live sample questions allowed
const MaxSampleQuestions = 4
