package dto

// DocumentResponse resolves a typed document reference to its stored file.
type DocumentResponse struct {
	Type     string `json:"type"`
	ID       uint   `json:"id"`
	FileName string `json:"file_name,omitempty"`
	URL      string `json:"url"`
}
