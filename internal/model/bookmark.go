package model

// Bookmark is a saved reference to a Sigma rule document.
type Bookmark struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
