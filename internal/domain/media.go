package domain

// MediaObject describes an image stored in the media bucket.
type MediaObject struct {
	SecureURL string            `json:"secure_url"`
	PublicID  string            `json:"public_id"`
	Format    string            `json:"format"`
	Size      int64             `json:"size"`
	Tags      []string          `json:"tags"`
	Context   map[string]string `json:"context"`
}
