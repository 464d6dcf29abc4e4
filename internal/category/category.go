package category

// Category is one folder under a shop, with its thumbnail.
type Category struct {
	Name         string `json:"category"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// Upload describes a stored, publicly readable image.
type Upload struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}
