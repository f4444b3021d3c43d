package models

// PackManifest describes the community pack to the host platform: which game
// it ships, where its frontend component bundle is hosted, and which routes
// the backend plugin exposes.
type PackManifest struct {
	Slug        string           `json:"slug"`
	Name        string           `json:"name"`
	Version     string           `json:"version"`
	Description string           `json:"description"`
	Game        ManifestGame     `json:"game"`
	Frontend    ManifestFrontend `json:"frontend"`
	Routes      []PackRoute      `json:"routes"`
	LogoURL     string           `json:"logo_url,omitempty"`
}

type ManifestGame struct {
	Kind     string `json:"kind"` // e.g., "daily-number-guess"
	RangeMin int    `json:"range_min"`
	RangeMax int    `json:"range_max"`
}

type ManifestFrontend struct {
	Component string `json:"component"`       // component name the host mounts
	Entry     string `json:"entry,omitempty"` // hosted bundle entry, set after upload
}

type PackRoute struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Auth   string `json:"auth"` // public | user | admin
}
