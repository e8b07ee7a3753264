package types

type Runtime struct {
	ImageIdentifier   string `json:"image_identifier"`
	LegacyEngineImage string `json:"legacy_engine_image,omitempty"`
	Editor            string `json:"editor,omitempty"`
	Kernel            string `json:"kernel,omitempty"`
	Edition           string `json:"edition,omitempty"`
	ShortVersion      string `json:"short_version,omitempty"`
	FullVersion       string `json:"full_version,omitempty"`
}

type RuntimePage struct {
	Runtimes      []Runtime `json:"runtimes"`
	NextPageToken string    `json:"next_page_token"`
}

type RuntimeCatalogEntry struct {
	LegacyImageID string
	RuntimeID     string
}

// RuntimeMapping maps a legacy engine image identifier to a runtime identifier.
type RuntimeMapping map[string]string

func (m RuntimeMapping) Lookup(legacyImageID string) (string, bool) {
	id, ok := m[legacyImageID]
	return id, ok
}
