package types

type APIUser struct {
	Username string `json:"username"`
	Type     string `json:"type,omitempty"`
}

// UserProject is an entry of the v1 per-user project listing.
type UserProject struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	Slug    string  `json:"slug"`
	SlugRaw string  `json:"slug_raw"`
	Owner   APIUser `json:"owner"`
	Creator APIUser `json:"creator"`
}

type Project struct {
	ID                       string  `json:"id"`
	Name                     string  `json:"name"`
	Owner                    APIUser `json:"owner"`
	Creator                  APIUser `json:"creator"`
	DefaultProjectEngineType string  `json:"default_project_engine_type,omitempty"`
}

type ProjectPage struct {
	Projects      []Project `json:"projects"`
	NextPageToken string    `json:"next_page_token"`
}
