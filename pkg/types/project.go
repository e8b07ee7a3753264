package types

import (
	"encoding/json"
	"sort"
)

const (
	LegacyEngineMarkerKey = "default_project_engine_type"
	LegacyEngineValue     = "legacy_engine"
)

type OwnerType string

const (
	OwnerTypeUser    OwnerType = "user"
	OwnerTypeTeam    OwnerType = "team"
	OwnerTypeUnknown OwnerType = ""
)

func ParseOwnerType(s string) OwnerType {
	switch s {
	case "user", "User", "USER":
		return OwnerTypeUser
	case "team", "Team", "TEAM", "organization", "Organization":
		return OwnerTypeTeam
	default:
		return OwnerTypeUnknown
	}
}

type ProjectIdentity struct {
	CreatorUsername string    `json:"creator_username"`
	ProjectSlug     string    `json:"project_slug"`
	OwnerType       OwnerType `json:"owner_type"`
	OwnerName       string    `json:"owner_name"`
}

// ProjectPath is the owner/slug path used to address the project's session.
func (id ProjectIdentity) ProjectPath() string {
	owner := id.OwnerName
	if owner == "" {
		owner = id.CreatorUsername
	}
	return owner + "/" + id.ProjectSlug
}

// ProjectMetadata is a read-only view over a project metadata document.
// Transform methods return new values and never touch the receiver.
type ProjectMetadata struct {
	doc map[string]interface{}
}

func NewProjectMetadata(doc map[string]interface{}) ProjectMetadata {
	return ProjectMetadata{doc: deepCopy(doc)}
}

func (m ProjectMetadata) Get(key string) (interface{}, bool) {
	v, ok := m.doc[key]
	return v, ok
}

func (m ProjectMetadata) String(key string) string {
	v, ok := m.doc[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func (m ProjectMetadata) Name() string {
	return m.String("name")
}

func (m ProjectMetadata) TeamName() string {
	return m.String("team_name")
}

func (m ProjectMetadata) UsesLegacyEngine() bool {
	_, ok := m.doc[LegacyEngineMarkerKey]
	return ok
}

func (m ProjectMetadata) WithoutLegacyMarker() ProjectMetadata {
	out := deepCopy(m.doc)
	delete(out, LegacyEngineMarkerKey)
	return ProjectMetadata{doc: out}
}

func (m ProjectMetadata) Keys() []string {
	keys := make([]string, 0, len(m.doc))
	for k := range m.doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m ProjectMetadata) Len() int {
	return len(m.doc)
}

// Raw returns a deep copy of the underlying document.
func (m ProjectMetadata) Raw() map[string]interface{} {
	return deepCopy(m.doc)
}

func (m ProjectMetadata) MarshalJSON() ([]byte, error) {
	if m.doc == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.doc)
}

func (m *ProjectMetadata) UnmarshalJSON(data []byte) error {
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	m.doc = doc
	return nil
}

func deepCopy(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return deepCopy(t)
	case []interface{}:
		cp := make([]interface{}, len(t))
		for i := range t {
			cp[i] = copyValue(t[i])
		}
		return cp
	default:
		return t
	}
}
