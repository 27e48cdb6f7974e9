package domain

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// ContentIDPlaceholder is replaced with the beatmapset id in a mirror URL template
const ContentIDPlaceholder = "{id}"

// MirrorSource describes one host that may serve a beatmapset archive
type MirrorSource struct {
	Name         string `json:"name" mapstructure:"name"`
	URLTemplate  string `json:"url_template" mapstructure:"url_template"`
	RequiresAuth bool   `json:"requires_auth" mapstructure:"requires_auth"`
	Priority     int    `json:"priority" mapstructure:"priority"`
}

// URL renders the source URL for a content id
func (m MirrorSource) URL(contentID int) string {
	return strings.ReplaceAll(m.URLTemplate, ContentIDPlaceholder, strconv.Itoa(contentID))
}

// AttemptDescriptor is one fetch attempt against a single mirror
type AttemptDescriptor struct {
	Source  MirrorSource
	URL     string
	Headers http.Header
}

// DefaultMirrors returns the built-in mirror list, public mirrors first
func DefaultMirrors() []MirrorSource {
	return []MirrorSource{
		{Name: "catboy.best", URLTemplate: "https://catboy.best/d/{id}", Priority: 10},
		{Name: "chimu.moe", URLTemplate: "https://api.chimu.moe/v1/download/{id}?n=1", Priority: 20},
		{Name: "beatconnect.io", URLTemplate: "https://beatconnect.io/b/{id}", Priority: 30},
		{Name: "osu.ppy.sh", URLTemplate: "https://osu.ppy.sh/beatmapsets/{id}/download", RequiresAuth: true, Priority: 40},
	}
}

// MirrorRegistry is a static, priority-ordered list of mirror sources
type MirrorRegistry struct {
	sources []MirrorSource
}

// NewMirrorRegistry creates a registry ordered by ascending priority.
// Sources with equal priority keep their configured order.
func NewMirrorRegistry(sources []MirrorSource) *MirrorRegistry {
	ordered := make([]MirrorSource, len(sources))
	copy(ordered, sources)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})
	return &MirrorRegistry{sources: ordered}
}

// Sources returns a copy of the ordered sources
func (r *MirrorRegistry) Sources() []MirrorSource {
	out := make([]MirrorSource, len(r.sources))
	copy(out, r.sources)
	return out
}

// Attempts builds the ordered attempt list for a content id.
// The bearer token is only attached to sources that require it.
func (r *MirrorRegistry) Attempts(contentID int, accessToken string) []AttemptDescriptor {
	attempts := make([]AttemptDescriptor, 0, len(r.sources))
	for _, source := range r.sources {
		headers := http.Header{}
		if source.RequiresAuth && accessToken != "" {
			headers.Set("Authorization", "Bearer "+accessToken)
		}
		attempts = append(attempts, AttemptDescriptor{
			Source:  source,
			URL:     source.URL(contentID),
			Headers: headers,
		})
	}
	return attempts
}
