package note

import "strings"

// TagRef is a tagged union over the three representations a note's tag can
// arrive in: a bare id, a bare name (legacy data), or a full Tag record.
// Every consumption site goes through NormalizedName/MatchesID instead of
// sniffing the shape itself.
type TagRef struct {
	id   string
	name string
	full *Tag
}

func TagByID(id string) TagRef     { return TagRef{id: id} }
func TagByName(name string) TagRef { return TagRef{name: name} }
func TagFull(t Tag) TagRef         { return TagRef{id: t.ID, name: t.Name, full: &t} }

// RefsFromTags lifts resolved Tag records into refs.
func RefsFromTags(tags []Tag) []TagRef {
	out := make([]TagRef, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagFull(t))
	}
	return out
}

func (r TagRef) ID() string   { return r.id }
func (r TagRef) Name() string { return r.name }

// Full returns the complete tag record when the ref carries one.
func (r TagRef) Full() (Tag, bool) {
	if r.full == nil {
		return Tag{}, false
	}
	return *r.full, true
}

// NormalizedName is the comparison form: trimmed and lowercased. Display
// names keep their original casing.
func (r TagRef) NormalizedName() string {
	return NormalizeTagName(r.name)
}

// Matches reports whether the ref denotes the same tag as the given id or
// normalized name. An empty id or name on either side never matches.
func (r TagRef) Matches(id, normName string) bool {
	if r.id != "" && id != "" && r.id == id {
		return true
	}
	n := r.NormalizedName()
	return n != "" && normName != "" && n == normName
}

// NormalizeTagName is the single normalization point for tag-name comparison.
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
