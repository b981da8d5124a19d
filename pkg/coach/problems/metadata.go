package problems

import "encoding/json"

// Metadata is the common problem-statement shape stored on a session and in
// the resolver cache. Examples entries are either plain strings or
// {"input","output"} objects depending on which tier produced them.
type Metadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Difficulty  string   `json:"difficulty"`
	Constraints []string `json:"constraints"`
	Examples    []any    `json:"examples"`
	TopicTags   []string `json:"topicTags"`
}

// normalizeRaw converts a record in the upstream (or pre-schema cached)
// shape into Metadata. Unknown fields are dropped.
func normalizeRaw(raw map[string]any) *Metadata {
	md := &Metadata{
		Title:       firstString(raw, "questionTitle", "title"),
		Description: firstString(raw, "content", "description"),
		Difficulty:  firstString(raw, "difficulty"),
	}
	for _, c := range anySlice(raw["constraints"]) {
		if s, ok := c.(string); ok {
			md.Constraints = append(md.Constraints, s)
		}
	}
	examples := anySlice(raw["examples"])
	if examples == nil {
		examples = anySlice(raw["exampleTestcases"])
	}
	md.Examples = examples
	for _, t := range anySlice(raw["topicTags"]) {
		switch v := t.(type) {
		case string:
			md.TopicTags = append(md.TopicTags, v)
		case map[string]any:
			if name, ok := v["name"].(string); ok {
				md.TopicTags = append(md.TopicTags, name)
			}
		}
	}
	return md
}

// decodeCached interprets a cached record, normalizing shapes written before
// the common schema existed.
func decodeCached(data []byte) *Metadata {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	if _, ok := raw["title"]; ok {
		var md Metadata
		if err := json.Unmarshal(data, &md); err != nil {
			return nil
		}
		return &md
	}
	return normalizeRaw(raw)
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := raw[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func anySlice(v any) []any {
	s, _ := v.([]any)
	return s
}
