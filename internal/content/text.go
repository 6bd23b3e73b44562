package content

import "strings"

// ParseFreeText extracts entities from plain-text bodies laid out as blocks
// separated by blank lines. The first non-field line of a block names the
// entity; subsequent "Key: value" lines become its fields.
func ParseFreeText(body []byte) []Entity {
	var entities []Entity

	for _, block := range strings.Split(string(body), "\n\n") {
		lines := strings.Split(block, "\n")
		var name string
		fields := make(map[string]string)

		for _, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			idx := strings.Index(line, ":")
			if idx > 0 && idx < len(line)-1 {
				key := strings.TrimSpace(line[:idx])
				val := strings.TrimSpace(line[idx+1:])
				if strings.EqualFold(key, "name") || strings.EqualFold(key, "player") {
					name = val
					continue
				}
				fields[key] = val
				continue
			}
			if name == "" {
				name = line
			}
		}

		if name != "" && len(fields) > 0 {
			entities = append(entities, Entity{Name: name, Fields: fields})
		}
	}
	return entities
}
