package session

import "github.com/nanoauth/nanoauth/users"

// Schema declares which user fields may appear in session claims and which
// JSON types each accepts. Keys absent from the schema are dropped during
// sanitization, as are values of an undeclared type.
//
// Recognized type names: "string", "number", "boolean", "null".
type Schema map[string][]string

// Sanitize filters a user record down to schema-approved fields.
func (s Schema) Sanitize(user users.User) users.User {
	sanitized := make(users.User, len(s))
	for key, accepted := range s {
		value, ok := user[key]
		if !ok {
			continue
		}
		name := typeName(value)
		for _, t := range accepted {
			if t == name {
				sanitized[key] = value
				break
			}
		}
	}
	return sanitized
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return "number"
	default:
		return "object"
	}
}
