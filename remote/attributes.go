package remote

import "strings"

// Attributes are flattened name, value pairs as the DOM domain returns them

// HasAttribute case insensitively
func HasAttribute(attributes []string, attr string) bool {
	_, ok := lookupAttribute(attributes, attr)
	return ok
}

// GetAttribute value or "" if not present
func GetAttribute(attributes []string, attr string) string {
	v, _ := lookupAttribute(attributes, attr)
	return v
}

func lookupAttribute(attributes []string, attr string) (string, bool) {
	for i := 0; i+1 < len(attributes); i += 2 {
		if strings.EqualFold(attributes[i], attr) {
			return attributes[i+1], true
		}
	}
	return "", false
}

// UpdateAttribute sets attr, appending it if it did not exist
func UpdateAttribute(attributes []string, attr, value string) []string {
	for i := 0; i+1 < len(attributes); i += 2 {
		if strings.EqualFold(attributes[i], attr) {
			attributes[i+1] = value
			return attributes
		}
	}
	return append(attributes, strings.ToLower(attr), value)
}

// RemoveAttribute returns attributes without attr
func RemoveAttribute(attributes []string, attr string) []string {
	kept := make([]string, 0, len(attributes))
	for i := 0; i+1 < len(attributes); i += 2 {
		if strings.EqualFold(attributes[i], attr) {
			continue
		}
		kept = append(kept, attributes[i], attributes[i+1])
	}
	return kept
}
