package repository

import (
	"encoding/json"
	"fmt"
)

// normalizeID converts the numeric _id OxiDB assigns to a string.
func normalizeID(doc map[string]any) {
	if id, ok := doc["_id"]; ok {
		switch v := id.(type) {
		case float64:
			doc["_id"] = fmt.Sprintf("%.0f", v)
		case int:
			doc["_id"] = fmt.Sprintf("%d", v)
		}
	}
}

// toDoc flattens v through its JSON tags into an OxiDB document.
func toDoc(v any) map[string]any {
	data, _ := json.Marshal(v)
	var doc map[string]any
	json.Unmarshal(data, &doc)
	delete(doc, "_id")
	return doc
}

// fromDoc decodes an OxiDB document into v.
func fromDoc(doc map[string]any, v any) error {
	normalizeID(doc)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal doc: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal doc: %w", err)
	}
	return nil
}
