package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
)

type itemsEnvelope struct {
	Items []ArticleItem `json:"items"`
}

// ParseItems decodes a batch of article items from the upstream feed filter.
// Both the `{"items": [...]}` envelope and a bare array are accepted.
func ParseItems(r io.Reader) ([]ArticleItem, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}

	var envelope itemsEnvelope
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Items != nil {
		return validateItems(envelope.Items)
	}

	var items []ArticleItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return validateItems(items)
}

func validateItems(items []ArticleItem) ([]ArticleItem, error) {
	for i, item := range items {
		if item.URL == "" {
			return nil, fmt.Errorf("item %d is missing a url", i)
		}
	}
	return items, nil
}
