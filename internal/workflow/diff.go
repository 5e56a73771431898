package workflow

import (
	"bytes"
	"encoding/json"
)

// Diff maps a changed field to a FieldChange, or for a collection's categories
// relation to a RelationChange.
type Diff map[string]interface{}

type FieldChange struct {
	From interface{} `json:"from"`
	To   interface{} `json:"to"`
}

type RelationChange struct {
	Added   []CategoryStub `json:"added"`
	Removed []CategoryStub `json:"removed"`
}

// Meaningful reports whether the diff warrants an approval task.
func (d Diff) Meaningful() bool {
	return len(d) > 0
}

var categoryDiffFields = []string{
	"name",
	"slug",
	"description",
	"visibility",
	"sort_rank",
	"workflow_status",
	"value_per_points",
}

var collectionDiffFields = []string{
	"name",
	"slug",
	"tagline",
	"description",
	"visibility",
	"sort_rank",
	"scheduled_start",
	"scheduled_end",
	"workflow_status",
	"value_per_points",
}

func ComputeCategoryDiff(previous, current *CategorySnapshot) Diff {
	return diffFields(categoryDiffFields, categoryValues(previous), categoryValues(current))
}

// ComputeCollectionDiff diffs scalar fields by value and the categories relation
// as a set keyed by slug (id when the slug is empty).
func ComputeCollectionDiff(previous, current *CollectionSnapshot) Diff {
	diff := diffFields(collectionDiffFields, collectionValues(previous), collectionValues(current))

	var prevCategories, currCategories []CategoryStub
	if previous != nil {
		prevCategories = previous.Categories
	}
	if current != nil {
		currCategories = current.Categories
	}

	added, removed := diffCategorySets(prevCategories, currCategories)
	if len(added) > 0 || len(removed) > 0 {
		diff["categories"] = RelationChange{Added: added, Removed: removed}
	}

	return diff
}

func diffFields(fields []string, previous, current map[string]interface{}) Diff {
	diff := Diff{}
	for _, field := range fields {
		from := previous[field]
		to := current[field]
		if !equalJSON(from, to) {
			diff[field] = FieldChange{From: from, To: to}
		}
	}
	return diff
}

func diffCategorySets(previous, current []CategoryStub) (added, removed []CategoryStub) {
	prevKeys := indexCategories(previous)
	currKeys := indexCategories(current)

	added = []CategoryStub{}
	removed = []CategoryStub{}

	for _, item := range uniqueCategories(current) {
		if _, ok := prevKeys[categoryKey(item)]; !ok {
			added = append(added, item)
		}
	}
	for _, item := range uniqueCategories(previous) {
		if _, ok := currKeys[categoryKey(item)]; !ok {
			removed = append(removed, item)
		}
	}
	return added, removed
}

func categoryKey(c CategoryStub) string {
	if c.Slug != "" {
		return c.Slug
	}
	return c.ID.String()
}

func indexCategories(items []CategoryStub) map[string]struct{} {
	keys := make(map[string]struct{}, len(items))
	for _, item := range items {
		keys[categoryKey(item)] = struct{}{}
	}
	return keys
}

func uniqueCategories(items []CategoryStub) []CategoryStub {
	seen := make(map[string]struct{}, len(items))
	out := make([]CategoryStub, 0, len(items))
	for _, item := range items {
		key := categoryKey(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// categoryValues flattens a snapshot into plain values; nil pointers become nil.
func categoryValues(s *CategorySnapshot) map[string]interface{} {
	if s == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}{
		"name":             stringValue(s.Name),
		"slug":             stringValue(s.Slug),
		"description":      stringValue(s.Description),
		"visibility":       stringValue(s.Visibility),
		"sort_rank":        intValue(s.SortRank),
		"workflow_status":  stringValue(s.WorkflowStatus),
		"value_per_points": s.ValuePerPoints,
	}
}

func collectionValues(s *CollectionSnapshot) map[string]interface{} {
	if s == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}{
		"name":             stringValue(s.Name),
		"slug":             stringValue(s.Slug),
		"tagline":          stringValue(s.Tagline),
		"description":      stringValue(s.Description),
		"visibility":       stringValue(s.Visibility),
		"sort_rank":        intValue(s.SortRank),
		"scheduled_start":  stringValue(s.ScheduledStart),
		"scheduled_end":    stringValue(s.ScheduledEnd),
		"workflow_status":  stringValue(s.WorkflowStatus),
		"value_per_points": s.ValuePerPoints,
	}
}

func stringValue(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func intValue(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

// equalJSON compares canonical encodings, so a nil list differs from an empty one.
func equalJSON(a, b interface{}) bool {
	left, errA := json.Marshal(a)
	right, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(left, right)
}
