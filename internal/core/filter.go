// ABOUTME: Filter narrows analyzed rows by topic, subtopic, category and region
// ABOUTME: Facets counts rows per value for building filter menus and summaries
package core

import (
	"sort"

	"github.com/harper/topicmap/internal/models"
)

// Filter selects rows whose fields equal every non-empty criterion
type Filter struct {
	Topic    string `json:"topic,omitempty"`
	SubTopic string `json:"subTopic,omitempty"`
	Category string `json:"category,omitempty"`
	Region   string `json:"region,omitempty"`
}

// IsEmpty reports whether the filter has no criteria
func (f Filter) IsEmpty() bool {
	return f == Filter{}
}

// Match reports whether r satisfies the filter
func (f Filter) Match(r models.AssignedRecord) bool {
	if f.Topic != "" && r.Topic != f.Topic {
		return false
	}
	if f.SubTopic != "" && r.SubTopic != f.SubTopic {
		return false
	}
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.Region != "" && r.Region != f.Region {
		return false
	}
	return true
}

// Apply returns the matching rows in their original order
func (f Filter) Apply(rows []models.AssignedRecord) []models.AssignedRecord {
	out := make([]models.AssignedRecord, 0, len(rows))
	for _, r := range rows {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Count is a value with the number of rows carrying it
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// FacetSet summarizes row counts per filterable field
type FacetSet struct {
	Topics     []Count            `json:"topics"`
	SubTopics  map[string][]Count `json:"subTopics"`
	Categories []Count            `json:"categories,omitempty"`
	Regions    []Count            `json:"regions,omitempty"`
	Sentinels  int                `json:"sentinels"`
}

// Facets computes counts over rows. Topics and subtopics keep first-seen order,
// categories are sorted by descending count and regions by value.
func Facets(rows []models.AssignedRecord) FacetSet {
	fs := FacetSet{SubTopics: make(map[string][]Count)}

	topicIdx := make(map[string]int)
	subIdx := make(map[string]map[string]int)
	categories := make(map[string]int)
	regions := make(map[string]int)

	for _, r := range rows {
		if r.IsSentinel() {
			fs.Sentinels++
		}

		if i, ok := topicIdx[r.Topic]; ok {
			fs.Topics[i].Count++
		} else {
			topicIdx[r.Topic] = len(fs.Topics)
			fs.Topics = append(fs.Topics, Count{Value: r.Topic, Count: 1})
			subIdx[r.Topic] = make(map[string]int)
		}

		subs := subIdx[r.Topic]
		if i, ok := subs[r.SubTopic]; ok {
			fs.SubTopics[r.Topic][i].Count++
		} else {
			subs[r.SubTopic] = len(fs.SubTopics[r.Topic])
			fs.SubTopics[r.Topic] = append(fs.SubTopics[r.Topic], Count{Value: r.SubTopic, Count: 1})
		}

		if r.Category != "" {
			categories[r.Category]++
		}
		if r.Region != "" {
			regions[r.Region]++
		}
	}

	fs.Categories = toCounts(categories)
	sort.SliceStable(fs.Categories, func(i, j int) bool {
		if fs.Categories[i].Count != fs.Categories[j].Count {
			return fs.Categories[i].Count > fs.Categories[j].Count
		}
		return fs.Categories[i].Value < fs.Categories[j].Value
	})

	fs.Regions = toCounts(regions)
	sort.Slice(fs.Regions, func(i, j int) bool {
		return fs.Regions[i].Value < fs.Regions[j].Value
	})

	return fs
}

func toCounts(m map[string]int) []Count {
	if len(m) == 0 {
		return nil
	}
	out := make([]Count, 0, len(m))
	for v, n := range m {
		out = append(out, Count{Value: v, Count: n})
	}
	return out
}
