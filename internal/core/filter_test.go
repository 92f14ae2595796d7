// ABOUTME: Tests for row filtering and facet counts
// ABOUTME: Covers AND semantics, order preservation and facet sorting
package core

import (
	"testing"

	"github.com/harper/topicmap/internal/models"
)

func filterRows() []models.AssignedRecord {
	return []models.AssignedRecord{
		{ID: "row-0", Topic: "Delivery", SubTopic: "Speed", Category: "Problem", Region: "Tokyo"},
		{ID: "row-1", Topic: "Support", SubTopic: "Kindness", Category: "Keep", Region: "Osaka"},
		{ID: "row-2", Topic: "Delivery", SubTopic: "Damage", Category: "Problem", Region: "Aichi"},
		{ID: "row-3", Topic: models.SentinelTopicError, SubTopic: models.SentinelRequestFailed, Category: "Try"},
		{ID: "row-4", Topic: "Delivery", SubTopic: "Speed", Category: "Keep", Region: "Tokyo"},
	}
}

func TestFilterApply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"empty", Filter{}, []string{"row-0", "row-1", "row-2", "row-3", "row-4"}},
		{"topic", Filter{Topic: "Delivery"}, []string{"row-0", "row-2", "row-4"}},
		{"topic and subtopic", Filter{Topic: "Delivery", SubTopic: "Speed"}, []string{"row-0", "row-4"}},
		{"category and region", Filter{Category: "Keep", Region: "Tokyo"}, []string{"row-4"}},
		{"no match", Filter{Topic: "Support", Region: "Tokyo"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(filterRows())
			if len(got) != len(tt.want) {
				t.Fatalf("got %d rows, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("row %d = %s, want %s", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
	if !(Filter{}).IsEmpty() || (Filter{Region: "x"}).IsEmpty() {
		t.Error("IsEmpty() wrong")
	}
}

func TestFacets(t *testing.T) {
	fs := Facets(filterRows())

	if fs.Sentinels != 1 {
		t.Errorf("Sentinels = %d, want 1", fs.Sentinels)
	}
	if len(fs.Topics) != 3 || fs.Topics[0] != (Count{"Delivery", 3}) || fs.Topics[1] != (Count{"Support", 1}) {
		t.Errorf("Topics = %+v", fs.Topics)
	}
	subs := fs.SubTopics["Delivery"]
	if len(subs) != 2 || subs[0] != (Count{"Speed", 2}) || subs[1] != (Count{"Damage", 1}) {
		t.Errorf("SubTopics[Delivery] = %+v", subs)
	}
	wantCats := []Count{{"Keep", 2}, {"Problem", 2}, {"Try", 1}}
	if len(fs.Categories) != len(wantCats) {
		t.Fatalf("Categories = %+v", fs.Categories)
	}
	for i := range wantCats {
		if fs.Categories[i] != wantCats[i] {
			t.Errorf("Categories = %+v, want %+v", fs.Categories, wantCats)
			break
		}
	}
	wantRegions := []Count{{"Aichi", 1}, {"Osaka", 1}, {"Tokyo", 2}}
	for i := range wantRegions {
		if fs.Regions[i] != wantRegions[i] {
			t.Errorf("Regions = %+v, want %+v", fs.Regions, wantRegions)
			break
		}
	}
}

func TestFacets_Empty(t *testing.T) {
	fs := Facets(nil)
	if len(fs.Topics) != 0 || fs.Categories != nil || fs.Regions != nil || fs.Sentinels != 0 {
		t.Errorf("Facets(nil) = %+v", fs)
	}
}
