// ABOUTME: Scoring for the topic assignment benchmark
// ABOUTME: Coverage counts non-sentinel rows; agreement compares label pairs against topic pairs

package eval

import (
	"fmt"

	"github.com/harper/topicmap/internal/models"
)

// Result is the outcome of one scenario
type Result struct {
	ScenarioID    string                 `json:"scenario_id"`
	ScenarioName  string                 `json:"scenario_name"`
	Rows          int                    `json:"rows"`
	Topics        int                    `json:"topics"`
	Coverage      float64                `json:"coverage"`
	Agreement     float64                `json:"agreement"`
	CatchAllShare float64                `json:"catch_all_share"`
	FailedRows    int                    `json:"failed_rows"`
	AssignCalls   int                    `json:"assign_calls"`
	ChunkFailures int                    `json:"chunk_failures"`
	Status        string                 `json:"status"`
	Details       map[string]interface{} `json:"details,omitempty"`
}

// Coverage is the share of rows that received a real topic
func Coverage(rows []models.AssignedRecord) float64 {
	if len(rows) == 0 {
		return 0
	}
	assigned := 0
	for _, r := range rows {
		if !r.IsSentinel() {
			assigned++
		}
	}
	return float64(assigned) / float64(len(rows))
}

// CatchAllShare is the share of rows filed under the catch-all topic
func CatchAllShare(rows []models.AssignedRecord) float64 {
	if len(rows) == 0 {
		return 0
	}
	n := 0
	for _, r := range rows {
		if r.Topic == models.CatchAllTopicName {
			n++
		}
	}
	return float64(n) / float64(len(rows))
}

// PairAgreement is the Rand index between human labels and assigned topics:
// the share of text pairs on which both agree about "same group" or "different group".
// Topic names never need to match label names.
func PairAgreement(labels, topics []string) (float64, error) {
	if len(labels) != len(topics) {
		return 0, fmt.Errorf("label count %d does not match topic count %d", len(labels), len(topics))
	}
	n := len(labels)
	if n < 2 {
		return 1, nil
	}
	agree, pairs := 0, 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sameLabel := labels[i] == labels[j]
			sameTopic := topics[i] == topics[j]
			if sameLabel == sameTopic {
				agree++
			}
			pairs++
		}
	}
	return float64(agree) / float64(pairs), nil
}

// Evaluate scores a classified scenario. rows must be aligned with s.Items.
func Evaluate(s Scenario, session *models.Session, calls callStats) (Result, error) {
	rows := session.Rows
	if len(rows) != len(s.Items) {
		return Result{}, fmt.Errorf("scenario %s: got %d rows for %d texts", s.ID, len(rows), len(s.Items))
	}

	labels := make([]string, len(rows))
	topics := make([]string, len(rows))
	for i, r := range rows {
		labels[i] = s.Items[i].Label
		topics[i] = r.Topic
	}
	agreement, err := PairAgreement(labels, topics)
	if err != nil {
		return Result{}, err
	}

	stats := session.Stats()
	res := Result{
		ScenarioID:    s.ID,
		ScenarioName:  s.Name,
		Rows:          len(rows),
		Topics:        len(session.Topics),
		Coverage:      Coverage(rows),
		Agreement:     agreement,
		CatchAllShare: CatchAllShare(rows),
		FailedRows:    stats.Failed,
		AssignCalls:   calls.assignCalls,
		ChunkFailures: calls.assignErrors,
		Status:        "FAIL",
		Details: map[string]interface{}{
			"confusion": confusion(labels, topics),
		},
	}

	th := s.thresholds()
	if res.Coverage >= th.Coverage && res.Agreement >= th.Agreement {
		res.Status = "PASS"
	}
	return res, nil
}

// confusion counts assigned topics per label
func confusion(labels, topics []string) map[string]map[string]int {
	out := make(map[string]map[string]int)
	for i, label := range labels {
		if out[label] == nil {
			out[label] = make(map[string]int)
		}
		out[label][topics[i]]++
	}
	return out
}
