package assessments

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// RenderNotes formats the notes export: entries grouped by domain in
// catalog order, each group headed by the domain name in upper case,
// entries numbered within the group. Empty input renders nothing (the UI
// shows no export control).
func RenderNotes(projectName string, entries []NotesEntry) string {
	if len(entries) == 0 {
		return ""
	}

	byDomain := make(map[string][]NotesEntry)
	for _, e := range entries {
		byDomain[e.Domain] = append(byDomain[e.Domain], e)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Assessment notes — %s\n", projectName)

	for _, d := range catalog {
		group := byDomain[d.Slug]
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s\n", strings.ToUpper(d.Name))
		for i, e := range group {
			fmt.Fprintf(&b, "%d. %s\n", i+1, e.Notes)
		}
	}
	return b.String()
}

// RenderScoresCSV renders every stored score as CSV in catalog order, one
// row per question, unanswered questions blank.
func RenderScoresCSV(projectName string, scores []Score) ([]byte, error) {
	byQuestion := make(map[string]Score, len(scores))
	for _, s := range scores {
		byQuestion[s.QuestionID] = s
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"project", "domain", "question_id", "question", "score", "notes"}); err != nil {
		return nil, err
	}

	for _, d := range catalog {
		for _, q := range d.Questions {
			record := []string{projectName, d.Name, q.ID, q.Text, "", ""}
			if s, ok := byQuestion[q.ID]; ok {
				record[4] = strconv.Itoa(s.Score)
				record[5] = s.Notes
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
