package assessments

// QuestionRow is one catalog question with the stored answer joined on, or
// nulls when unanswered.
type QuestionRow struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Score *int   `json:"score"`
	Notes string `json:"notes"`
}

// DomainView is the view model for one domain's assessment page.
type DomainView struct {
	Domain     string        `json:"domain"`
	DomainName string        `json:"domain_name"`
	Assessment *Assessment   `json:"assessment"`
	Questions  []QuestionRow `json:"questions"`
}

// BuildDomainView left-joins stored scores onto the domain's question
// catalog by question id; missing answers default to a nil score and empty
// notes.
func BuildDomainView(d Domain, a *Assessment, scores []Score) DomainView {
	byQuestion := make(map[string]Score, len(scores))
	for _, s := range scores {
		byQuestion[s.QuestionID] = s
	}

	rows := make([]QuestionRow, 0, len(d.Questions))
	for _, q := range d.Questions {
		row := QuestionRow{ID: q.ID, Text: q.Text}
		if s, ok := byQuestion[q.ID]; ok {
			v := s.Score
			row.Score = &v
			row.Notes = s.Notes
		}
		rows = append(rows, row)
	}

	return DomainView{
		Domain:     d.Slug,
		DomainName: d.Name,
		Assessment: a,
		Questions:  rows,
	}
}

// DomainSummary is the aggregated score for one domain.
type DomainSummary struct {
	Domain     string   `json:"domain"`
	DomainName string   `json:"domain_name"`
	Answered   int      `json:"answered"`
	Total      int      `json:"total"`
	Average    *float64 `json:"average"`
}

// ScoreSummary aggregates a whole assessment: per-domain averages plus an
// overall average of the domain averages.
type ScoreSummary struct {
	Assessment *Assessment     `json:"assessment"`
	Domains    []DomainSummary `json:"domains"`
	Overall    *float64        `json:"overall"`
}

// BuildScoreSummary averages stored scores per catalog domain. Domains with
// no answers contribute nothing to the overall average.
func BuildScoreSummary(a *Assessment, scores []Score) ScoreSummary {
	type agg struct {
		sum   int
		count int
	}
	byDomain := make(map[string]*agg, len(catalog))
	for _, s := range scores {
		entry, ok := byDomain[s.Domain]
		if !ok {
			entry = &agg{}
			byDomain[s.Domain] = entry
		}
		entry.sum += s.Score
		entry.count++
	}

	out := ScoreSummary{Assessment: a}
	var overallSum float64
	var scored int
	for _, d := range catalog {
		ds := DomainSummary{
			Domain:     d.Slug,
			DomainName: d.Name,
			Total:      len(d.Questions),
		}
		if entry, ok := byDomain[d.Slug]; ok && entry.count > 0 {
			avg := float64(entry.sum) / float64(entry.count)
			ds.Answered = entry.count
			ds.Average = &avg
			overallSum += avg
			scored++
		}
		out.Domains = append(out.Domains, ds)
	}

	if scored > 0 {
		overall := overallSum / float64(scored)
		out.Overall = &overall
	}
	return out
}
