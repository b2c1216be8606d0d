// Package assessments implements the diagnostic questionnaires: the static
// domain/question catalog, the per-project assessment lifecycle, score
// storage, aggregation and exports.
package assessments

// Question is one catalog entry. IDs are stable across releases; scores
// reference them.
type Question struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Domain is one thematic question grouping of the diagnostic.
type Domain struct {
	Slug      string     `json:"slug"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// catalog is the fixed set of domains. Order matters: summaries and exports
// follow it.
var catalog = []Domain{
	{
		Slug: "purpose",
		Name: "Purpose & Strategy",
		Questions: []Question{
			{ID: "purpose_1", Text: "The organization has a clearly articulated impact goal."},
			{ID: "purpose_2", Text: "Strategy decisions are evaluated against the impact goal."},
			{ID: "purpose_3", Text: "Programs have an explicit theory of change."},
			{ID: "purpose_4", Text: "Intended outcomes are defined before new work begins."},
			{ID: "purpose_5", Text: "The impact goal is reviewed and updated on a regular cycle."},
		},
	},
	{
		Slug: "leadership",
		Name: "Leadership & Culture",
		Questions: []Question{
			{ID: "leadership_1", Text: "Leadership visibly champions impact measurement."},
			{ID: "leadership_2", Text: "Impact results influence board-level decisions."},
			{ID: "leadership_3", Text: "Staff at all levels can describe the organization's intended impact."},
			{ID: "leadership_4", Text: "Negative or null results are discussed openly."},
		},
	},
	{
		Slug: "measurement",
		Name: "Data & Measurement",
		Questions: []Question{
			{ID: "measurement_1", Text: "Each program tracks indicators tied to its intended outcomes."},
			{ID: "measurement_2", Text: "Data collection methods are documented and consistent."},
			{ID: "measurement_3", Text: "Baseline data exists for key indicators."},
			{ID: "measurement_4", Text: "Data quality is checked before results are reported."},
			{ID: "measurement_5", Text: "Outcome data is disaggregated by the groups served."},
		},
	},
	{
		Slug: "stakeholders",
		Name: "Stakeholder Engagement",
		Questions: []Question{
			{ID: "stakeholders_1", Text: "The people served help define what success looks like."},
			{ID: "stakeholders_2", Text: "Feedback from the people served is collected systematically."},
			{ID: "stakeholders_3", Text: "Results are reported back to the communities involved."},
			{ID: "stakeholders_4", Text: "Funders receive impact reporting beyond activity counts."},
		},
	},
	{
		Slug: "operations",
		Name: "Operations & Delivery",
		Questions: []Question{
			{ID: "operations_1", Text: "Program delivery data is captured close to the point of service."},
			{ID: "operations_2", Text: "Operational resources are allocated using evidence of what works."},
			{ID: "operations_3", Text: "Roles for measurement work are defined and staffed."},
			{ID: "operations_4", Text: "Measurement effort is proportionate to program size."},
		},
	},
	{
		Slug: "learning",
		Name: "Learning & Adaptation",
		Questions: []Question{
			{ID: "learning_1", Text: "Programs are adapted based on measured results."},
			{ID: "learning_2", Text: "Learning reviews happen on a defined schedule."},
			{ID: "learning_3", Text: "Lessons from one program inform the design of others."},
			{ID: "learning_4", Text: "Evaluation findings are shared outside the organization."},
		},
	},
}

// Catalog returns the full domain list, in presentation order.
func Catalog() []Domain {
	return catalog
}

// DomainBySlug resolves a requested domain against the catalog. Unknown
// slugs return false; callers 404.
func DomainBySlug(slug string) (Domain, bool) {
	for _, d := range catalog {
		if d.Slug == slug {
			return d, true
		}
	}
	return Domain{}, false
}
