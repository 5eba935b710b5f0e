package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/mager/species/species"
)

// Report is a stored analysis outcome.
type Report struct {
	ID      uuid.UUID `json:"id" firestore:"-"`
	Student string    `json:"student,omitempty" firestore:"student"`
	Title   string    `json:"title,omitempty" firestore:"title"`
	// Species is 1 or 2.
	Species int `json:"species" firestore:"species"`
	// Findings are the rendered "At #<n>: <message>" lines in report order.
	Findings []string `json:"findings" firestore:"findings"`
	// Violations groups finding indices by category message.
	Violations map[string][]int `json:"violations" firestore:"violations"`
	Created    time.Time        `json:"created" firestore:"created"`
}

// Clean reports whether the analysis found nothing to correct.
func (r *Report) Clean() bool { return len(r.Findings) == 0 }

// New builds a report from analysis findings.
func New(student, title string, speciesNum int, findings []species.Finding) *Report {
	r := &Report{
		ID:         uuid.New(),
		Student:    student,
		Title:      title,
		Species:    speciesNum,
		Findings:   make([]string, 0, len(findings)),
		Violations: map[string][]int{},
		Created:    time.Now().UTC(),
	}
	for _, f := range findings {
		r.Findings = append(r.Findings, f.String())
		msg := f.Category.String()
		r.Violations[msg] = append(r.Violations[msg], f.Index)
	}
	return r
}

// FromFindings rebuilds the violation index from rendered findings, as
// stored by the repository.
func FromFindings(r *Report) error {
	r.Violations = map[string][]int{}
	for _, s := range r.Findings {
		f, err := species.ParseFinding(s)
		if err != nil {
			return err
		}
		msg := f.Category.String()
		r.Violations[msg] = append(r.Violations[msg], f.Index)
	}
	return nil
}
