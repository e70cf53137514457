package classify

import (
	"strings"

	"github.com/poiesic/litscreen/core"
)

// DefaultSubject is the review topic named in the oracle prompts.
const DefaultSubject = "prostate cancer"

// DefaultExclusionCriteria are the reasons a prostate cancer screening
// review excludes a document.
var DefaultExclusionCriteria = []string{
	"Not Prostate Cancer/ irrelevant/ not related to study objective",
	"Treatment/ management/ diagnosis",
	"Not by country health authorities or medical organisation",
	"Not research study objectives - ie not prostate cancer-related or decision aid or guideline or programme related to prostate cancer",
	"Management and/or treatment",
}

// DefaultInclusionCriteria are the reasons the same review includes one.
var DefaultInclusionCriteria = []string{
	"Clinical trials with human subjects",
	"Studies reporting treatment outcomes",
	"Research on prostate cancer biomarkers",
	"Meta-analyses of prostate cancer interventions",
	"Studies on quality of life in prostate cancer patients",
	"Research on prostate cancer screening methods",
}

// Criteria holds the review subject and the fixed criteria list for each mode.
type Criteria struct {
	Subject   string   `yaml:"subject"`
	Exclusion []string `yaml:"exclusion"`
	Inclusion []string `yaml:"inclusion"`
}

// DefaultCriteria returns copies of the default lists.
func DefaultCriteria() Criteria {
	return Criteria{
		Subject:   DefaultSubject,
		Exclusion: append([]string(nil), DefaultExclusionCriteria...),
		Inclusion: append([]string(nil), DefaultInclusionCriteria...),
	}
}

// For returns the list used for mode.
func (c Criteria) For(mode core.ClassificationMode) []string {
	if mode == core.ModeInclusion {
		return c.Inclusion
	}
	return c.Exclusion
}

// SubjectOrDefault returns Subject, or DefaultSubject when it is blank.
func (c Criteria) SubjectOrDefault() string {
	return subjectOrDefault(c.Subject)
}

func subjectOrDefault(subject string) string {
	if s := strings.TrimSpace(subject); s != "" {
		return s
	}
	return DefaultSubject
}
