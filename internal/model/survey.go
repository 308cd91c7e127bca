package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptySchema      = errors.New("schema has no sections")
	ErrInvalidScale     = errors.New("scale min must be below max")
	ErrEmptySection     = errors.New("section has no questions")
	ErrUnnamedSection   = errors.New("section has no name")
	ErrDuplicateSection = errors.New("duplicate section name")
)

// Scale is the Likert response range shared by every question
type Scale struct {
	Min    int      `json:"min" yaml:"min"`
	Max    int      `json:"max" yaml:"max"`
	Labels []string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// Contains reports whether v is a valid answer on the scale
func (s Scale) Contains(v int) bool {
	return v >= s.Min && v <= s.Max
}

// Section is a named thematic group of questions
type Section struct {
	Name      string   `json:"name" yaml:"name"`
	Questions []string `json:"questions" yaml:"questions"`
}

// Schema is the fixed question layout of a survey.
// Question order is positional: response slot i always answers question i.
// A Schema is immutable after NewSchema returns.
type Schema struct {
	id       string
	title    string
	scale    Scale
	sections []Section
	offsets  []int // offsets[i] is the first response slot of section i
	total    int
}

// NewSchema validates and freezes a schema
func NewSchema(id, title string, scale Scale, sections ...Section) (*Schema, error) {
	if scale.Min >= scale.Max {
		return nil, ErrInvalidScale
	}
	if len(sections) == 0 {
		return nil, ErrEmptySchema
	}

	s := &Schema{
		id:    id,
		title: title,
		scale: Scale{Min: scale.Min, Max: scale.Max, Labels: append([]string(nil), scale.Labels...)},
	}

	seen := make(map[string]bool, len(sections))
	for _, sec := range sections {
		name := strings.TrimSpace(sec.Name)
		if name == "" {
			return nil, ErrUnnamedSection
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSection, name)
		}
		if len(sec.Questions) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptySection, name)
		}
		seen[name] = true

		s.offsets = append(s.offsets, s.total)
		s.sections = append(s.sections, Section{
			Name:      name,
			Questions: append([]string(nil), sec.Questions...),
		})
		s.total += len(sec.Questions)
	}
	return s, nil
}

func (s *Schema) ID() string    { return s.id }
func (s *Schema) Title() string { return s.title }

// Scale returns a copy of the response scale
func (s *Schema) Scale() Scale {
	return Scale{Min: s.scale.Min, Max: s.scale.Max, Labels: append([]string(nil), s.scale.Labels...)}
}

// NumSections returns the number of sections
func (s *Schema) NumSections() int { return len(s.sections) }

// Section returns a copy of section i
func (s *Schema) Section(i int) Section {
	sec := s.sections[i]
	return Section{Name: sec.Name, Questions: append([]string(nil), sec.Questions...)}
}

// Sections returns a copy of all sections in declared order
func (s *Schema) Sections() []Section {
	out := make([]Section, len(s.sections))
	for i := range s.sections {
		out[i] = s.Section(i)
	}
	return out
}

// QuestionCount is the number of response slots every record must carry
func (s *Schema) QuestionCount() int { return s.total }

// SectionRange returns the half-open slot range [start, end) of section i.
// Ranges come from summing question counts in declared order.
func (s *Schema) SectionRange(i int) (start, end int) {
	start = s.offsets[i]
	return start, start + len(s.sections[i].Questions)
}

// Headers returns the "<Section>: <Question>" column labels in slot order
func (s *Schema) Headers() []string {
	headers := make([]string, 0, s.total)
	for _, sec := range s.sections {
		for _, q := range sec.Questions {
			headers = append(headers, sec.Name+": "+q)
		}
	}
	return headers
}

// MarshalJSON exposes the layout to clients rendering the questionnaire
func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Scale     Scale     `json:"scale"`
		Sections  []Section `json:"sections"`
		Questions int       `json:"questionCount"`
	}{s.id, s.title, s.Scale(), s.Sections(), s.total})
}

// DefaultScale is the 4-point agreement scale
func DefaultScale() Scale {
	return Scale{
		Min: 1,
		Max: 4,
		Labels: []string{
			"1 - Strongly Disagree",
			"2 - Disagree",
			"3 - Agree",
			"4 - Strongly Agree",
		},
	}
}

// DefaultSchema builds the AI tools and academic performance questionnaire
func DefaultSchema() *Schema {
	s, err := NewSchema("ai-academic", "AI Tools and Academic Performance Survey", DefaultScale(),
		Section{
			Name: "Academic Performance",
			Questions: []string{
				"AI tools have improved my academic grades.",
				"AI tools help me understand complex topics more easily.",
				"AI tools help me complete assignments faster.",
				"AI tools enhance the quality of my academic work.",
				"AI tools make exam preparation easier.",
				"AI tools assist me in solving difficult problems.",
				"AI tools increase my efficiency in doing academic tasks.",
				"AI tools have contributed positively to my overall academic standing.",
			},
		},
		Section{
			Name: "Class Engagement",
			Questions: []string{
				"AI tools help me participate more actively in class discussions.",
				"AI tools give me confidence to answer during recitations.",
				"AI tools improve my contributions during group projects.",
				"AI tools assist me in preparing for class presentations.",
				"AI tools encourage me to ask more questions to my instructors.",
				"AI tools improve my collaboration with classmates.",
				"AI tools help me communicate my ideas better during class activities.",
			},
		},
		Section{
			Name: "Personal Opinions on AI",
			Questions: []string{
				"AI tools make learning more enjoyable.",
				"AI tools should be integrated into formal education systems.",
				"The use of AI tools should have clear ethical guidelines.",
				"Over-reliance on AI tools can negatively affect critical thinking skills.",
				"AI tools help develop new skills that are important for the future.",
				"AI tools should be limited during exams and quizzes.",
				"AI tools are essential for modern students' success.",
				"I believe AI tools will continue to shape the future of education.",
			},
		},
	)
	if err != nil {
		panic(err) // static definition
	}
	return s
}
