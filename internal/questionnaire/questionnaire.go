package questionnaire

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed phq9.yaml
var defaultPHQ9 []byte

// Question is a single item of the questionnaire (0-based Index).
type Question struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Option is one choice of the answer scale.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value int    `json:"value" yaml:"value"`
}

// Band maps a score range to a severity. A band covers every score above the
// previous band's Max up to and including its own Max.
type Band struct {
	Max   int    `yaml:"max"`
	Level string `yaml:"level"`
	Label string `yaml:"label"`
}

// Questionnaire is an immutable questionnaire definition.
type Questionnaire struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	Options   []Option   `json:"options"`
	Bands     []Band     `json:"-"`

	byText  map[string]int
	byLabel map[string]int
	values  map[int]bool
	max     int
}

type document struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title"`
	Questions []string `yaml:"questions"`
	Options   []Option `yaml:"options"`
	Bands     []Band   `yaml:"bands"`
}

// Default returns the built-in PHQ-9 definition.
func Default() *Questionnaire {
	q, err := Parse(defaultPHQ9)
	if err != nil {
		panic(fmt.Sprintf("questionnaire: embedded PHQ-9 is invalid: %v", err))
	}
	return q
}

// Load reads a YAML definition from path. An empty path yields Default().
func Load(path string) (*Questionnaire, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questionnaire %s: %w", path, err)
	}
	q, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("questionnaire %s: %w", path, err)
	}
	return q, nil
}

// Parse decodes and validates a YAML definition.
func Parse(data []byte) (*Questionnaire, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("id is required")
	}
	if len(doc.Questions) == 0 {
		return nil, fmt.Errorf("at least one question is required")
	}
	if len(doc.Options) < 2 {
		return nil, fmt.Errorf("at least two options are required")
	}

	q := &Questionnaire{
		ID:      doc.ID,
		Title:   doc.Title,
		Options: doc.Options,
		byText:  make(map[string]int, len(doc.Questions)),
		byLabel: make(map[string]int, len(doc.Options)),
		values:  make(map[int]bool, len(doc.Options)),
	}

	for i, text := range doc.Questions {
		key := normalize(text)
		if key == "" {
			return nil, fmt.Errorf("question %d is empty", i+1)
		}
		if _, dup := q.byText[key]; dup {
			return nil, fmt.Errorf("question %d duplicates an earlier question", i+1)
		}
		q.byText[key] = i
		q.Questions = append(q.Questions, Question{Index: i, Text: text})
	}

	maxValue := 0
	for i, opt := range doc.Options {
		if opt.Value < 0 {
			return nil, fmt.Errorf("option %d has a negative value", i+1)
		}
		if q.values[opt.Value] {
			return nil, fmt.Errorf("option value %d is used twice", opt.Value)
		}
		q.values[opt.Value] = true
		if label := normalize(opt.Label); label != "" {
			q.byLabel[label] = opt.Value
		}
		if opt.Value > maxValue {
			maxValue = opt.Value
		}
	}
	q.max = maxValue * len(q.Questions)

	if len(doc.Bands) == 0 {
		return nil, fmt.Errorf("at least one severity band is required")
	}
	bands := append([]Band(nil), doc.Bands...)
	sort.SliceStable(bands, func(i, j int) bool { return bands[i].Max < bands[j].Max })
	for i := 1; i < len(bands); i++ {
		if bands[i].Max == bands[i-1].Max {
			return nil, fmt.Errorf("bands %q and %q share max %d", bands[i-1].Level, bands[i].Level, bands[i].Max)
		}
	}
	if last := bands[len(bands)-1]; last.Max < q.max {
		return nil, fmt.Errorf("band %q ends at %d but scores reach %d", last.Level, last.Max, q.max)
	}
	q.Bands = bands

	return q, nil
}

// MaxScore is the highest reachable total.
func (q *Questionnaire) MaxScore() int { return q.max }

// Len is the number of questions.
func (q *Questionnaire) Len() int { return len(q.Questions) }
