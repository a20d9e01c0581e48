// Package studio holds the authoring side of quizzes: YAML definitions,
// lint checks for result coverage, and starter templates.
package studio

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"persona-quiz-service/internal/domain"
	"gopkg.in/yaml.v3"
)

// Definition is the on-disk form of a quiz.
type Definition struct {
	ID           string               `yaml:"id,omitempty"`
	Title        string               `yaml:"title"`
	Description  string               `yaml:"description,omitempty"`
	ThumbnailURL string               `yaml:"thumbnail_url,omitempty"`
	ThemeColor   string               `yaml:"theme_color,omitempty"`
	Mode         string               `yaml:"mode"`
	Questions    []QuestionDefinition `yaml:"questions"`
	Results      []ResultDefinition   `yaml:"results"`
}

type QuestionDefinition struct {
	Content  string             `yaml:"content"`
	ImageURL string             `yaml:"image_url,omitempty"`
	Options  []OptionDefinition `yaml:"options"`
}

type OptionDefinition struct {
	Content   string `yaml:"content"`
	Weight    int    `yaml:"weight,omitempty"`
	Indicator string `yaml:"indicator,omitempty"`
}

type ResultDefinition struct {
	Code        string `yaml:"code,omitempty"`
	MinScore    int    `yaml:"min_score,omitempty"`
	MaxScore    int    `yaml:"max_score,omitempty"`
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	ImageURL    string `yaml:"image_url,omitempty"`
}

const defaultThemeColor = "#8b5cf6"

// ReadDefinition parses a YAML quiz definition from r.
func ReadDefinition(r io.Reader) (domain.Quiz, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Quiz{}, err
	}
	return ParseDefinition(data)
}

// ParseDefinition converts YAML into a quiz. Questions take their list
// position as order index; blank questions and untitled results are
// dropped, matching what the editor saves.
func ParseDefinition(data []byte) (domain.Quiz, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return domain.Quiz{}, fmt.Errorf("parse definition: %w", err)
	}
	return def.Quiz()
}

// Quiz validates the definition and returns the domain form.
func (d Definition) Quiz() (domain.Quiz, error) {
	if strings.TrimSpace(d.Title) == "" {
		return domain.Quiz{}, fmt.Errorf("%w: title is required", domain.ErrMalformedQuiz)
	}
	mode, err := domain.ParseScoringMode(d.Mode)
	if err != nil {
		return domain.Quiz{}, err
	}
	theme := d.ThemeColor
	if theme == "" {
		theme = defaultThemeColor
	}

	quiz := domain.Quiz{
		Test: domain.Test{
			ID:           d.ID,
			Title:        strings.TrimSpace(d.Title),
			Description:  d.Description,
			ThumbnailURL: d.ThumbnailURL,
			ThemeColor:   theme,
			Mode:         mode,
		},
	}
	for i, qd := range d.Questions {
		if strings.TrimSpace(qd.Content) == "" {
			continue
		}
		q := domain.Question{
			TestID:     d.ID,
			OrderIndex: i,
			Content:    strings.TrimSpace(qd.Content),
			ImageURL:   qd.ImageURL,
		}
		for j, od := range qd.Options {
			ind, err := domain.ParseIndicator(od.Indicator)
			if err != nil {
				return domain.Quiz{}, fmt.Errorf("question %d option %d: %w", i+1, j+1, err)
			}
			q.Options = append(q.Options, domain.Option{
				OrderIndex:  j,
				Content:     od.Content,
				ScoreWeight: od.Weight,
				Indicator:   ind,
			})
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	for _, rd := range d.Results {
		if strings.TrimSpace(rd.Title) == "" {
			continue
		}
		quiz.Results = append(quiz.Results, domain.Result{
			TestID:      d.ID,
			MBTICode:    strings.ToUpper(strings.TrimSpace(rd.Code)),
			MinScore:    rd.MinScore,
			MaxScore:    rd.MaxScore,
			Title:       strings.TrimSpace(rd.Title),
			Description: rd.Description,
			ImageURL:    rd.ImageURL,
		})
	}
	return quiz, nil
}

// NewDefinition converts a quiz back into its YAML form.
func NewDefinition(quiz domain.Quiz) Definition {
	def := Definition{
		ID:           quiz.Test.ID,
		Title:        quiz.Test.Title,
		Description:  quiz.Test.Description,
		ThumbnailURL: quiz.Test.ThumbnailURL,
		ThemeColor:   quiz.Test.ThemeColor,
		Mode:         string(quiz.Test.Mode),
	}
	for _, q := range quiz.Questions {
		qd := QuestionDefinition{Content: q.Content, ImageURL: q.ImageURL}
		for _, o := range q.Options {
			qd.Options = append(qd.Options, OptionDefinition{
				Content:   o.Content,
				Weight:    o.ScoreWeight,
				Indicator: string(o.Indicator),
			})
		}
		def.Questions = append(def.Questions, qd)
	}
	for _, r := range quiz.Results {
		def.Results = append(def.Results, ResultDefinition{
			Code:        r.MBTICode,
			MinScore:    r.MinScore,
			MaxScore:    r.MaxScore,
			Title:       r.Title,
			Description: r.Description,
			ImageURL:    r.ImageURL,
		})
	}
	return def
}

// MarshalDefinition encodes quiz as YAML.
func MarshalDefinition(quiz domain.Quiz) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(NewDefinition(quiz)); err != nil {
		return nil, fmt.Errorf("encode definition: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
