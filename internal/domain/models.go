package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ScoringMode selects how a test turns answers into a result key.
type ScoringMode string

const (
	ModeScore ScoringMode = "score"
	ModeMBTI  ScoringMode = "mbti"
)

// ParseScoringMode normalizes raw input into a known scoring mode.
func ParseScoringMode(raw string) (ScoringMode, error) {
	switch ScoringMode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeScore:
		return ModeScore, nil
	case ModeMBTI:
		return ModeMBTI, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidScoringMode, raw)
}

// Indicator is a single MBTI letter carried by an option. The empty value
// marks an option that does not count toward any axis.
type Indicator string

const (
	IndicatorE Indicator = "E"
	IndicatorI Indicator = "I"
	IndicatorS Indicator = "S"
	IndicatorN Indicator = "N"
	IndicatorT Indicator = "T"
	IndicatorF Indicator = "F"
	IndicatorJ Indicator = "J"
	IndicatorP Indicator = "P"
)

// Axis is one personality dimension; First wins ties.
type Axis struct {
	First  Indicator
	Second Indicator
}

// Axes lists the four dimensions in the order their letters appear in a code.
var Axes = [4]Axis{
	{First: IndicatorE, Second: IndicatorI},
	{First: IndicatorS, Second: IndicatorN},
	{First: IndicatorT, Second: IndicatorF},
	{First: IndicatorJ, Second: IndicatorP},
}

// ParseIndicator accepts an empty string (no indicator) or one of the eight letters.
func ParseIndicator(raw string) (Indicator, error) {
	v := Indicator(strings.ToUpper(strings.TrimSpace(raw)))
	if v == "" || v.Valid() {
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidIndicator, raw)
}

// Valid reports whether i is one of the eight axis letters.
func (i Indicator) Valid() bool {
	for _, axis := range Axes {
		if i == axis.First || i == axis.Second {
			return true
		}
	}
	return false
}

// ValidMBTICode reports whether code has one letter from each axis in order.
func ValidMBTICode(code string) bool {
	if len(code) != len(Axes) {
		return false
	}
	for i, axis := range Axes {
		l := Indicator(code[i : i+1])
		if l != axis.First && l != axis.Second {
			return false
		}
	}
	return true
}

// AllMBTICodes enumerates the sixteen codes in axis order.
func AllMBTICodes() []string {
	codes := []string{""}
	for _, axis := range Axes {
		next := make([]string, 0, len(codes)*2)
		for _, prefix := range codes {
			next = append(next, prefix+string(axis.First), prefix+string(axis.Second))
		}
		codes = next
	}
	return codes
}

// Test is the authored quiz header.
type Test struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description,omitempty"`
	ThumbnailURL string      `json:"thumbnailUrl,omitempty"`
	ThemeColor   string      `json:"themeColor,omitempty"`
	Mode         ScoringMode `json:"mode"`
	ViewCount    int         `json:"viewCount"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// Option is a selectable answer. ScoreWeight is read in score mode and
// Indicator in mbti mode; the other field is ignored.
type Option struct {
	ID          string    `json:"id"`
	OrderIndex  int       `json:"orderIndex"`
	Content     string    `json:"content"`
	ScoreWeight int       `json:"scoreWeight"`
	Indicator   Indicator `json:"indicator,omitempty"`
}

// Question belongs to one test and is played in OrderIndex order.
type Question struct {
	ID         string   `json:"id"`
	TestID     string   `json:"testId"`
	OrderIndex int      `json:"orderIndex"`
	Content    string   `json:"content"`
	ImageURL   string   `json:"imageUrl,omitempty"`
	Options    []Option `json:"options"`
}

// Result is one outcome row. MBTI tests key it by MBTICode, score tests by
// the inclusive [MinScore, MaxScore] interval.
type Result struct {
	ID          string `json:"id"`
	TestID      string `json:"testId"`
	MBTICode    string `json:"mbtiCode,omitempty"`
	MinScore    int    `json:"minScore"`
	MaxScore    int    `json:"maxScore"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// Quiz bundles a test with its questions and result set.
type Quiz struct {
	Test      Test       `json:"test"`
	Questions []Question `json:"questions"`
	Results   []Result   `json:"results"`
}

// ResultKey is the finalized answer tally: an integer in score mode or a
// four-letter code in mbti mode.
type ResultKey struct {
	Mode  ScoringMode
	Score int
	Code  string
}

func ScoreKey(total int) ResultKey {
	return ResultKey{Mode: ModeScore, Score: total}
}

func CodeKey(code string) ResultKey {
	return ResultKey{Mode: ModeMBTI, Code: code}
}

// ParseResultKey builds a key from the raw query value used by result links.
func ParseResultKey(mode ScoringMode, raw string) (ResultKey, error) {
	raw = strings.TrimSpace(raw)
	switch mode {
	case ModeScore:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return ResultKey{}, fmt.Errorf("parse score %q: %w", raw, err)
		}
		return ScoreKey(n), nil
	case ModeMBTI:
		code := strings.ToUpper(raw)
		if !ValidMBTICode(code) {
			return ResultKey{}, fmt.Errorf("%w: code %q", ErrInvalidIndicator, raw)
		}
		return CodeKey(code), nil
	}
	return ResultKey{}, fmt.Errorf("%w: %q", ErrInvalidScoringMode, mode)
}

func (k ResultKey) String() string {
	if k.Mode == ModeMBTI {
		return k.Code
	}
	return strconv.Itoa(k.Score)
}

// MarshalJSON renders the key as a number (score) or string (mbti).
func (k ResultKey) MarshalJSON() ([]byte, error) {
	if k.Mode == ModeMBTI {
		return json.Marshal(k.Code)
	}
	return json.Marshal(k.Score)
}

// UnmarshalJSON accepts either representation produced by MarshalJSON.
func (k *ResultKey) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err == nil {
		*k = CodeKey(code)
		return nil
	}
	var score int
	if err := json.Unmarshal(data, &score); err != nil {
		return fmt.Errorf("result key: %w", err)
	}
	*k = ScoreKey(score)
	return nil
}

// Outcome is what a completed session hands to the caller. A nil Result
// means no row matched the key.
type Outcome struct {
	Key    ResultKey `json:"resultKey"`
	Result *Result   `json:"result"`
}

func (o Outcome) Found() bool {
	return o.Result != nil
}

// AnswerSubmission is a player's pick for the current question. QuestionID
// is optional; when set it must name the current question.
type AnswerSubmission struct {
	QuestionID string
	OptionID   string
}

// AnswerRecord is one applied answer in a session's log.
type AnswerRecord struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}
