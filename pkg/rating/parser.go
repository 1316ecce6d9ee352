package rating

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrRatingParseFailure is returned when the accumulated buffer is not text.
var ErrRatingParseFailure = errors.New("rating response is not valid text")

const (
	sectionSeparator  = "\n\n"
	feedbackDelimiter = "\nFeedback: "
	scoreDelimiter    = ": "
)

// Result is the typed form of a scored feedback block.
type Result struct {
	Scores       map[string]int    `json:"scores"`
	Feedback     map[string]string `json:"feedback"`
	OverallScore int               `json:"overall_score"`
}

// Parse converts the concatenated fragments of a rating stream into a Result.
//
// The buffer is a sequence of blank-line separated sections shaped like
//
//	Curiosity: 80/100
//	Feedback: Good questions.
//
// Sections that do not match are skipped. OverallScore is the rounded mean of
// the parsed scores, or 0 when none parsed.
func Parse(buf []byte) (*Result, error) {
	if !utf8.Valid(buf) {
		return nil, ErrRatingParseFailure
	}

	result := &Result{
		Scores:   make(map[string]int),
		Feedback: make(map[string]string),
	}

	sum, count := 0, 0
	for _, section := range strings.Split(string(buf), sectionSeparator) {
		category, score, feedback, ok := parseSection(section)
		if !ok {
			continue
		}
		result.Scores[category] = score
		result.Feedback[category] = feedback
		sum += score
		count++
	}

	if count > 0 {
		result.OverallScore = int(math.Floor(float64(sum)/float64(count) + 0.5))
	}
	return result, nil
}

// ParseString is Parse for an already decoded string.
func ParseString(s string) (*Result, error) {
	return Parse([]byte(s))
}

func parseSection(section string) (category string, score int, feedback string, ok bool) {
	header, feedback, found := strings.Cut(section, feedbackDelimiter)
	if !found || header == "" || feedback == "" {
		return "", 0, "", false
	}

	category, scoreField, found := strings.Cut(header, scoreDelimiter)
	if !found || category == "" || scoreField == "" {
		return "", 0, "", false
	}

	category = strings.ToLower(strings.TrimSpace(category))
	raw, _, _ := strings.Cut(scoreField, "/")
	score, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return "", 0, "", false
	}

	return category, score, strings.TrimSpace(feedback), true
}
