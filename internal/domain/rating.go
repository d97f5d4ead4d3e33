package domain

import "fmt"

// Rating is the user's assessment of how well a card was recalled.
type Rating string

// Possible rating values
const (
	RatingAgain Rating = "again"
	RatingHard  Rating = "hard"
	RatingGood  Rating = "good"
	RatingEasy  Rating = "easy"
)

// AllRatings lists the ratings in grade order.
var AllRatings = []Rating{RatingAgain, RatingHard, RatingGood, RatingEasy}

// IsValid reports whether r is one of the four known ratings.
func (r Rating) IsValid() bool {
	return r.Grade() != 0
}

// Grade returns the numeric grade 1..4 used by the memory model, or 0 for
// an unknown rating.
func (r Rating) Grade() int {
	switch r {
	case RatingAgain:
		return 1
	case RatingHard:
		return 2
	case RatingGood:
		return 3
	case RatingEasy:
		return 4
	default:
		return 0
	}
}

// ParseRating converts a wire value into a Rating.
func ParseRating(s string) (Rating, error) {
	r := Rating(s)
	if !r.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRating, s)
	}
	return r, nil
}

// State is the position of a card in the memory-state machine.
type State string

// Card states
const (
	StateNew        State = "NEW"
	StateLearning   State = "LEARNING"
	StateReview     State = "REVIEW"
	StateRelearning State = "RELEARNING"
)

// IsValid reports whether s is a known state.
func (s State) IsValid() bool {
	switch s {
	case StateNew, StateLearning, StateReview, StateRelearning:
		return true
	default:
		return false
	}
}

// ContentType identifies what kind of study item a card schedules.
type ContentType string

// Content types
const (
	ContentTypeFlashcard     ContentType = "FLASHCARD"
	ContentTypeQuestion      ContentType = "QUESTION"
	ContentTypeErrorNotebook ContentType = "ERROR_NOTEBOOK"
)

// AllContentTypes lists every supported content type.
var AllContentTypes = []ContentType{
	ContentTypeFlashcard,
	ContentTypeQuestion,
	ContentTypeErrorNotebook,
}

// IsValid reports whether c is a known content type.
func (c ContentType) IsValid() bool {
	switch c {
	case ContentTypeFlashcard, ContentTypeQuestion, ContentTypeErrorNotebook:
		return true
	default:
		return false
	}
}

// ParseContentTypes converts wire values into content types, rejecting
// unknown entries.
func ParseContentTypes(values []string) ([]ContentType, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]ContentType, 0, len(values))
	for _, v := range values {
		ct := ContentType(v)
		if !ct.IsValid() {
			return nil, NewValidationError("content_types", fmt.Sprintf("contains unknown type %q", v), ErrInvalidContentType)
		}
		out = append(out, ct)
	}
	return out, nil
}
