package srs

import (
	"errors"
	"time"

	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// Common errors
var (
	ErrNilCard       = errors.New("card cannot be nil")
	ErrInvalidRating = errors.New("invalid review rating")
	ErrInvalidParams = errors.New("invalid scheduler parameters")
)

// Service defines the interface for memory model operations
type Service interface {
	// Schedule computes the card state after a review with the given rating.
	// The input card is not modified.
	Schedule(card *domain.Card, rating domain.Rating, now time.Time) (*domain.Card, error)

	// Preview returns the outcome of every rating without committing to one.
	Preview(card *domain.Card, now time.Time) (map[domain.Rating]*domain.Card, error)

	// Retrievability returns the estimated probability of recall at now.
	Retrievability(card *domain.Card, now time.Time) float64

	// InitialMemory returns the stability/difficulty given to NEW cards.
	InitialMemory() domain.InitialMemory
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
	model  model
}

// NewDefaultService creates a new memory model with default parameters
func NewDefaultService() Service {
	return NewServiceWithParams(NewDefaultParams())
}

// NewServiceWithParams creates a new memory model with custom parameters
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
		model:  newModel(params.Weights),
	}
}

// Schedule implements Service.
func (s *defaultService) Schedule(
	card *domain.Card,
	rating domain.Rating,
	now time.Time,
) (*domain.Card, error) {
	if card == nil {
		return nil, ErrNilCard
	}
	if !rating.IsValid() {
		return nil, ErrInvalidRating
	}

	now = now.UTC()
	next := card.Clone()

	switch card.State {
	case domain.StateNew:
		s.scheduleNew(next, rating, now)
	case domain.StateLearning, domain.StateRelearning:
		s.scheduleStep(next, rating, now)
	case domain.StateReview:
		s.scheduleReview(next, rating, now)
	default:
		return nil, domain.ErrInvalidState
	}

	next.Reps++
	next.LastReview = &now
	next.UpdatedAt = now

	return next, nil
}

// Preview implements Service.
func (s *defaultService) Preview(card *domain.Card, now time.Time) (map[domain.Rating]*domain.Card, error) {
	out := make(map[domain.Rating]*domain.Card, len(domain.AllRatings))
	for _, r := range domain.AllRatings {
		next, err := s.Schedule(card, r, now)
		if err != nil {
			return nil, err
		}
		out[r] = next
	}
	return out, nil
}

// Retrievability implements Service. NEW cards have not been seen and
// report 0.
func (s *defaultService) Retrievability(card *domain.Card, now time.Time) float64 {
	if card == nil || card.State == domain.StateNew || card.LastReview == nil {
		return 0
	}
	return s.model.retrievability(elapsedDays(*card.LastReview, now), card.Stability)
}

// InitialMemory implements Service. It is the memory a card would get on a
// first GOOD rating.
func (s *defaultService) InitialMemory() domain.InitialMemory {
	return domain.InitialMemory{
		Stability:  s.model.initStability(domain.RatingGood),
		Difficulty: s.model.initDifficulty(domain.RatingGood, true),
	}
}

func (s *defaultService) scheduleNew(c *domain.Card, r domain.Rating, now time.Time) {
	c.Stability = s.model.initStability(r)
	c.Difficulty = s.model.initDifficulty(r, true)

	steps := s.params.LearningSteps
	if len(steps) == 0 {
		s.graduate(c, now)
		return
	}

	c.State = domain.StateLearning
	switch r {
	case domain.RatingAgain:
		c.Step = 0
		c.Due = now.Add(steps[0])
	case domain.RatingHard:
		c.Step = 0
		c.Due = now.Add(hardStep(steps, 0))
	case domain.RatingGood:
		if len(steps) == 1 {
			s.graduate(c, now)
			return
		}
		c.Step = 1
		c.Due = now.Add(steps[1])
	case domain.RatingEasy:
		c.Step = len(steps)
		c.Due = now.Add(steps[len(steps)-1])
	}
}

func (s *defaultService) scheduleStep(c *domain.Card, r domain.Rating, now time.Time) {
	s.updateMemory(c, r, now)

	steps := s.params.LearningSteps
	if c.State == domain.StateRelearning {
		steps = s.params.RelearningSteps
	}
	if len(steps) == 0 {
		s.graduate(c, now)
		return
	}

	// Exhausted step counter: any passing grade graduates.
	if c.Step >= len(steps) && r != domain.RatingAgain {
		s.graduate(c, now)
		return
	}

	switch r {
	case domain.RatingAgain:
		c.Step = 0
		c.Due = now.Add(steps[0])
	case domain.RatingHard:
		c.Due = now.Add(hardStep(steps, c.Step))
	case domain.RatingGood:
		if c.Step+1 >= len(steps) {
			s.graduate(c, now)
			return
		}
		c.Step++
		c.Due = now.Add(steps[c.Step])
	case domain.RatingEasy:
		s.graduate(c, now)
	}
}

func (s *defaultService) scheduleReview(c *domain.Card, r domain.Rating, now time.Time) {
	s.updateMemory(c, r, now)

	if r == domain.RatingAgain {
		c.State = domain.StateRelearning
		c.Step = 0
		c.Lapses++
		c.Due = now.Add(s.params.RelearningSteps[0])
		return
	}

	s.graduate(c, now)
}

// updateMemory applies the stability/difficulty update for a card that has
// already been seen at least once.
func (s *defaultService) updateMemory(c *domain.Card, r domain.Rating, now time.Time) {
	elapsed := 0.0
	if c.LastReview != nil {
		elapsed = elapsedDays(*c.LastReview, now)
	}

	switch {
	case elapsed < 1:
		c.Stability = s.model.shortTermStability(c.Stability, r)
	case r == domain.RatingAgain:
		ret := s.model.retrievability(elapsed, c.Stability)
		c.Stability = s.model.forgetStability(c.Difficulty, c.Stability, ret)
	default:
		ret := s.model.retrievability(elapsed, c.Stability)
		c.Stability = s.model.recallStability(c.Difficulty, c.Stability, ret, r)
	}
	c.Difficulty = s.model.nextDifficulty(c.Difficulty, r)
}

// graduate moves the card into REVIEW with an interval derived from its
// stability and the desired retention.
func (s *defaultService) graduate(c *domain.Card, now time.Time) {
	days := s.model.nextIntervalDays(c.Stability, s.params.DesiredRetention, s.params.MaximumInterval)
	c.State = domain.StateReview
	c.Step = 0
	c.Due = now.AddDate(0, 0, days)
}

// hardStep returns the HARD interval for the given step. On the first step
// it sits between the first two steps.
func hardStep(steps []time.Duration, step int) time.Duration {
	if step == 0 {
		if len(steps) == 1 {
			return steps[0] * 3 / 2
		}
		return (steps[0] + steps[1]) / 2
	}
	if step >= len(steps) {
		return steps[len(steps)-1]
	}
	return steps[step]
}

func elapsedDays(from, to time.Time) float64 {
	d := to.Sub(from).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}
