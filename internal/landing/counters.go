package landing

import "math/rand/v2"

// Followers is the cosmetic follower counter. It only ever grows, up to its limit.
type Followers struct {
	count int
	limit int
	step  int
	rng   *rand.Rand
}

// NewFollowers starts at zero. Each tick adds a random value in [0, step).
func NewFollowers(limit, step int, rng *rand.Rand) *Followers {
	return &Followers{limit: limit, step: step, rng: rng}
}

// Tick adds a random increment, capped at the limit.
func (f *Followers) Tick() {
	if f.step <= 0 {
		return
	}
	f.count = min(f.count+f.rng.IntN(f.step), f.limit)
}

// Count returns the current value.
func (f *Followers) Count() int {
	return f.count
}

// Limit returns the cap.
func (f *Followers) Limit() int {
	return f.limit
}

// Carousel is a position counter that wraps at period.
type Carousel struct {
	position int
	period   int
}

// NewCarousel creates a carousel at position zero.
func NewCarousel(period int) *Carousel {
	if period <= 0 {
		period = 1
	}
	return &Carousel{period: period}
}

// Advance moves one step, wrapping to zero.
func (c *Carousel) Advance() {
	c.position = (c.position + 1) % c.period
}

// Position returns the current offset in pixels.
func (c *Carousel) Position() int {
	return c.position
}
