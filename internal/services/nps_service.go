package services

import (
	"fmt"
	"strconv"
	"strings"
)

// NPS = %Promoters - %Detractors

// NPS tallies the ratings given to one RATE question.
type NPS struct {
	// Ratings that fell in a bucket
	Responses int
	// Rating 5
	Promoters int
	// Rating 4
	Passives int
	// 3 or lower
	Detractors int
}

// Add buckets one raw 1 to 5 rating. Anything else is ignored and reported
// as false.
func (n *NPS) Add(raw string) bool {
	rating, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || rating < 1 || rating > 5 {
		return false
	}

	n.Responses++
	switch {
	case rating == 5:
		n.Promoters++
	case rating == 4:
		n.Passives++
	default:
		n.Detractors++
	}
	return true
}

func (n *NPS) CalculateNPS() (int, error) {
	if n.Responses == 0 {
		return 0, nil
	}

	buckets := n.Promoters + n.Passives + n.Detractors
	if n.Responses < buckets {
		return 0, fmt.Errorf("cannot compute nps with %d responses over %d bucketed ratings", n.Responses, buckets)
	}

	promoters := (float64(n.Promoters) / float64(n.Responses)) * 100
	detractors := (float64(n.Detractors) / float64(n.Responses)) * 100

	return int(promoters - detractors), nil
}
