package admin

import (
	"math"
	"strings"

	"cime-gpt/internal/models"
)

// PageSize is the number of rows per table page
const PageSize = 5

// PageInfo describes the position of a page
type PageInfo struct {
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// Paginate returns the rows of page (1-based). Out of range pages are clamped.
func Paginate[T any](items []T, page int) ([]T, PageInfo) {
	total := (len(items) + PageSize - 1) / PageSize
	if total < 1 {
		total = 1
	}
	if page < 1 {
		page = 1
	}
	if page > total {
		page = total
	}

	start := (page - 1) * PageSize
	end := start + PageSize
	if end > len(items) {
		end = len(items)
	}

	info := PageInfo{
		Page:       page,
		TotalPages: total,
		HasPrev:    page > 1,
		HasNext:    page < total,
	}
	return items[start:end], info
}

// AverageRating is the rounded mean rating left by userID, or 0 when none
func AverageRating(feedback []models.UserFeedback, userID string) int {
	sum, n := 0, 0
	for _, fb := range feedback {
		if fb.UserID == userID {
			sum += fb.Rating
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

// Stars renders a rating out of five. A zero rating renders as nothing.
func Stars(n int) string {
	if n <= 0 {
		return ""
	}
	if n > 5 {
		n = 5
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}
