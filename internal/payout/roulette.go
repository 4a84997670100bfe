package payout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mikiasyonas/casino-rounds/internal/models"
)

const WheelSize = 37

const (
	ColorRed   = "red"
	ColorBlack = "black"
	ColorGreen = "green"
)

// WheelOrder is the European single-zero pocket sequence.
var WheelOrder = []int{
	0, 32, 15, 19, 4, 21, 2, 25, 17, 34, 6, 27, 13, 36, 11, 30, 8, 23, 10,
	5, 24, 16, 33, 1, 20, 14, 31, 9, 22, 18, 29, 7, 28, 12, 35, 3, 26,
}

var redNumbers = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true, 14: true, 16: true, 18: true,
	19: true, 21: true, 23: true, 25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

func Color(n int) string {
	switch {
	case n == 0:
		return ColorGreen
	case redNumbers[n]:
		return ColorRed
	default:
		return ColorBlack
	}
}

// ParseNumbers reads the comma separated pocket list a bet covers.
func ParseNumbers(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p)
		}
		if n < 0 || n >= WheelSize {
			return nil, fmt.Errorf("number %d is not on the wheel", n)
		}
		nums = append(nums, n)
	}
	if len(nums) == 0 {
		return nil, fmt.Errorf("no numbers in %q", s)
	}
	return nums, nil
}

// Covers reports whether the bet includes the winning pocket. A bet with an
// unreadable number list covers nothing.
func Covers(bet models.RouletteBet, winning int) bool {
	nums, err := ParseNumbers(bet.Numbers)
	if err != nil {
		return false
	}
	for _, n := range nums {
		if n == winning {
			return true
		}
	}
	return false
}

// ResolveRoulette returns the profit over all winning bets, amount*odds each.
// Stakes are not included.
func ResolveRoulette(bets []models.RouletteBet, winning int) int64 {
	var total int64
	for _, b := range bets {
		if Covers(b, winning) {
			total += b.Amount * b.Odds
		}
	}
	return total
}
