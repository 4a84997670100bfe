// Package payout holds the pure game arithmetic: hand values, roulette odds
// and slot lines. Nothing here touches balances or randomness.
package payout

import "github.com/mikiasyonas/casino-rounds/internal/models"

const BlackjackTarget = 21

// CardValue counts an ace as 11 and any face card as 10.
func CardValue(rank string) int {
	switch rank {
	case "A":
		return 11
	case "K", "Q", "J", "10":
		return 10
	case "2", "3", "4", "5", "6", "7", "8", "9":
		return int(rank[0] - '0')
	}
	return 0
}

// HandValue is the best total not above 21 when one exists, demoting aces
// from 11 to 1 as needed.
func HandValue(cards []models.Card) int {
	total, aces := 0, 0
	for _, c := range cards {
		total += CardValue(c.Rank)
		if c.Rank == "A" {
			aces++
		}
	}
	for total > BlackjackTarget && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

func IsBlackjack(cards []models.Card) bool {
	return len(cards) == 2 && HandValue(cards) == BlackjackTarget
}

func IsBust(cards []models.Card) bool {
	return HandValue(cards) > BlackjackTarget
}

// NaturalPayout is the 3:2 blackjack win, rounded down.
func NaturalPayout(bet int64) int64 {
	return bet * 3 / 2
}
