package payout

import (
	"testing"

	"github.com/mikiasyonas/casino-rounds/internal/models"
)

func TestResolveSlot(t *testing.T) {
	const (
		c = models.SymbolCherry
		l = models.SymbolLemon
		g = models.SymbolGrape
		b = models.SymbolBell
		s = models.SymbolStar
		x = models.SymbolSeven
	)

	tests := []struct {
		name  string
		grid  models.SlotGrid
		bet   int64
		want  int64
		lines int
	}{
		{
			name: "cherry middle row",
			grid: models.SlotGrid{{l, g, b}, {c, c, c}, {s, l, g}},
			bet:  10, want: 50, lines: 1,
		},
		{
			name: "no line",
			grid: models.SlotGrid{{c, l, g}, {b, s, x}, {g, c, l}},
			bet:  10, want: 0, lines: 0,
		},
		{
			name: "falling diagonal",
			grid: models.SlotGrid{{s, l, b}, {g, s, c}, {b, c, s}},
			bet:  2, want: 2 * 10, lines: 1,
		},
		{
			name: "all sevens",
			grid: models.SlotGrid{{x, x, x}, {x, x, x}, {x, x, x}},
			bet:  1, want: 5 * 20, lines: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveSlot(tt.grid, tt.bet); got != tt.want {
				t.Errorf("ResolveSlot() = %d, want %d", got, tt.want)
			}
			if got := len(DefaultPaytable.Lines(tt.grid, tt.bet)); got != tt.lines {
				t.Errorf("Lines() returned %d lines, want %d", got, tt.lines)
			}
		})
	}
}

func TestPaytableIgnoresUnknownSymbols(t *testing.T) {
	grid := models.SlotGrid{{"?", "?", "?"}, {"?", "?", "?"}, {"?", "?", "?"}}
	if got := DefaultPaytable.Resolve(grid, 10); got != 0 {
		t.Errorf("unknown symbols paid %d", got)
	}
}
