package payout

import "github.com/mikiasyonas/casino-rounds/internal/models"

// Paytable maps a symbol to the bet multiplier of a three-of-a-kind line.
type Paytable map[string]int64

var DefaultPaytable = Paytable{
	models.SymbolCherry: 5,
	models.SymbolLemon:  4,
	models.SymbolGrape:  6,
	models.SymbolBell:   8,
	models.SymbolStar:   10,
	models.SymbolSeven:  20,
}

type line struct {
	name  string
	cells [3][2]int
}

var paylines = []line{
	{"top", [3][2]int{{0, 0}, {0, 1}, {0, 2}}},
	{"middle", [3][2]int{{1, 0}, {1, 1}, {1, 2}}},
	{"bottom", [3][2]int{{2, 0}, {2, 1}, {2, 2}}},
	{"diagonal_down", [3][2]int{{0, 0}, {1, 1}, {2, 2}}},
	{"diagonal_up", [3][2]int{{2, 0}, {1, 1}, {0, 2}}},
}

// Lines lists every payline whose three cells match a paying symbol.
func (p Paytable) Lines(grid models.SlotGrid, bet int64) []models.SlotLine {
	var wins []models.SlotLine
	for _, l := range paylines {
		a := grid[l.cells[0][0]][l.cells[0][1]]
		b := grid[l.cells[1][0]][l.cells[1][1]]
		c := grid[l.cells[2][0]][l.cells[2][1]]
		if a != b || b != c {
			continue
		}
		mult, ok := p[a]
		if !ok {
			continue
		}
		wins = append(wins, models.SlotLine{Name: l.name, Symbol: a, Payout: bet * mult})
	}
	return wins
}

func (p Paytable) Resolve(grid models.SlotGrid, bet int64) int64 {
	var total int64
	for _, l := range p.Lines(grid, bet) {
		total += l.Payout
	}
	return total
}

// ResolveSlot pays the grid against DefaultPaytable.
func ResolveSlot(grid models.SlotGrid, bet int64) int64 {
	return DefaultPaytable.Resolve(grid, bet)
}
