package testutil

import "github.com/mcoot/fleetgame-go/internal/model"

// StackedOrigins returns one horizontal origin per ship: ship i starts at
// column 1 of row 1+2i (B1, D1, F1, ...). The layout fits every supported
// board size with its composition, and rows A, C, E, ... stay empty.
func StackedOrigins(count int) []model.Position {
	origins := make([]model.Position, count)
	for i := range origins {
		origins[i] = model.Position{Row: 1 + 2*i, Col: 0}
	}
	return origins
}
