package bridge

// Seat is one of the four compass positions at the table.
type Seat string

const (
	North Seat = "N"
	East  Seat = "E"
	South Seat = "S"
	West  Seat = "W"
)

// Seats in compass order, used for iterating seats deterministically.
var Seats = []Seat{North, East, South, West}

// tableOrder is the turn rotation. Play proceeds counter-clockwise
// N -> W -> S -> E, not in compass order.
var tableOrder = []Seat{North, West, South, East}

// Next returns the seat whose turn follows s in table rotation.
func (s Seat) Next() Seat {
	for i, seat := range tableOrder {
		if seat == s {
			return tableOrder[(i+1)%len(tableOrder)]
		}
	}
	return ""
}

// Valid reports whether s names one of the four positions.
func (s Seat) Valid() bool {
	return s == North || s == East || s == South || s == West
}

// Side returns both members of the partnership s belongs to.
func (s Seat) Side() [2]Seat {
	if s == North || s == South {
		return [2]Seat{North, South}
	}
	return [2]Seat{East, West}
}
