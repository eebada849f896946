package graph

import (
	"errors"
	"fmt"

	"github.com/aaronzipp/catch-mister-x/internal/ticket"
)

// Validate checks the properties a playable map must have: every station is
// reachable from every other, there are enough starting stations for a full
// room, and each starting station offers taxi, bus and underground departures
// so Mr. X can spend any ticket from his first position.
func (g *Graph) Validate(maxPlayers int) error {
	var errs []error

	if len(g.ids) == 0 {
		return errors.New("map has no stations")
	}
	if n := g.reachableFrom(g.ids[0]); n != len(g.ids) {
		errs = append(errs, fmt.Errorf("map is not connected: %d of %d stations reachable", n, len(g.ids)))
	}
	if len(g.starts) < maxPlayers {
		errs = append(errs, fmt.Errorf("map has %d starting stations, need at least %d", len(g.starts), maxPlayers))
	}
	for _, s := range g.starts {
		var have ModeSet
		for _, modes := range g.adj[s] {
			have |= modes
		}
		for _, k := range []ticket.Kind{ticket.Taxi, ticket.Bus, ticket.Underground} {
			if !have.Has(k) {
				errs = append(errs, fmt.Errorf("starting station %d has no %s edge", s, k))
			}
		}
	}
	for s := range g.ferry {
		var have ModeSet
		for _, modes := range g.adj[s] {
			have |= modes
		}
		if !have.Has(ticket.Ferry) {
			errs = append(errs, fmt.Errorf("ferry station %d has no ferry edge", s))
		}
	}
	return errors.Join(errs...)
}

func (g *Graph) reachableFrom(start int) int {
	seen := map[int]bool{start: true}
	queue := []int{start}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for to := range g.adj[s] {
			if !seen[to] {
				seen[to] = true
				queue = append(queue, to)
			}
		}
	}
	return len(seen)
}
