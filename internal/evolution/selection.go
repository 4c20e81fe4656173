package evolution

import "github.com/GoSim-25-26J-441/userop-gasopt/pkg/utils"

// tournament draws size distinct members of pop and returns the index of the
// cheapest. Ties go to the lower population index.
func tournament[G any](rng *utils.RandSource, pop Population[G], size int) int {
	entrants := rng.Sample(len(pop), size)
	winner := entrants[0]
	for _, i := range entrants[1:] {
		if pop[i].Cost < pop[winner].Cost || (pop[i].Cost == pop[winner].Cost && i < winner) {
			winner = i
		}
	}
	return winner
}
