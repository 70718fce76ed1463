package game

import "sort"

// contribution is one seat's stake in a finished hand. live marks seats
// eligible to win: dealt in, not folded, and revealed at showdown.
type contribution struct {
	seat   int
	amount int64
	live   bool
}

// sidePot is one layer of the pot with its eligibility set.
type sidePot struct {
	amount   int64
	eligible []int
}

// refundUncalled returns any stake the top live contributor put in beyond
// what every other seat matched. An uncalled raise goes back to the raiser
// before pots are built; it was never contested.
func refundUncalled(contribs []contribution) (seat int, refund int64) {
	var top, second int64
	topSeat, topLive := -1, false
	for _, c := range contribs {
		switch {
		case c.amount > top:
			second = top
			top = c.amount
			topSeat = c.seat
			topLive = c.live
		case c.amount > second:
			second = c.amount
		}
	}
	if topSeat < 0 || !topLive || top == second {
		return -1, 0
	}
	return topSeat, top - second
}

// buildPots partitions the contributed chips into layered pots. Each layer
// spans the chips between two consecutive live contribution levels and is
// winnable only by live seats that reached it; folded stakes feed every
// layer they cover, and anything a folded seat put in above the top live
// level is swept into the final layer. The layer amounts always sum to the
// total contributed.
func buildPots(contribs []contribution) []sidePot {
	levels := make([]int64, 0, len(contribs))
	seen := make(map[int64]bool)
	var total int64
	for _, c := range contribs {
		total += c.amount
		if c.live && !seen[c.amount] {
			seen[c.amount] = true
			levels = append(levels, c.amount)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })
	if len(levels) == 0 {
		return nil
	}

	pots := make([]sidePot, 0, len(levels))
	var prev, allocated int64
	for _, level := range levels {
		pot := sidePot{}
		for _, c := range contribs {
			lo, hi := min64(c.amount, prev), min64(c.amount, level)
			pot.amount += hi - lo
			if c.live && c.amount >= level {
				pot.eligible = append(pot.eligible, c.seat)
			}
		}
		allocated += pot.amount
		pots = append(pots, pot)
		prev = level
	}
	if leftover := total - allocated; leftover > 0 {
		pots[len(pots)-1].amount += leftover
	}
	return pots
}

// distribute pays out a hand. scores maps live seats to their ranked hand
// strength (lower is stronger); numSeats and dealerSeat fix the tie-break
// for indivisible remainders, which go to the winning seat closest
// clockwise from the seat after the dealer. carry is pot money from an
// abandoned earlier hand, added to the main pot. The returned payouts, plus
// nothing else, account for every contributed and carried chip.
func distribute(contribs []contribution, scores map[int]int32, dealerSeat, numSeats int, carry int64) map[int]int64 {
	payouts := make(map[int]int64)

	if seat, refund := refundUncalled(contribs); refund > 0 {
		payouts[seat] += refund
		for i := range contribs {
			if contribs[i].seat == seat {
				contribs[i].amount -= refund
			}
		}
	}

	pots := buildPots(contribs)
	if carry > 0 && len(pots) > 0 {
		pots[0].amount += carry
	}
	for _, pot := range pots {
		winners := bestOf(pot.eligible, scores)
		if len(winners) == 0 {
			continue
		}
		sort.Slice(winners, func(i, j int) bool {
			return clockwiseFrom(dealerSeat+1, winners[i], numSeats) <
				clockwiseFrom(dealerSeat+1, winners[j], numSeats)
		})
		share := pot.amount / int64(len(winners))
		remainder := pot.amount % int64(len(winners))
		for _, w := range winners {
			payouts[w] += share
		}
		payouts[winners[0]] += remainder
	}
	return payouts
}

// bestOf returns the seats holding the strongest score among eligible.
func bestOf(eligible []int, scores map[int]int32) []int {
	var winners []int
	var best int32
	for _, seat := range eligible {
		score, ok := scores[seat]
		if !ok {
			continue
		}
		if len(winners) == 0 || score < best {
			winners = winners[:0]
			winners = append(winners, seat)
			best = score
		} else if score == best {
			winners = append(winners, seat)
		}
	}
	return winners
}

// clockwiseFrom is the table distance from seat start to seat i.
func clockwiseFrom(start, i, numSeats int) int {
	return ((i - start) % numSeats + numSeats) % numSeats
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
