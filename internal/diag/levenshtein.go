package diag

// Distance computes the Levenshtein edit distance between a and b,
// used to suggest a correction for an UnknownIdentifier error
// (spec §7: "unknown identifier (with similar-name suggestions via a
// small Levenshtein scan)").
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			cur[j] = m
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// Suggest returns candidates within maxDistance of name, closest first,
// capped at limit results.
func Suggest(name string, candidates []string, maxDistance, limit int) []string {
	type scored struct {
		name string
		dist int
	}
	var scoredList []scored
	for _, c := range candidates {
		d := Distance(name, c)
		if d <= maxDistance && d > 0 {
			scoredList = append(scoredList, scored{c, d})
		}
	}
	for i := 1; i < len(scoredList); i++ {
		for j := i; j > 0 && scoredList[j-1].dist > scoredList[j].dist; j-- {
			scoredList[j-1], scoredList[j] = scoredList[j], scoredList[j-1]
		}
	}
	var out []string
	for i, s := range scoredList {
		if i >= limit {
			break
		}
		out = append(out, s.name)
	}
	return out
}
