package grading

import "github.com/shopspring/decimal"

type Result struct {
	Correct int     `json:"correct"`
	Wrong   int     `json:"wrong"`
	Percent float64 `json:"percent"`
}

var hundred = decimal.NewFromInt(100)

// Grade compares normalized against key position by position, up to the
// shorter of the two. Wrong is counted against the key length, so missing
// positions are penalized. An empty key grades to the zero Result.
func Grade(normalized, key string) Result {
	sub, ans := []rune(normalized), []rune(key)
	if len(ans) == 0 {
		return Result{}
	}

	correct := 0
	for i := 0; i < len(sub) && i < len(ans); i++ {
		if sub[i] == ans[i] {
			correct++
		}
	}

	return Result{
		Correct: correct,
		Wrong:   len(ans) - correct,
		Percent: Percent(correct, len(ans)),
	}
}

// Percent returns 100*correct/total rounded half away from zero to two places.
func Percent(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	p := decimal.NewFromInt(int64(correct)).Mul(hundred).
		DivRound(decimal.NewFromInt(int64(total)), 2)
	return p.InexactFloat64()
}
