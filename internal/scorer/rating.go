package scorer

import "fmt"

// Rating is the overall qualitative rating.
type Rating string

// Ratings, best first.
const (
	Excellent      Rating = "excellent"
	Good           Rating = "good"
	Fair           Rating = "fair"
	Poor           Rating = "poor"
	CriticalRating Rating = "critical"
)

// Overall is the aggregated rating. Flags is the union of every calculator's
// flags in Names() order.
type Overall struct {
	Rating     Rating   `json:"rating"`
	RedFlags   []string `json:"red_flags"`
	GreenFlags []string `json:"green_flags"`
	Flags      []string `json:"flags"`
}

// Aggregate merges the available scores into one rating. The order of the
// checks is the rating policy:
//
//  1. high manipulation risk: poor, red flag
//  2. bankruptcy distress: critical, red flag
//  3. low accruals quality: red flag only
//  4. critical cash runway: critical, red flag
//  5. financial strength >= 7: green flag, fair becomes good
//  6. safe bankruptcy zone: green flag, fair becomes good
//  7. high accruals quality: green flag only
//  8. no red flags and at least two green flags: excellent
func Aggregate(s Scores) Overall {
	o := Overall{
		Rating:     Fair,
		RedFlags:   []string{},
		GreenFlags: []string{},
		Flags:      []string{},
	}

	if m, ok := s[NameManipulation]; ok && m.Interpretation == HighRisk {
		o.Rating = Poor
		o.RedFlags = append(o.RedFlags, fmt.Sprintf("high earnings manipulation risk (M-score %.2f)", m.Score))
	}
	if b, ok := s[NameBankruptcy]; ok && b.Interpretation == Distress {
		o.Rating = CriticalRating
		o.RedFlags = append(o.RedFlags, fmt.Sprintf("bankruptcy distress zone (Z-score %.2f)", b.Score))
	}
	if a, ok := s[NameAccruals]; ok && a.Interpretation == LowQuality {
		o.RedFlags = append(o.RedFlags, "low earnings quality")
	}
	if r, ok := s[NameRunway]; ok && r.Interpretation == Critical {
		o.Rating = CriticalRating
		o.RedFlags = append(o.RedFlags, fmt.Sprintf("critical cash runway (%.1f months)", r.Score))
	}

	if st, ok := s[NameStrength]; ok && st.Score >= 7 {
		o.GreenFlags = append(o.GreenFlags, fmt.Sprintf("strong fundamentals (F-score %.0f/9)", st.Score))
		if o.Rating == Fair {
			o.Rating = Good
		}
	}
	if b, ok := s[NameBankruptcy]; ok && b.Interpretation == Safe {
		o.GreenFlags = append(o.GreenFlags, "bankruptcy safe zone")
		if o.Rating == Fair {
			o.Rating = Good
		}
	}
	if a, ok := s[NameAccruals]; ok && a.Interpretation == HighQuality {
		o.GreenFlags = append(o.GreenFlags, "high earnings quality")
	}

	if len(o.RedFlags) == 0 && len(o.GreenFlags) >= 2 {
		o.Rating = Excellent
	}

	for _, n := range Names() {
		if r, ok := s[n]; ok {
			o.Flags = append(o.Flags, r.Flags...)
		}
	}
	return o
}
