package fighter

import "fmt"

// Finish classifies how a win was obtained for the honors counters.
type Finish int

const (
	FinishDecision Finish = iota
	FinishKnockout
	FinishSubmission
)

// Record is a fighter's bout history counters.
//
// Invariant: every counter is non-negative and only ever incremented,
// except through Reset.
type Record struct {
	Wins           int `yaml:"wins" json:"wins"`
	Losses         int `yaml:"losses" json:"losses"`
	Draws          int `yaml:"draws" json:"draws"`
	KnockoutWins   int `yaml:"knockout_wins" json:"knockout_wins"`
	SubmissionWins int `yaml:"submission_wins" json:"submission_wins"`
	Titles         int `yaml:"titles" json:"titles"`
}

// AddWin records a win obtained by f.
func (r *Record) AddWin(f Finish) {
	r.Wins++
	switch f {
	case FinishKnockout:
		r.KnockoutWins++
	case FinishSubmission:
		r.SubmissionWins++
	}
}

// AddLoss records a loss.
func (r *Record) AddLoss() { r.Losses++ }

// AddDraw records a draw.
func (r *Record) AddDraw() { r.Draws++ }

// AddTitle records a tournament championship.
func (r *Record) AddTitle() { r.Titles++ }

// Reset zeroes every counter.
func (r *Record) Reset() { *r = Record{} }

// Total returns wins + losses + draws.
func (r Record) Total() int { return r.Wins + r.Losses + r.Draws }

// WinPercentage returns wins/total*100, or 0 when no bouts have been fought.
func (r Record) WinPercentage() float64 {
	total := r.Total()
	if total == 0 {
		return 0
	}
	return float64(r.Wins) / float64(total) * 100
}

// String formats the record as "W-L-D".
func (r Record) String() string {
	return fmt.Sprintf("%d-%d-%d", r.Wins, r.Losses, r.Draws)
}
