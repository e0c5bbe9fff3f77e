package arena

// CornerView is the read-only presentation of one corner.
type CornerView struct {
	Name     string
	HP       int
	Stamina  float64
	Pos      Vec2
	Blocking bool
	Stunned  bool
	// Ready is indexed by Move and reports whether its cooldown has elapsed.
	Ready [moveCount]bool
}

// Snapshot is what a presentation layer receives each tick. It never
// aliases engine state.
type Snapshot struct {
	Tick    uint64
	Clock   float64
	Phase   Phase
	Corners [2]CornerView
	Outcome Outcome
	Log     []string
	// Logged counts every line ever appended to the log. It keeps rising
	// after old lines fall out of the Log window.
	Logged uint64
}

// Unseen returns the lines of Log appended after a reader had seen seen
// lines in total. Lines that already fell out of the window are lost.
func (s Snapshot) Unseen(seen uint64) []string {
	if seen >= s.Logged {
		return nil
	}
	fresh := s.Logged - seen
	if fresh >= uint64(len(s.Log)) {
		return s.Log
	}
	return s.Log[len(s.Log)-int(fresh):]
}

// View builds a snapshot of s carrying a copy of log.
func View(s State, log []string) Snapshot {
	snap := Snapshot{
		Tick:    s.Tick,
		Clock:   s.Clock,
		Phase:   s.Phase,
		Outcome: s.Outcome,
		Log:     append([]string(nil), log...),
	}
	for _, slot := range []Slot{Red, Blue} {
		c := s.Corners[slot]
		v := CornerView{
			Name:     c.Name,
			HP:       c.HP,
			Stamina:  c.Stamina,
			Pos:      c.Pos,
			Blocking: s.Blocking(slot),
			Stunned:  s.Stunned(slot),
		}
		for _, m := range Moves {
			v.Ready[m] = s.Ready(slot, m)
		}
		snap.Corners[slot] = v
	}
	return snap
}
