package fightserver

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/fightsim/internal/game/bout"
	"github.com/cory-johannsen/fightsim/internal/game/fighter"
	"github.com/cory-johannsen/fightsim/internal/game/tournament"
)

func fighterMap(f *fighter.Fighter) map[string]any {
	s, r := f.Stats, f.Record
	return map[string]any{
		"id":           f.ID,
		"name":         f.Name,
		"archetype":    f.Archetype.String(),
		"weight_class": string(f.WeightClass),
		"skill":        f.OverallSkill(),
		"stats": map[string]any{
			"striking":         s.Striking,
			"grappling":        s.Grappling,
			"speed":            s.Speed,
			"kick_power":       s.KickPower,
			"submission":       s.Submission,
			"takedown_defense": s.TakedownDefense,
			"versatility":      s.Versatility,
		},
		"record": map[string]any{
			"wins":            r.Wins,
			"losses":          r.Losses,
			"draws":           r.Draws,
			"knockout_wins":   r.KnockoutWins,
			"submission_wins": r.SubmissionWins,
			"titles":          r.Titles,
		},
	}
}

func resultMap(r bout.Result) map[string]any {
	return map[string]any{
		"id":            r.ID,
		"kind":          string(r.Kind),
		"fighter1_id":   r.Fighter1ID,
		"fighter2_id":   r.Fighter2ID,
		"fighter1_name": r.Fighter1Name,
		"fighter2_name": r.Fighter2Name,
		"winner_id":     r.WinnerID,
		"winner_name":   r.WinnerName(),
		"method":        string(r.Method),
		"score1":        r.Score1,
		"score2":        r.Score2,
		"draw":          r.Draw,
		"at":            r.At.UTC().Format(time.RFC3339Nano),
	}
}

func fightersMap(fs []*fighter.Fighter) map[string]any {
	list := make([]any, len(fs))
	for i, f := range fs {
		list[i] = fighterMap(f)
	}
	return map[string]any{"fighters": list}
}

func resultsList(rs []bout.Result) []any {
	list := make([]any, len(rs))
	for i, r := range rs {
		list[i] = resultMap(r)
	}
	return list
}

func bracketMap(b *tournament.Bracket) map[string]any {
	rounds := make([]any, len(b.Rounds))
	for i, rd := range b.Rounds {
		entrants := make([]any, len(rd.Entrants))
		for j, id := range rd.Entrants {
			entrants[j] = id
		}
		pairings := make([]any, len(rd.Pairings))
		for j, p := range rd.Pairings {
			pairings[j] = resultMap(p.Result)
		}
		rounds[i] = map[string]any{
			"number":   rd.Number,
			"entrants": entrants,
			"bouts":    pairings,
			"bye":      rd.Bye,
		}
	}
	return map[string]any{
		"champion": fighterMap(b.Champion),
		"rounds":   rounds,
		"bouts":    b.Bouts(),
	}
}

// fighterFromStruct builds a fighter from a registration request. Missing
// stats fall back to the archetype defaults.
func fighterFromStruct(s *structpb.Struct) (*fighter.Fighter, error) {
	arch, err := fighter.ParseArchetype(stringField(s, "archetype"))
	if err != nil {
		return nil, err
	}
	wc, err := fighter.ParseWeightClass(stringField(s, "weight_class"))
	if err != nil {
		return nil, err
	}
	var spec fighter.StatsSpec
	if st := s.GetFields()["stats"].GetStructValue(); st != nil {
		spec = fighter.StatsSpec{
			Striking:        optInt(st, "striking"),
			Grappling:       optInt(st, "grappling"),
			Speed:           optInt(st, "speed"),
			KickPower:       optInt(st, "kick_power"),
			Submission:      optInt(st, "submission"),
			TakedownDefense: optInt(st, "takedown_defense"),
			Versatility:     optInt(st, "versatility"),
		}
	}
	return fighter.New(stringField(s, "id"), stringField(s, "name"), arch, wc, spec.Resolve(arch))
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func intField(s *structpb.Struct, key string) int {
	return int(s.GetFields()[key].GetNumberValue())
}

func optInt(s *structpb.Struct, key string) *int {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil
	}
	n := int(v.GetNumberValue())
	return &n
}

func stringList(s *structpb.Struct, key string) []string {
	vals := s.GetFields()[key].GetListValue().GetValues()
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		out = append(out, v.GetStringValue())
	}
	return out
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("encoding response: %w", err)
	}
	return st, nil
}
