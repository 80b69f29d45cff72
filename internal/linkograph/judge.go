package linkograph

// LinkJudge decides whether two moves are linked. In the reference
// methodology this is a human judgment call (often a majority vote of
// raters), so the decision lives outside the engine; the engine only
// consumes the resulting link table and never re-derives it.
type LinkJudge interface {
	Judge(a, b Move) (bool, error)
}

// TableJudge answers from a recorded judgment table, the usual case when
// links were coded offline and imported.
type TableJudge struct {
	links *LinkSet
}

func NewTableJudge(links *LinkSet) *TableJudge {
	return &TableJudge{links: links}
}

func (j *TableJudge) Judge(a, b Move) (bool, error) {
	return j.links.Has(a.Index, b.Index), nil
}

// BuildLinks runs a judge over every admissible move pair of a sealed
// store and records the positive verdicts. Pairs are presented in
// protocol order: (earlier, later).
func BuildLinks(store *MoveStore, judge LinkJudge) (*LinkSet, error) {
	ls, err := NewLinkSet(store)
	if err != nil {
		return nil, err
	}
	moves := store.Moves()
	for i := 0; i < len(moves); i++ {
		for j := i + 1; j < len(moves); j++ {
			linked, err := judge.Judge(moves[i], moves[j])
			if err != nil {
				return nil, err
			}
			if linked {
				if err := ls.Add(moves[i].Index, moves[j].Index); err != nil {
					return nil, err
				}
			}
		}
	}
	return ls, nil
}
