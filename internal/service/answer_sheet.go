package service

import (
	"simulados/internal/model"
)

// AnswerSheet holds the per-question answers and review marks of one attempt.
// It is not safe for concurrent use; the owning Session serialises access.
type AnswerSheet struct {
	order     []string
	questions map[string]*model.Question
	answers   map[string]model.AnswerState
	marked    map[string]bool
	readOnly  bool
}

// NewAnswerSheet builds a sheet over questions. Seeded answers and marks for
// ids outside the question set are discarded.
func NewAnswerSheet(questions []*model.Question, answers map[string]model.AnswerState, marked []string, readOnly bool) *AnswerSheet {
	s := &AnswerSheet{
		order:     make([]string, 0, len(questions)),
		questions: make(map[string]*model.Question, len(questions)),
		answers:   make(map[string]model.AnswerState),
		marked:    make(map[string]bool),
		readOnly:  readOnly,
	}
	for _, q := range questions {
		s.order = append(s.order, q.ID)
		s.questions[q.ID] = q
	}
	for id, a := range answers {
		if _, ok := s.questions[id]; ok {
			s.answers[id] = a.Clone()
		}
	}
	for _, id := range marked {
		if _, ok := s.questions[id]; ok {
			s.marked[id] = true
		}
	}
	return s
}

// SetAnswer selects letter for qid; an empty letter clears the selection.
// Strike-outs are preserved.
func (s *AnswerSheet) SetAnswer(qid, letter string) error {
	q, err := s.writable(qid)
	if err != nil {
		return err
	}
	if letter != "" && !q.HasLetter(letter) {
		return ErrInvalidAlternative
	}
	a := s.answers[qid].Clone()
	a.SelectedAnswer = letter
	s.answers[qid] = a
	return nil
}

// SetStrikeOut marks or clears letter as eliminated, independent of the selection
func (s *AnswerSheet) SetStrikeOut(qid, letter string, struck bool) error {
	q, err := s.writable(qid)
	if err != nil {
		return err
	}
	if !q.HasLetter(letter) {
		return ErrInvalidAlternative
	}
	a := s.answers[qid].Clone()
	if struck {
		if a.StruckOut == nil {
			a.StruckOut = make(map[string]bool)
		}
		a.StruckOut[letter] = true
	} else {
		delete(a.StruckOut, letter)
		if len(a.StruckOut) == 0 {
			a.StruckOut = nil
		}
	}
	s.answers[qid] = a
	return nil
}

// ToggleReviewMark flips qid's review mark and returns the new state
func (s *AnswerSheet) ToggleReviewMark(qid string) (bool, error) {
	if _, ok := s.questions[qid]; !ok {
		return false, ErrUnknownQuestion
	}
	if s.marked[qid] {
		delete(s.marked, qid)
		return false, nil
	}
	s.marked[qid] = true
	return true, nil
}

func (s *AnswerSheet) writable(qid string) (*model.Question, error) {
	if s.readOnly {
		return nil, ErrReviewMode
	}
	q, ok := s.questions[qid]
	if !ok {
		return nil, ErrUnknownQuestion
	}
	return q, nil
}

func (s *AnswerSheet) Answer(qid string) model.AnswerState {
	return s.answers[qid].Clone()
}

// Answers returns a deep copy of all recorded answer states
func (s *AnswerSheet) Answers() map[string]model.AnswerState {
	out := make(map[string]model.AnswerState, len(s.answers))
	for id, a := range s.answers {
		out[id] = a.Clone()
	}
	return out
}

func (s *AnswerSheet) IsMarked(qid string) bool {
	return s.marked[qid]
}

// Marked returns the marked ids in question order
func (s *AnswerSheet) Marked() []string {
	out := make([]string, 0, len(s.marked))
	for _, id := range s.order {
		if s.marked[id] {
			out = append(out, id)
		}
	}
	return out
}

func (s *AnswerSheet) AnsweredCount() int {
	n := 0
	for _, a := range s.answers {
		if a.Answered() {
			n++
		}
	}
	return n
}

// AreaProgress counts answered questions per area, areas in first-seen order
func (s *AnswerSheet) AreaProgress() []model.AreaProgress {
	index := make(map[string]int)
	var out []model.AreaProgress
	for _, id := range s.order {
		area := s.questions[id].AreaOrDefault()
		i, ok := index[area]
		if !ok {
			i = len(out)
			index[area] = i
			out = append(out, model.AreaProgress{Area: area})
		}
		out[i].Total++
		if s.answers[id].Answered() {
			out[i].Answered++
		}
	}
	for i := range out {
		out[i].Percentage = percentage(out[i].Answered, out[i].Total)
	}
	return out
}
