package service

import (
	"math"

	"simulados/internal/model"
)

// ScoreResult is the outcome of scoring an answer set against its questions
type ScoreResult struct {
	Total      int
	Correct    int
	Incorrect  int // includes unanswered
	Unanswered int
	Percentage float64

	AreaStats []model.AreaStat // areas in first-seen question order

	AreaDetail      map[string]model.DetailStat
	SpecialtyDetail map[string]model.DetailStat
	ThemeDetail     map[string]model.DetailStat

	ErrorQuestionIDs []string // not answered correctly, in question order
}

// Score grades answers against questions. Matching is an exact, case-sensitive
// comparison of the selected letter with the question's correct answer.
func Score(questions []*model.Question, answers map[string]model.AnswerState) ScoreResult {
	res := ScoreResult{
		Total:            len(questions),
		AreaDetail:       make(map[string]model.DetailStat),
		SpecialtyDetail:  make(map[string]model.DetailStat),
		ThemeDetail:      make(map[string]model.DetailStat),
		ErrorQuestionIDs: []string{},
	}

	areaIndex := make(map[string]int)
	for _, q := range questions {
		selected := answers[q.ID].SelectedAnswer
		correct := selected != "" && selected == q.CorrectAnswer

		switch {
		case correct:
			res.Correct++
		case selected == "":
			res.Incorrect++
			res.Unanswered++
		default:
			res.Incorrect++
		}
		if !correct {
			res.ErrorQuestionIDs = append(res.ErrorQuestionIDs, q.ID)
		}

		area := q.AreaOrDefault()
		i, ok := areaIndex[area]
		if !ok {
			i = len(res.AreaStats)
			areaIndex[area] = i
			res.AreaStats = append(res.AreaStats, model.AreaStat{Area: area})
		}
		res.AreaStats[i].Total++
		if correct {
			res.AreaStats[i].Correct++
		}

		bump(res.AreaDetail, area, correct)
		bump(res.SpecialtyDetail, q.SpecialtyOrDefault(), correct)
		bump(res.ThemeDetail, q.ThemeOrDefault(), correct)
	}

	res.Percentage = percentage(res.Correct, res.Total)
	for i := range res.AreaStats {
		res.AreaStats[i].Percentage = percentage(res.AreaStats[i].Correct, res.AreaStats[i].Total)
	}
	if res.AreaStats == nil {
		res.AreaStats = []model.AreaStat{}
	}
	return res
}

// bump counts every question of a bucket as "respondidas", matching the weekly results contract
func bump(m map[string]model.DetailStat, key string, correct bool) {
	d := m[key]
	d.Respondidas++
	if correct {
		d.Acertos++
	}
	m[key] = d
}

// percentage returns part/total*100 rounded to 2 decimals, 0 when total is 0
func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}
