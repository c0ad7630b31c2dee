package model

// DetailStat counts answered and correct questions for one bucket.
// Field names follow the weekly results contract read by the ranking pages.
type DetailStat struct {
	Respondidas int `json:"respondidas" bson:"respondidas"`
	Acertos     int `json:"acertos" bson:"acertos"`
}

// WeeklyResult is the user-and-week keyed detailed result of a weekly exam
type WeeklyResult struct {
	UserID           string                `json:"usuario_id" bson:"usuario_id"`
	WeekID           string                `json:"id_semana" bson:"id_semana"`
	Correct          int                   `json:"acertos" bson:"acertos"`
	Percentage       float64               `json:"percentual" bson:"percentual"`
	Score            int                   `json:"pontuacao" bson:"pontuacao"`
	TimeSeconds      int                   `json:"tempo_segundos" bson:"tempo_segundos"`
	AreaStats        map[string]DetailStat `json:"area_stats" bson:"area_stats"`
	SpecialtyStats   map[string]DetailStat `json:"especialidade_stats" bson:"especialidade_stats"`
	ThemeStats       map[string]DetailStat `json:"tema_stats" bson:"tema_stats"`
	Timestamp        int64                 `json:"timestamp" bson:"timestamp"`
	IsCompleted      bool                  `json:"isCompleted" bson:"isCompleted"`
	ErrorQuestionIDs []string              `json:"errorQuestions" bson:"errorQuestions"`
}

// WeeklyResultKey builds the document key for a user's weekly result
func WeeklyResultKey(userID, weekID string) string {
	return userID + "_" + weekID
}
