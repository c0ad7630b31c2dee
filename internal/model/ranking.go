package model

// Fallbacks for ranking identity fields
const (
	AnonymousUserName = "Usuário Anônimo"
	NoUserPhoto       = ""
)

// RankingEntry is the public ranking record of one finished attempt
type RankingEntry struct {
	AttemptID         string  `json:"attemptId" bson:"_id"`
	UserID            string  `json:"userId" bson:"userId"`
	UserName          string  `json:"userName" bson:"userName"`
	UserPhoto         string  `json:"userPhoto" bson:"userPhoto"`
	SimuladoID        string  `json:"simuladoId" bson:"simuladoId"`
	Timestamp         int64   `json:"timestamp" bson:"timestamp"`
	TotalQuestions    int     `json:"totalQuestions" bson:"totalQuestions"`
	CorrectAnswers    int     `json:"correctAnswers" bson:"correctAnswers"`
	PercentageCorrect float64 `json:"percentageCorrect" bson:"percentageCorrect"`
	TimeTaken         int     `json:"timeTaken" bson:"timeTaken"`
}

// LeaderboardEntry is one row of an exam leaderboard
type LeaderboardEntry struct {
	AttemptID string `json:"attemptId"`
	UserName  string `json:"userName,omitempty"`
	Correct   int    `json:"correct"`
	Rank      int    `json:"rank"`
}
