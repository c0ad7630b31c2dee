package model

// ReportType classifies a performance report
type ReportType string

const (
	ReportTypeWeekly    ReportType = "simulado_semanal"
	ReportTypeSimulated ReportType = "simulated"
)

// AreaStat is the per-area breakdown of a report
type AreaStat struct {
	Area       string  `json:"area" bson:"area"`
	Correct    int     `json:"correct" bson:"correct"`
	Total      int     `json:"total" bson:"total"`
	Percentage float64 `json:"percentage" bson:"percentage"`
}

// PerformanceReport is the immutable scored summary of a finished attempt
type PerformanceReport struct {
	ID                   string     `json:"id" bson:"_id"` // attempt id
	SimuladoID           string     `json:"simuladoId" bson:"simuladoId"`
	UserID               string     `json:"userId" bson:"userId"`
	CreationDate         string     `json:"creationDate" bson:"creationDate"` // dd/mm/yyyy
	Timestamp            int64      `json:"timestamp" bson:"timestamp"`       // unix millis
	TotalQuestions       int        `json:"totalQuestions" bson:"totalQuestions"`
	CorrectAnswers       int        `json:"correctAnswers" bson:"correctAnswers"`
	IncorrectAnswers     int        `json:"incorrectAnswers" bson:"incorrectAnswers"`
	UnansweredQuestions  int        `json:"unansweredQuestions" bson:"unansweredQuestions"`
	PercentageCorrect    float64    `json:"percentageCorrect" bson:"percentageCorrect"`
	TimeTaken            int        `json:"timeTaken" bson:"timeTaken"`
	RecommendedTotalTime int        `json:"recommendedTotalTime" bson:"recommendedTotalTime"`
	AreaStats            []AreaStat `json:"areaStats" bson:"areaStats"`
	Type                 ReportType `json:"type" bson:"type"`
}
