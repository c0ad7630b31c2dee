package model

// Classification fallbacks for questions without area/specialty/theme
const (
	DefaultArea      = "Outras"
	DefaultSpecialty = "Geral"
	DefaultTheme     = "Não Classificado"
)

// Question is an immutable exam question as stored in the question bank
type Question struct {
	ID              string   `json:"id" bson:"_id"`
	Prompt          string   `json:"prompt" bson:"prompt"`
	Alternatives    []string `json:"alternatives" bson:"alternatives"`
	CorrectAnswer   string   `json:"correctAnswer" bson:"correctAnswer"` // letter, e.g. "C"
	Area            string   `json:"area,omitempty" bson:"area,omitempty"`
	Specialty       string   `json:"specialty,omitempty" bson:"specialty,omitempty"`
	Theme           string   `json:"theme,omitempty" bson:"theme,omitempty"`
	Comment         string   `json:"comment,omitempty" bson:"comment,omitempty"`
	AudioCommentURL string   `json:"audioCommentUrl,omitempty" bson:"audioCommentUrl,omitempty"`
	ImageURL        string   `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
}

// AreaOrDefault returns the question area or "Outras"
func (q *Question) AreaOrDefault() string {
	if q.Area == "" {
		return DefaultArea
	}
	return q.Area
}

// SpecialtyOrDefault returns the question specialty or "Geral"
func (q *Question) SpecialtyOrDefault() string {
	if q.Specialty == "" {
		return DefaultSpecialty
	}
	return q.Specialty
}

// ThemeOrDefault returns the question theme or "Não Classificado"
func (q *Question) ThemeOrDefault() string {
	if q.Theme == "" {
		return DefaultTheme
	}
	return q.Theme
}

// Letters returns the alternative letters in display order (A, B, C, ...)
func (q *Question) Letters() []string {
	letters := make([]string, len(q.Alternatives))
	for i := range q.Alternatives {
		letters[i] = AlternativeLetter(i)
	}
	return letters
}

// HasLetter reports whether letter names one of the question's alternatives
func (q *Question) HasLetter(letter string) bool {
	for i := range q.Alternatives {
		if AlternativeLetter(i) == letter {
			return true
		}
	}
	return false
}

// AlternativeLetter maps a zero-based alternative index to its letter
func AlternativeLetter(i int) string {
	return string(rune('A' + i))
}
