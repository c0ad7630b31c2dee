package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"simulados/internal/app"
	"simulados/internal/config"
	"simulados/internal/logger"
	"simulados/internal/model"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	log := logger.New(cfg)
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer client.Disconnect(ctx)

	a := app.New(client.Database(cfg.Mongo.Database), nil, cfg, log)

	userID := os.Getenv("SEED_USER_ID")
	if userID == "" {
		userID = "demo-user"
	}

	questions := []*model.Question{
		{
			ID:            "seed-q1",
			Prompt:        "Qual é o agente etiológico mais comum da pneumonia adquirida na comunidade?",
			Alternatives:  []string{"Streptococcus pneumoniae", "Haemophilus influenzae", "Mycoplasma pneumoniae", "Staphylococcus aureus"},
			CorrectAnswer: "A",
			Area:          "Clínica Médica",
			Specialty:     "Pneumologia",
			Theme:         "Pneumonias",
			Comment:       "O pneumococo segue como principal agente em todas as faixas etárias adultas.",
		},
		{
			ID:            "seed-q2",
			Prompt:        "Qual a conduta inicial na cetoacidose diabética?",
			Alternatives:  []string{"Insulina subcutânea", "Hidratação venosa", "Bicarbonato", "Potássio oral"},
			CorrectAnswer: "B",
			Area:          "Clínica Médica",
			Specialty:     "Endocrinologia",
			Theme:         "Emergências metabólicas",
		},
		{
			ID:            "seed-q3",
			Prompt:        "Qual o sinal clássico da apendicite aguda à palpação da fossa ilíaca direita?",
			Alternatives:  []string{"Murphy", "Giordano", "Blumberg", "Rovsing", "Kehr"},
			CorrectAnswer: "C",
			Area:          "Cirurgia",
			Specialty:     "Cirurgia Geral",
			Theme:         "Abdome agudo",
		},
		{
			ID:            "seed-q4",
			Prompt:        "A vacina BCG deve ser aplicada preferencialmente:",
			Alternatives:  []string{"Ao nascer", "Aos 2 meses", "Aos 4 meses", "Aos 12 meses"},
			CorrectAnswer: "A",
			Area:          "Pediatria",
		},
	}

	for _, q := range questions {
		if err := a.QuestionRepo.Upsert(ctx, q); err != nil {
			log.Fatal("failed to insert question", zap.String("questionId", q.ID), zap.Error(err))
		}
	}

	exam := &model.Exam{
		ID:        "seed-simulado",
		UserID:    userID,
		Title:     "Simulado de demonstração",
		Type:      model.ExamTypeStandard,
		CreatedAt: time.Now(),
	}
	if err := a.ExamRepo.Upsert(ctx, exam); err != nil {
		log.Fatal("failed to insert exam", zap.Error(err))
	}

	order := make([]string, len(questions))
	for i, q := range questions {
		order[i] = q.ID
	}
	attempt := &model.Attempt{
		ID:              uuid.New().String(),
		UserID:          userID,
		SimuladoID:      exam.ID,
		Type:            exam.Type,
		QuestionOrder:   order,
		UserAnswers:     map[string]model.AnswerState{},
		MarkedForReview: []string{},
	}
	if err := a.AttemptRepo.Create(ctx, attempt); err != nil {
		log.Fatal("failed to insert attempt", zap.Error(err))
	}

	token, err := a.AuthService.GenerateUserToken(model.UserIdentity{
		UserID:      userID,
		DisplayName: "Usuário Demo",
	}, 24*time.Hour)
	if err != nil {
		log.Fatal("failed to sign token", zap.Error(err))
	}

	fmt.Printf("Seeded exam '%s' with %d questions\n", exam.Title, len(questions))
	fmt.Printf("Attempt: %s\n", attempt.ID)
	fmt.Printf("Token:   %s\n", token)
}
