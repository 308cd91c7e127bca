package main

import (
	"context"
	"math/rand"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"surveystats/config"
	"surveystats/internal/app"
	"surveystats/internal/model"
)

var (
	genders = []string{"Female", "Male", "Nonbinary"}
	ages    = []string{"17", "18", "19", "20", "21", "22", "23"}
)

func main() {
	cfg := config.Load()
	logger, err := app.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	count := 60
	if v := os.Getenv("SEED_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			count = n
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect", zap.Error(err))
	}
	defer a.Close(ctx)

	table := sampleTable(rand.New(rand.NewSource(time.Now().UnixNano())), a.Schema, count)
	n, err := a.ResponseService.Import(ctx, table)
	if err != nil {
		logger.Fatal("failed to seed responses", zap.Error(err))
	}
	logger.Info("seeded responses", zap.Int("count", n), zap.String("survey", a.Schema.ID()))
}

// sampleTable draws answers that lean toward agreement, with roughly one
// answer in forty left blank
func sampleTable(rng *rand.Rand, schema *model.Schema, n int) model.ResponseTable {
	scale := schema.Scale()
	start := time.Now().Add(-time.Duration(n) * time.Hour).Truncate(time.Second)

	table := make(model.ResponseTable, n)
	for i := range table {
		lean := rng.Intn(scale.Max - scale.Min + 1)
		answers := make([]*int, schema.QuestionCount())
		for q := range answers {
			if rng.Intn(40) == 0 {
				continue
			}
			v := scale.Min + (lean+rng.Intn(scale.Max-scale.Min+1)+1)/2
			if v > scale.Max {
				v = scale.Max
			}
			answers[q] = model.Answer(v)
		}
		table[i] = model.Response{
			Age:       ages[rng.Intn(len(ages))],
			Gender:    genders[rng.Intn(len(genders))],
			YearLevel: model.YearLevels[rng.Intn(len(model.YearLevels))],
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Answers:   answers,
		}
	}
	return table
}
