package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/njpastrone/industry-trend-tracker/db"
	"github.com/njpastrone/industry-trend-tracker/internal/pipeline"
	"github.com/njpastrone/industry-trend-tracker/internal/repository"
	"github.com/njpastrone/industry-trend-tracker/pkg/feeds"
	"github.com/njpastrone/industry-trend-tracker/pkg/llm"
	"github.com/njpastrone/industry-trend-tracker/pkg/market"
)

// defaultSchedule runs the pipeline daily at 06:00 UTC, before US
// market open.
const defaultSchedule = "0 6 * * *"

var errNoLLMKey = errors.New("no ANTHROPIC_API_KEY or OPENAI_API_KEY configured")

func main() {

	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("error connecting to DB: %v", err)
	}
	defer database.Close()

	runState, err := db.ConnectRunState()
	if err != nil {
		log.Fatalf("error connecting to Redis: %v", err)
	}
	defer runState.Close()

	classifier, writer, err := buildLLMClient()
	if err != nil {
		log.Fatalf("error configuring LLM client: %v", err)
	}

	store := repository.NewStore(database)
	p := pipeline.New(store, feeds.NewGoogleNewsClient(), classifier, writer, buildMarketClient())
	if runState != nil {
		p.Recorder = runState
	}

	schedule := os.Getenv("PIPELINE_CRON")
	if schedule == "" {
		schedule = defaultSchedule
	}

	c := cron.New(cron.WithLocation(time.UTC))
	_, err = c.AddFunc(schedule, func() {
		summary := p.Run(context.Background())
		if summary.Error != "" {
			slog.Error("scheduled run finished with error", "run_id", summary.RunID, "error", summary.Error)
		}
	})
	if err != nil {
		log.Fatalf("invalid PIPELINE_CRON %q: %v", schedule, err)
	}

	c.Start()
	slog.Info("scheduler started", "schedule", schedule)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("scheduler stopping")
	<-c.Stop().Done()
}

func buildLLMClient() (llm.Classifier, llm.NarrativeWriter, error) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		client := llm.NewAnthropicClient(key)
		return client, client, nil
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		client := llm.NewOpenAIClient(key)
		return client, client, nil
	}
	return nil, nil, errNoLLMKey
}

func buildMarketClient() market.Client {
	if key := os.Getenv("FINNHUB_API_KEY"); key != "" {
		return market.NewFinnhubClient(key)
	}
	return market.NewYahooClient()
}
