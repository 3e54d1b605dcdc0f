package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/njpastrone/industry-trend-tracker/db"
	"github.com/njpastrone/industry-trend-tracker/internal/pipeline"
	"github.com/njpastrone/industry-trend-tracker/internal/repository"
	"github.com/njpastrone/industry-trend-tracker/pkg/feeds"
	"github.com/njpastrone/industry-trend-tracker/pkg/llm"
	"github.com/njpastrone/industry-trend-tracker/pkg/market"
)

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

	summary := p.Run(context.Background())

	if summary.Error != "" {
		slog.Error("run finished with error", "run_id", summary.RunID, "error", summary.Error)
		os.Exit(1)
	}
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
