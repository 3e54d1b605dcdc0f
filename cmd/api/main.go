package main

import (
	"errors"
	"log"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/njpastrone/industry-trend-tracker/db"
	"github.com/njpastrone/industry-trend-tracker/internal/handler"
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

	store := repository.NewStore(database)

	classifier, writer, err := buildLLMClient()
	if err != nil {
		log.Fatalf("error configuring LLM client: %v", err)
	}

	p := pipeline.New(store, feeds.NewGoogleNewsClient(), classifier, writer, buildMarketClient())

	var state handler.RunState
	if runState != nil {
		state = runState
		p.Recorder = runState
	}

	sectorHandler := handler.NewSectorHandler(store)
	pipelineHandler := handler.NewPipelineHandler(p, state)

	r := gin.Default()

	allowedOrigins := []string{"http://localhost:3000"}

	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	slog.Info("AllowOrigins URL:", "urls", allowedOrigins)

	r.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	r.GET("/api/health", sectorHandler.GetHealth)
	r.GET("/api/init", sectorHandler.GetInit)
	r.GET("/api/sectors", sectorHandler.GetSectors)
	r.GET("/api/sectors/:id", sectorHandler.GetSectorDetail)
	r.GET("/api/signals", sectorHandler.SearchSignals)
	r.GET("/api/config/signal-types", sectorHandler.GetSignalTypes)
	r.POST("/api/pipeline/run", pipelineHandler.TriggerRun)
	r.POST("/api/pipeline/financials", pipelineHandler.TriggerFinancials)
	r.GET("/api/pipeline/last-run", pipelineHandler.GetLastRun)

	err = r.Run(":8080")
	if err != nil {
		log.Fatalf("error starting server: %v", err)
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
