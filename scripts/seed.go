// Seed script that replays a week of sample reflections against a running
// server so the dashboard has something to show.
// Run with: go run ./scripts/seed.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type entry struct {
	Content string `json:"content"`
	Context string `json:"context,omitempty"`
}

var entries = []entry{
	{Content: "Big week at work. I need to save money and stick to my budget until the bonus lands."},
	{Content: "Skipped the team dinner, I am feeling socially exhausted and need to be alone."},
	{Content: "Booked a climbing trip. I want to take a big risk and try something dangerous for once."},
	{Content: "Saw old friends on Saturday. I feel energized by spending time with my friends."},
	{Content: "Reading about index funds, I am looking for ways to invest and grow my wealth."},
	{Content: "Honestly the trip is making me nervous. I prefer to stay safe and avoid any unnecessary danger.", Context: "clarification"},
	{Content: "I want to go out, meet people, and go to a party this weekend."},
}

func main() {
	envFile := os.Getenv("ECHOFORM_ENV")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	baseURL := os.Getenv("SEED_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	apiKey := os.Getenv("API_KEY")

	client := &http.Client{Timeout: 30 * time.Second}
	for i, e := range entries {
		body, err := json.Marshal(e)
		if err != nil {
			log.Fatalf("Failed to encode entry %d: %v", i, err)
		}

		req, err := http.NewRequest(http.MethodPost, baseURL+"/v1/entry", bytes.NewReader(body))
		if err != nil {
			log.Fatalf("Failed to build request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+apiKey)
		}

		resp, err := client.Do(req)
		if err != nil {
			log.Fatalf("Failed to submit entry %d: %v", i, err)
		}
		var hyps []struct {
			Label           string  `json:"label"`
			ConfidenceScore float64 `json:"confidence_score"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&hyps)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			log.Fatalf("Entry %d rejected: %s", i, resp.Status)
		}
		for _, h := range hyps {
			fmt.Printf("  %-22s %.3f\n", h.Label, h.ConfidenceScore)
		}
	}

	fmt.Println()
	fmt.Println("========================================")
	fmt.Printf("Seeded %d reflections\n", len(entries))
	fmt.Printf("Dashboard: %s/v1/dashboard\n", baseURL)
	fmt.Println("========================================")
}
