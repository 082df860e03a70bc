// Command interview-sim runs a complete interview offline against a scripted
// generation service. It is a smoke harness for the round loop: no API key,
// no network, deterministic output. The trace prints each round's score and
// decision, then the final report in markdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/mcxraider/agentic-travel-planner-backend/internal/interview"
	"github.com/mcxraider/agentic-travel-planner-backend/internal/report"
)

// One envelope per generator call: the opening round plus three answer
// submissions. The service returns no data of its own here; the simulated
// traveler's answers drive the cumulative record.
var scriptedRounds = []string{
	`{"round": 1, "questions": [
		{"id": "q1", "field": "activity_preferences", "tier": 1, "question": "What kinds of activities are you most excited about?", "type": "multi_select", "options": ["Food", "Museums", "Nature", "Nightlife"]},
		{"id": "q2", "field": "pace_preference", "tier": 1, "question": "How packed do you like your days?", "type": "single_select", "options": ["Relaxed", "Moderate", "Packed"]},
		{"id": "q3", "field": "tourist_vs_local", "tier": 1, "question": "Headline sights or local neighborhoods?", "type": "single_select", "options": ["Tourist highlights", "Local spots", "A mix"]},
		{"id": "q4", "field": "mobility_level", "tier": 1, "question": "How much walking are you comfortable with?", "type": "single_select", "options": ["Minimal", "Moderate", "A lot"]},
		{"id": "q5", "field": "dining_style", "tier": 1, "question": "What is your dining style?", "type": "single_select", "options": ["Street food", "Casual", "Fine dining"]}
	], "state": {"collected": []}, "data": {}}`,
	`{"round": 2, "questions": [
		{"id": "q6", "field": "wifi_need", "tier": 3, "question": "You mentioned work obligations. How critical is reliable wifi?", "type": "single_select", "options": ["Essential", "Nice to have"]},
		{"id": "q7", "field": "top_3_must_dos", "tier": 2, "question": "Name up to three must-do experiences.", "type": "ranked_list", "max_selections": 3},
		{"id": "q8", "field": "transportation_mode", "tier": 2, "question": "How do you prefer to get around?", "type": "single_select", "options": ["Public transit", "Walking", "Taxis"]}
	], "state": {"collected": ["activity_preferences", "pace_preference", "tourist_vs_local", "mobility_level", "dining_style"]}, "data": {}}`,
	`{"round": 3, "questions": [
		{"id": "q9", "field": "daily_rhythm", "tier": 4, "question": "Early starts or slow mornings?", "type": "single_select", "options": ["Early riser", "Slow mornings"]}
	], "state": {"collected": ["activity_preferences", "pace_preference", "tourist_vs_local", "mobility_level", "dining_style", "wifi_need", "top_3_must_dos", "transportation_mode", "arrival_time", "departure_time", "budget_priority", "accommodation_style"]}, "data": {}}`,
	`{"round": 4, "questions": [], "state": {"collected": []}, "data": {}}`,
}

// Answers keyed by the round that asked for them.
var scriptedAnswers = []map[string]any{
	{
		"activity_preferences": []string{"Food", "Museums"},
		"pace_preference":      "Moderate",
		"tourist_vs_local":     "A mix",
		"mobility_level":       "A lot",
		"dining_style":         "Street food",
	},
	{
		"wifi_need":           "Essential",
		"top_3_must_dos":      []string{"Teamlab", "Tsukiji market", "Day trip to Hakone"},
		"transportation_mode": "Public transit",
		"arrival_time":        "morning",
		"departure_time":      "evening",
		"budget_priority":     "Food over lodging",
		"accommodation_style": "Boutique hotel",
	},
	{
		"daily_rhythm": "Early riser",
	},
}

func main() {
	out := flag.String("out", "", "Write the final markdown report to this file (default stdout)")
	flag.Parse()

	profile := interview.Profile{
		UserName:        "Dana",
		Citizenship:     "Singapore",
		WorkObligations: "Remote standup two mornings",
		Destination:     "Japan",
		StartDate:       "2026-03-02",
		EndDate:         "2026-03-09",
		TripDuration:    8,
		Budget:          4000,
		Currency:        "SGD",
		TravelParty:     "2 adults",
		BudgetScope:     "Total trip budget",
	}

	cfg := interview.DefaultTierConfig()
	ctrl := interview.NewController(&interview.ScriptedGenerator{Responses: scriptedRounds}, cfg)
	session := interview.NewSession("sim", profile, cfg, time.Now().UTC())

	ctx := context.Background()
	res, err := ctrl.Start(ctx, session)
	if err != nil {
		log.Fatalf("start: %v", err)
	}
	printRound("start", res)

	for i, answers := range scriptedAnswers {
		if session.Complete {
			break
		}
		res, err = ctrl.Submit(ctx, session, answers)
		if err != nil {
			log.Fatalf("round %d: %v", i+1, err)
		}
		printRound(fmt.Sprintf("round %d submitted", i+1), res)
	}

	if !session.Complete {
		log.Fatalf("interview did not complete within %d rounds", cfg.MaxRounds)
	}

	md := report.BuildMarkdown(session, res.Scoring, cfg)
	if *out == "" {
		fmt.Println(md)
		return
	}
	if err := os.WriteFile(*out, []byte(md), 0o644); err != nil {
		log.Fatalf("write report: %v", err)
	}
	fmt.Printf("report written to %s\n", *out)
}

func printRound(label string, res interview.StepResult) {
	fmt.Printf("== %s: score=%d complete=%t (%s)\n", label, res.Score, res.Complete, res.Reason)
	for _, q := range res.Questions {
		fmt.Printf("   [tier %d] %s\n", q.Tier, q.Question)
	}
	if len(res.Questions) > 0 {
		fmt.Println(strings.Repeat("-", 40))
	}
}
