// Package agent composes the honeypot's "victim" side: a generated persona
// and template-driven replies that keep a scammer engaged while the
// detection layers accumulate evidence. Replies are table lookups, no
// language model is involved.
package agent

import (
	"math/rand"

	"github.com/google/uuid"
)

// Persona is the simulated victim the agent plays for one session.
type Persona struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Age            int    `json:"age"`
	Gender         string `json:"gender"`
	Occupation     string `json:"occupation"`
	Bank           string `json:"bank"`
	Location       string `json:"location"`
	TechSavvy      string `json:"tech_savvy"`
	EmotionalState string `json:"emotional_state"`
	TypingStyle    string `json:"typing_style"`
}

var (
	maleNames = []string{
		"Rajesh", "Amit", "Vikram", "Rahul", "Suresh", "Deepak",
		"Arun", "Sanjay", "Manoj", "Vijay", "Ramesh", "Ashok",
	}
	femaleNames = []string{
		"Priya", "Sunita", "Anjali", "Neha", "Kavita", "Pooja",
		"Meera", "Rekha", "Anita", "Lakshmi", "Geeta", "Shanti",
	}
	lastNames = []string{
		"Kumar", "Sharma", "Patel", "Singh", "Verma", "Gupta", "Reddy",
		"Yadav", "Joshi", "Agarwal", "Mehta", "Iyer", "Nair", "Das",
	}
	occupations = []string{
		"retired teacher", "small business owner", "farmer", "housewife",
		"government employee", "shopkeeper", "retired bank employee",
		"private job holder", "senior citizen", "homemaker",
	}
	banks = []string{
		"SBI", "HDFC Bank", "ICICI Bank", "Axis Bank", "Punjab National Bank",
		"Bank of Baroda", "Canara Bank", "Union Bank", "Indian Bank",
	}
	locations = []string{
		"Delhi", "Mumbai", "Bangalore", "Chennai", "Kolkata", "Hyderabad",
		"Pune", "Ahmedabad", "Jaipur", "Lucknow", "Patna", "Bhopal",
	}
)

// GeneratePersona builds a believable elderly victim from the fixed tables.
// The randomness source is injected so tests can pin the outcome.
func GeneratePersona(rng *rand.Rand) Persona {
	gender := "male"
	first := maleNames[rng.Intn(len(maleNames))]
	if rng.Intn(2) == 1 {
		gender = "female"
		first = femaleNames[rng.Intn(len(femaleNames))]
	}

	return Persona{
		ID:             uuid.NewString(),
		Name:           first + " " + lastNames[rng.Intn(len(lastNames))],
		Age:            45 + rng.Intn(26),
		Gender:         gender,
		Occupation:     occupations[rng.Intn(len(occupations))],
		Bank:           banks[rng.Intn(len(banks))],
		Location:       locations[rng.Intn(len(locations))],
		TechSavvy:      pick(rng, "low", "low", "medium"),
		EmotionalState: pick(rng, "worried", "confused", "trusting"),
		TypingStyle:    pick(rng, "slow", "makes_typos", "formal"),
	}
}

func pick(rng *rand.Rand, options ...string) string {
	return options[rng.Intn(len(options))]
}
