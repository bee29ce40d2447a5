// ABOUTME: Benchmark scenario definitions for retrieval evaluation
// ABOUTME: Each scenario pairs a fixture corpus with a question and ground truth

package ragas

// TestScenario represents a complete retrieval benchmark test
type TestScenario struct {
	ID          string
	Name        string
	Description string
	Corpus      map[string]string // file name -> document content
	Question    string
	TopK        int
	GroundTruth GroundTruth
}

// GroundTruth defines expected outcomes for evaluation
type GroundTruth struct {
	// Strings that MUST appear in the generated answer
	ExpectedInAnswer []string
	// Strings that MUST NOT appear in the generated answer
	ForbiddenInAnswer []string
	// Strings that should appear in the retrieved chunk texts
	ExpectedInContext []string
	// Files the retrieval should have drawn from
	ExpectedSources []string
}

// TestResult represents the outcome of a benchmark test
type TestResult struct {
	TestID              string
	TestName            string
	FaithfulnessScore   float64
	ContextRecallScore  float64
	SourceAccuracyScore float64
	OverallScore        float64
	Status              string // "PASS" or "FAIL"
	Details             map[string]interface{}
	ErrorMessage        string
}

// GetNeedleTest returns the needle scenario: one credential buried in a
// corpus of unrelated setup notes, asked for with a vague query.
func GetNeedleTest() TestScenario {
	return TestScenario{
		ID:          "needle",
		Name:        "Needle Retrieval (Zero-Keyword Recall)",
		Description: "Tests vague query interpretation - the model must understand 'credential' refers to the stored API key",
		Corpus: map[string]string{
			"credentials.txt": "The weather service issues one API key per account. " +
				"Our key is ABC123XYZ. Keep it out of version control and rotate it " +
				"every quarter through the provider dashboard.",
			"layout.md": "Dashboard layout notes. The weather dashboard uses a " +
				"two-column grid with the current conditions panel on the left and " +
				"the five-day forecast on the right. Temperature and humidity get " +
				"their own cards above the fold.",
			"styling.md": "Styling guide. Stick to the house palette: slate " +
				"backgrounds, amber accents for warnings, no drop shadows. All " +
				"widths are expressed in rem units so the dashboard scales with the " +
				"browser font size.",
			"errors.md": "Error handling notes. Every request to the forecast " +
				"endpoint should retry twice on a timeout and then fall back to the " +
				"cached reading. Surface a banner when data is more than an hour " +
				"stale.",
			"caching.md": "Caching policy. Forecast responses are cached for ten " +
				"minutes per city. Current conditions are cached for two minutes. " +
				"The cache is keyed on city plus unit system.",
		},
		Question: "What credential do I need to call the weather service? Respond with only the credential value.",
		TopK:     3,
		GroundTruth: GroundTruth{
			ExpectedInAnswer:  []string{"ABC123XYZ"},
			ForbiddenInAnswer: []string{},
			ExpectedInContext: []string{"ABC123XYZ"},
			ExpectedSources:   []string{"credentials.txt"},
		},
	}
}

// GetAttributionTest returns the attribution scenario: the answer lives in
// exactly one document and retrieval must surface that document.
func GetAttributionTest() TestScenario {
	return TestScenario{
		ID:          "attribution",
		Name:        "Source Attribution (Single Relevant Document)",
		Description: "Tests that the retrieved context comes from the one document that answers the question",
		Corpus: map[string]string{
			"runbook.md": "Database operations runbook. Nightly backups run at " +
				"02:00 UTC via pg_dump and land in the acme-backups bucket. " +
				"Restores are rehearsed on the first Monday of each month against " +
				"the staging replica.",
			"oncall.md": "On-call escalation policy. Page the primary first. If " +
				"there is no acknowledgement within fifteen minutes, page the " +
				"secondary, then the engineering manager. All pages go through the " +
				"alerting service, never by direct message.",
			"deploy.md": "Deployment checklist. Merge to main, wait for the " +
				"pipeline to go green, then promote the build to production with " +
				"the release tool. Roll back by promoting the previous build, not " +
				"by reverting commits.",
		},
		Question: "When do database backups run and where do they end up?",
		TopK:     2,
		GroundTruth: GroundTruth{
			ExpectedInAnswer:  []string{"02:00"},
			ForbiddenInAnswer: []string{},
			ExpectedInContext: []string{"pg_dump", "acme-backups"},
			ExpectedSources:   []string{"runbook.md"},
		},
	}
}

// GetDistractorTest returns the distractor scenario: two near-identical
// documents where only one holds the asked-for value.
func GetDistractorTest() TestScenario {
	return TestScenario{
		ID:          "distractor",
		Name:        "Distractor Rejection (Environment Confusion)",
		Description: "Tests that the answer draws on the production document and does not leak the staging value",
		Corpus: map[string]string{
			"production.md": "Production cluster reference. The production API " +
				"endpoint is https://api.acme.com and requests authenticate with " +
				"the token PRD-9911. Only the release pipeline may write to this " +
				"environment.",
			"staging.md": "Staging cluster reference. The staging API endpoint " +
				"is https://staging.api.acme.dev and requests authenticate with " +
				"the token STG-4455. Anyone on the team may deploy here at any " +
				"time.",
			"glossary.md": "Glossary. A cluster is a group of machines managed " +
				"as one unit. An endpoint is the base URL a client calls. A token " +
				"is a shared secret presented with each request.",
		},
		Question: "Which token do we use against the production cluster? Respond with only the token.",
		TopK:     2,
		GroundTruth: GroundTruth{
			ExpectedInAnswer:  []string{"PRD-9911"},
			ForbiddenInAnswer: []string{"STG-4455"},
			ExpectedInContext: []string{"PRD-9911"},
			ExpectedSources:   []string{"production.md"},
		},
	}
}

// GetAllTests returns all benchmark tests
func GetAllTests() []TestScenario {
	return []TestScenario{
		GetNeedleTest(),
		GetAttributionTest(),
		GetDistractorTest(),
	}
}
