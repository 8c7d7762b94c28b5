package main

// Extract a resume and print the structured profile:
//   go run ./cmd/parseresume -resume ./cv.pdf
// Only print the extracted text:
//   go run ./cmd/parseresume -resume ./cv.pdf -text-only

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"profile-backend/internal/extract"
	openai "profile-backend/internal/llm/openai"
	"profile-backend/internal/profile"
	"profile-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	resumePath := flag.String("resume", "", "Path to resume file (pdf or docx)")
	outPath := flag.String("out", "", "Path to write JSON output (optional)")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	textOnly := flag.Bool("text-only", false, "Print extracted text and stop")
	flag.Parse()

	if strings.TrimSpace(*resumePath) == "" {
		exitErr("resume path is required")
	}

	resumeBytes, err := os.ReadFile(*resumePath)
	if err != nil {
		exitErr(fmt.Sprintf("read resume: %v", err))
	}
	fileName := filepath.Base(*resumePath)
	ctx := context.Background()

	resumeText, err := extract.ExtractText(ctx, resumeBytes, "", fileName)
	if err != nil {
		exitErr(fmt.Sprintf("extract resume text: %v", err))
	}
	if *textOnly {
		fmt.Println(resumeText)
		return
	}

	client := openai.NewClient(openai.Options{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   *model,
	})
	result, err := client.ExtractProfile(ctx, resumeText)
	if err != nil {
		exitErr(fmt.Sprintf("llm extract: %v", err))
	}
	draft := profile.Overwrite{}.Reconcile(profile.Empty(), result.NormalizeDates())

	pretty, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}
	pretty = append(pretty, '\n')

	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
