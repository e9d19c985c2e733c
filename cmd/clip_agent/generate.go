package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/clip-curator/internal/prompt"
)

var (
	generateCount    int
	generateSeed     int64
	generateDuration int
	generateMood     string
	generateSubject  string
	generateZone     string
	generateStyle    string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Print sample clip requests",
	Long:  "Build sample free-text clip requests from the preset tables, for trying out rank and select.",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", 1, "Number of requests")
	generateCmd.Flags().Int64Var(&generateSeed, "seed", 0, "Random seed (default time based)")
	generateCmd.Flags().IntVar(&generateDuration, "duration", 0, "Clip length in seconds")
	generateCmd.Flags().StringVar(&generateMood, "mood", "", "Mood preset")
	generateCmd.Flags().StringVar(&generateSubject, "subject", "", "Subject preset")
	generateCmd.Flags().StringVar(&generateZone, "zone", "", "Zone preset")
	generateCmd.Flags().StringVar(&generateStyle, "style", "", "Style preset")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(_ *cobra.Command, _ []string) error {
	if generateCount < 1 {
		return fmt.Errorf("--count must be at least 1")
	}
	seed := generateSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	opts := prompt.GenerateOptions{
		Duration: generateDuration,
		Mood:     generateMood,
		Subject:  generateSubject,
		Zone:     generateZone,
		Style:    generateStyle,
	}
	for i := 0; i < generateCount; i++ {
		fmt.Println(prompt.Generate(opts, rng))
	}
	return nil
}
