package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shirooni/typebot/internal/phrase"
	"github.com/shirooni/typebot/internal/prompt"
)

var phraseCmd = &cobra.Command{
	Use:   "phrase",
	Short: "Print sample speed-test phrases from the configured model",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("count")

		events, err := openEventLog()
		if err != nil {
			return err
		}
		defer events.Close()

		words := prompt.NewGenerator()
		filler := &phrase.Filler{Random: words, Probability: 1, Timeout: cfg.PhraseTimeout}
		if p := newLLMProvider(cmd.Context(), events); p != nil {
			filler.Source = phrase.NewGenerator(p, words.IntN)
		} else {
			fmt.Println("No LLM provider configured; showing fallback names.")
		}

		for i := range n {
			text, kind := filler.Fill(cmd.Context())
			fmt.Printf("%2d. [%-6s] %s\n", i+1, kind, text)
		}
		return nil
	},
}

func init() {
	phraseCmd.Flags().IntP("count", "n", 5, "Number of phrases to generate")
}
