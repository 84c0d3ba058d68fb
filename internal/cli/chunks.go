package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"digitaltwin/internal/chunker"
	"digitaltwin/internal/profile"
)

var chunksJSON bool

var chunksCmd = &cobra.Command{
	Use:   "chunks",
	Short: "Print the chunks the profile produces",
	Long: `Print the chunks the profile document is split into before upload to
the similarity index. Needs no credentials.`,
	Args: cobra.NoArgs,
	RunE: runChunks,
}

func init() {
	chunksCmd.Flags().BoolVar(&chunksJSON, "json", false, "output chunks as JSON")
	rootCmd.AddCommand(chunksCmd)
}

func runChunks(cmd *cobra.Command, _ []string) error {
	doc, err := profile.Load(appCfg.Profile.Path)
	if err != nil {
		return err
	}
	chunks, err := chunker.NewProfileChunker(appCfg.Chunker.MaxChunkChars).Chunk(doc)
	if err != nil {
		return err
	}

	if chunksJSON {
		data, err := json.MarshalIndent(chunks, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal chunks: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	for _, c := range chunks {
		cmd.Printf("[%s] %s (%s)\n  %s\n\n", c.ID, c.Title, c.Type, c.Content)
	}
	cmd.Printf("%d chunks\n", len(chunks))
	return nil
}
