package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the answer record as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := initLogger(appCfg, true); err != nil {
		return err
	}
	ctx := contextOf(cmd)
	twin, err := buildTwin(ctx, appCfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer twin.Close()

	a, err := twin.Ask(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if askJSON {
		data, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	cmd.Println(a.Text)
	return nil
}
