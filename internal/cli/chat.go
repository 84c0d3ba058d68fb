package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"digitaltwin/internal/shell"
	"digitaltwin/internal/summarizer"
	"digitaltwin/internal/tui"
)

var chatPlain bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	Long: `Start an interactive chat with the twin. Type exit or quit to leave.
Use --plain for a line-based prompt when no full-screen terminal is available.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "line-based prompt instead of the full-screen UI")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if err := initLogger(appCfg, !chatPlain); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	twin, err := buildTwin(ctx, appCfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer twin.Close()

	if chatPlain {
		cmd.Printf("Chatting with %s (%s mode). Type exit to quit.\n\n", twin.Persona(), twin.Mode())
		return shell.New(twin, cmd.InOrStdin(), cmd.OutOrStdout(), twin.Persona()).Run(ctx)
	}

	banner := twin.Banner(summarizer.NewFrequencySummarizer(), appCfg.Summarizer.MaxSentences)
	m := tui.New(ctx, twin, twin.Persona(), banner, string(twin.Mode()))
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
