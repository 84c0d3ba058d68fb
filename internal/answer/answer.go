// Package answer turns retrieved facts into a first-person reply that may
// only restate those facts.
package answer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"digitaltwin/internal/domain"
	"digitaltwin/internal/llm"
	"digitaltwin/internal/logger"
)

// Canonical replies.
const (
	RefusalPhrase = "That's not mentioned in my profile"
	NoInformation = "I don't have specific information about that topic."
	NoDetails     = "I found some information but couldn't extract details."
)

// DefaultPersona is used when the subject's name is unknown.
const DefaultPersona = "the profile owner"

// Options configures generation. Zero values fall back to the defaults of
// the llm package, a temperature of 0.1 and 500 tokens.
type Options struct {
	Persona     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Reply is a generated answer. Text is always displayable; when generation
// failed Err wraps domain.ErrGeneration and Text describes the failure.
type Reply struct {
	Text    string
	Refused bool
	Err     error
}

// Generator builds the grounded prompt and delegates to a Completer.
type Generator struct {
	completer llm.Completer
	opts      Options
}

func NewGenerator(completer llm.Completer, opts Options) *Generator {
	if strings.TrimSpace(opts.Persona) == "" {
		opts.Persona = DefaultPersona
	}
	if opts.Model == "" {
		opts.Model = llm.DefaultModel
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.1
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 500
	}
	return &Generator{completer: completer, opts: opts}
}

// Persona returns the name the generator speaks as.
func (g *Generator) Persona() string { return g.opts.Persona }

// Answer never returns a raw backend error: failures are rendered into
// Reply.Text. A context without any fact is refused without calling the model.
func (g *Generator) Answer(ctx context.Context, question string, facts []string) Reply {
	if !HasFacts(facts) {
		logger.Infow("no facts in context, refusing", "question_len", len(question))
		return Reply{Text: RefusalPhrase + ".", Refused: true}
	}

	start := time.Now()
	text, err := g.completer.Complete(ctx, llm.Request{
		Model: g.opts.Model,
		Messages: []llm.Message{
			{Role: "system", Content: g.SystemPrompt()},
			{Role: "user", Content: g.UserPrompt(question, facts)},
		},
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
	})
	if err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrGeneration, err)
		logger.Error("generation failed", err)
		return Reply{Text: "Error generating response: " + err.Error(), Err: err}
	}
	text = strings.TrimSpace(text)
	refused := strings.Contains(text, RefusalPhrase)
	logger.Infow("generation complete",
		"model", g.opts.Model,
		"duration", time.Since(start),
		"refusal", refused,
	)
	return Reply{Text: text, Refused: refused}
}

// SystemPrompt binds the model to the persona's first-person voice.
func (g *Generator) SystemPrompt() string {
	name := g.opts.Persona
	return fmt.Sprintf("You are %s's AI digital twin. CRITICAL: Only use information explicitly provided "+
		"in the user's context. Never add, assume, or invent details not present in the provided information. "+
		"If asked about something not in the context, clearly state you don't have that information. "+
		"Speak in first person as %s.", name, name)
}

// UserPrompt holds the closed-world rules, the facts and the question.
func (g *Generator) UserPrompt(question string, facts []string) string {
	name := g.opts.Persona
	var b strings.Builder
	fmt.Fprintf(&b, "You are answering as %s.\n\n", name)
	b.WriteString("STRICT RULES:\n")
	b.WriteString("1. Use ONLY the facts listed below - do not add ANY other information\n")
	b.WriteString("2. Do not mention any technologies, frameworks, or experience not explicitly listed\n")
	fmt.Fprintf(&b, "3. If something isn't listed below, say %q\n", RefusalPhrase)
	fmt.Fprintf(&b, "4. Speak as %s in first person\n\n", name)
	b.WriteString("VERIFIED FACTS FROM MY PROFILE:\n")
	b.WriteString(strings.Join(facts, "\n\n"))
	b.WriteString("\n\nQUESTION: ")
	b.WriteString(question)
	b.WriteString("\n\nANSWER (using only the verified facts above):")
	return b.String()
}

// HasFacts reports whether any line carries a value once every "Label:"
// and the connector words of the fact templates are removed.
func HasFacts(lines []string) bool {
	for _, line := range lines {
		rest := labelRe.ReplaceAllString(line, " ")
		for _, w := range strings.FieldsFunc(rest, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }) {
			if _, ok := templateWords[strings.ToLower(w)]; !ok {
				return true
			}
		}
	}
	return false
}

var (
	labelRe       = regexp.MustCompile(`\p{L}[\p{L} ]*:`)
	templateWords = map[string]struct{}{"at": {}, "from": {}, "graduating": {}}
)
