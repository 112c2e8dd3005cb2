package llm

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
)

const defaultSystemPrompt = `You are a financial receipt parser. You answer with a single JSON object and nothing else.`

const defaultUserPrompt = `Extract the payment facts from the OCR text of a payment receipt below.

Rules:
- "amount": the total that was actually paid. Not a tax, not a commission or fee, not a balance, not an estimate.
  Look for phrases such as «Итого», «Сумма платежа», «Сумма перевода», «К оплате».
- "date": the date the transaction happened, not the date the document was generated. Format YYYY-MM-DD; the time is irrelevant.
- "currency": ISO 4217 code, RUB when not stated.
- "confidence": a number between 0 and 1 saying how sure you are.
- Use null for anything you cannot find. Never guess.

Answer with JSON only: {"amount": number|null, "date": "YYYY-MM-DD"|null, "currency": "RUB", "confidence": number}

OCR text:
{{.Text}}`

// promptSeparator splits a prompt file into its system and user halves.
const promptSeparator = "---"

// PromptData is what the prompt templates are executed with.
type PromptData struct {
	Text  string
	Hints Hints
}

// Prompt holds the two message templates sent to the model.
type Prompt struct {
	system *template.Template
	user   *template.Template
}

// DefaultPrompt returns the built-in prompt.
func DefaultPrompt() Prompt {
	p, err := NewPrompt(defaultSystemPrompt, defaultUserPrompt)
	if err != nil {
		panic(err)
	}
	return p
}

func NewPrompt(system, user string) (Prompt, error) {
	st, err := template.New("system").Option("missingkey=zero").Parse(system)
	if err != nil {
		return Prompt{}, fmt.Errorf("parse system prompt: %w", err)
	}
	ut, err := template.New("user").Option("missingkey=zero").Parse(user)
	if err != nil {
		return Prompt{}, fmt.Errorf("parse user prompt: %w", err)
	}
	return Prompt{system: st, user: ut}, nil
}

// LoadPrompt reads a prompt file: the system template, a line holding only
// "---", then the user template.
func LoadPrompt(path string) (Prompt, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Prompt{}, fmt.Errorf("read prompt file: %w", err)
	}

	var sys, user strings.Builder
	cur := &sys
	found := false
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := sc.Text()
		if !found && strings.TrimSpace(line) == promptSeparator {
			cur, found = &user, true
			continue
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return Prompt{}, fmt.Errorf("scan prompt file: %w", err)
	}
	if !found {
		return Prompt{}, fmt.Errorf("prompt file %s: missing %q separator line", path, promptSeparator)
	}
	return NewPrompt(strings.TrimSpace(sys.String()), strings.TrimSpace(user.String()))
}

// Render executes both templates.
func (p Prompt) Render(data PromptData) (system, user string, err error) {
	if p.system == nil || p.user == nil {
		p = DefaultPrompt()
	}
	var sb, ub strings.Builder
	if err := p.system.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("render system prompt: %w", err)
	}
	if err := p.user.Execute(&ub, data); err != nil {
		return "", "", fmt.Errorf("render user prompt: %w", err)
	}
	return sb.String(), ub.String(), nil
}
