package llm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultPromptEmbedsText(t *testing.T) {
	sys, user, err := DefaultPrompt().Render(PromptData{Text: "Итого: 500", Hints: Hints{KnownDate: "2025-01-01"}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sys, "JSON") {
		t.Errorf("system prompt does not ask for JSON: %q", sys)
	}
	if !strings.HasSuffix(user, "Итого: 500") {
		t.Errorf("user prompt does not end with the text: %q", user)
	}
	if strings.Contains(user, "2025-01-01") {
		t.Error("default prompt should not render hints")
	}
}

func TestLoadPrompt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.tmpl")
	content := "Only JSON.\n---\nBank: {{.Hints.BankHint}}\n{{.Text}}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPrompt(path)
	if err != nil {
		t.Fatal(err)
	}
	sys, user, err := p.Render(PromptData{Text: "текст", Hints: Hints{BankHint: "sber"}})
	if err != nil {
		t.Fatal(err)
	}
	if sys != "Only JSON." {
		t.Errorf("system = %q", sys)
	}
	if user != "Bank: sber\nтекст" {
		t.Errorf("user = %q", user)
	}
}

func TestLoadPromptErrors(t *testing.T) {
	dir := t.TempDir()
	noSep := filepath.Join(dir, "nosep.tmpl")
	badTmpl := filepath.Join(dir, "bad.tmpl")
	_ = os.WriteFile(noSep, []byte("just one part"), 0o644)
	_ = os.WriteFile(badTmpl, []byte("sys\n---\n{{.Text"), 0o644)

	for _, path := range []string{noSep, badTmpl, filepath.Join(dir, "missing.tmpl")} {
		if _, err := LoadPrompt(path); err == nil {
			t.Errorf("LoadPrompt(%s) = nil error", filepath.Base(path))
		}
	}
}
