package console

import (
	"strings"

	"github.com/chzyer/readline"
)

const (
	Yes = "y"
	No  = "n"
)

var yesNoConstraints = []string{No, Yes}

// YesOrNo asks a question defaulting to no.
func YesOrNo(question string) (string, error) {
	return Prompt(question, yesNoConstraints...)
}

// Prompt reads one answer. The first constraint is the default, returned on
// empty or unmatched input.
func Prompt(question string, constraints ...string) (string, error) {
	if len(constraints) == 0 {
		rl, err := readline.New(question)
		if err != nil {
			return "", err
		}
		defer rl.Close()
		return rl.Readline()
	}
	var prompt strings.Builder
	prompt.WriteString(question)
	prompt.WriteString(" [")
	prompt.WriteString(strings.ToUpper(constraints[0]))
	for i := 1; i < len(constraints); i++ {
		prompt.WriteString("/")
		prompt.WriteString(constraints[i])
	}
	prompt.WriteString("]: ")
	rl, err := readline.New(prompt.String())
	if err != nil {
		return "", err
	}
	defer rl.Close()
	response, err := rl.Readline()
	if err != nil {
		return "", err
	}
	return matchConstraint(response, constraints), nil
}

func matchConstraint(response string, constraints []string) string {
	normalized := strings.ToLower(strings.TrimSpace(response))
	for _, c := range constraints {
		if normalized == c {
			return normalized
		}
	}
	return constraints[0]
}

// Shell is a line editor with history and command completion.
type Shell struct {
	rl *readline.Instance
}

func NewShell(prompt string, commands ...string) (*Shell, error) {
	items := make([]readline.PrefixCompleterInterface, 0, len(commands))
	for _, c := range commands {
		items = append(items, readline.PcItem(c))
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}
	return &Shell{rl: rl}, nil
}

// Next returns the next line split into fields. io.EOF and
// readline.ErrInterrupt end the session.
func (s *Shell) Next() ([]string, error) {
	line, err := s.rl.Readline()
	if err != nil {
		return nil, err
	}
	return strings.Fields(line), nil
}

func (s *Shell) Close() error {
	return s.rl.Close()
}
