package userinteraction

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"browser-pilot/internal/application/port/output"
	"browser-pilot/internal/domain/entity"
	"browser-pilot/internal/domain/grammar"

	"github.com/fatih/color"
)

var _ output.UserInteractionPort = (*ConsoleUserInteraction)(nil)

type ConsoleUserInteraction struct {
	reader *bufio.Reader
	out    io.Writer
}

func NewConsoleUserInteraction() *ConsoleUserInteraction {
	return NewConsole(os.Stdin, color.Output)
}

func NewConsole(in io.Reader, out io.Writer) *ConsoleUserInteraction {
	return &ConsoleUserInteraction{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// AskQuestion returns io.EOF, wrapped, once input is exhausted.
func (u *ConsoleUserInteraction) AskQuestion(ctx context.Context, question string) (string, error) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(u.out, "\n%s\n> ", question)

	answer, err := u.reader.ReadString('\n')
	if err != nil && (err != io.EOF || answer == "") {
		return "", fmt.Errorf("failed to read user input: %w", err)
	}

	return strings.TrimSpace(answer), nil
}

func (u *ConsoleUserInteraction) ShowReply(ctx context.Context, reply string) {
	if reply == "" {
		return
	}
	blue := color.New(color.FgBlue, color.Bold)
	blue.Fprint(u.out, "\n🤖 ")
	fmt.Fprintln(u.out, reply)
}

func (u *ConsoleUserInteraction) ShowStep(ctx context.Context, index int, step entity.StepResult) {
	icon := actionIcon(step.Action.Kind)

	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Fprintf(u.out, "%s [%d] %s\n", icon, index+1, truncate(grammar.Serialize(step.Action), 100))

	if !step.Result.Success {
		red := color.New(color.FgRed)
		red.Fprint(u.out, "   ❌ Error: ")
		dim := color.New(color.Faint)
		dim.Fprintln(u.out, truncate(step.Result.Error, 300))
		return
	}

	green := color.New(color.FgGreen)
	green.Fprintf(u.out, "   ✓ %s\n", formatData(step.Result.Data))
}

func (u *ConsoleUserInteraction) ShowNotice(ctx context.Context, message string) {
	dim := color.New(color.Faint)
	dim.Fprintln(u.out, message)
}

func actionIcon(kind entity.ActionKind) string {
	icons := map[entity.ActionKind]string{
		entity.ActionNavigate:   "🌐",
		entity.ActionClick:      "🖱️",
		entity.ActionType:       "✏️",
		entity.ActionScroll:     "📜",
		entity.ActionScreenshot: "📸",
		entity.ActionGetText:    "📄",
		entity.ActionGetLinks:   "🔗",
		entity.ActionSearch:     "🔎",
		entity.ActionRemember:   "📝",
		entity.ActionRecall:     "💡",
		entity.ActionReflect:    "💭",
		entity.ActionDeny:       "⛔",
	}
	if icon, ok := icons[kind]; ok {
		return icon
	}
	return "🔧"
}

// formatData renders a result payload as sorted key=value pairs.
func formatData(data map[string]any) string {
	if len(data) == 0 {
		return "done"
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := data[k].(type) {
		case string:
			parts = append(parts, fmt.Sprintf("%s=%s", k, truncate(v, 80)))
		case []entity.Link:
			parts = append(parts, fmt.Sprintf("%s=%d", k, len(v)))
		default:
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	return strings.Join(parts, " ")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
