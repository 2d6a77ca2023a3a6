// Package input parses the TUI prompt line.
package input

import "strings"

// Command is one slash command shown as a hint under the prompt.
type Command struct {
	Name        string
	Description string
}

// Prompt command names.
const (
	CmdChat     = "/chat"
	CmdAdd      = "/add"
	CmdSchedule = "/schedule"
	CmdOptimize = "/optimize"
)

// Commands lists the commands the prompt understands.
var Commands = []Command{
	{Name: CmdAdd, Description: "Add a task from free text"},
	{Name: CmdChat, Description: "Ask the assistant"},
	{Name: CmdOptimize, Description: "Let the assistant place pending tasks"},
	{Name: CmdSchedule, Description: "Place pending tasks in free time"},
}

// Parse splits a prompt line into a command and its argument. Text without
// a leading command is a chat message.
func Parse(line string) (cmd, arg string) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return CmdChat, line
	}
	name, rest, _ := strings.Cut(line, " ")
	return strings.ToLower(name), strings.TrimSpace(rest)
}

// Suggest returns the commands whose name starts with a partially typed
// command. Once an argument is being typed nothing is suggested.
func Suggest(value string) []Command {
	prefix := strings.ToLower(strings.TrimLeft(value, " "))
	if !strings.HasPrefix(prefix, "/") || strings.Contains(prefix, " ") {
		return nil
	}
	var out []Command
	for _, c := range Commands {
		if strings.HasPrefix(c.Name, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Complete extends value to the longest prefix shared by every suggestion.
// A unique match is completed with a trailing space. It reports whether
// value changed.
func Complete(value string) (string, bool) {
	matches := Suggest(value)
	switch len(matches) {
	case 0:
		return value, false
	case 1:
		return matches[0].Name + " ", true
	}

	common := matches[0].Name
	for _, c := range matches[1:] {
		for !strings.HasPrefix(c.Name, common) {
			common = common[:len(common)-1]
		}
	}
	typed := strings.ToLower(strings.TrimLeft(value, " "))
	if len(common) <= len(typed) {
		return value, false
	}
	return common, true
}
