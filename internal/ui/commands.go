package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bz888/oblaka/internal/chat"
	"github.com/bz888/oblaka/internal/prefs"
)

const helpText = `Here are some commands you can use:
- /help: Display this help message
- /bye: Exit the application (also /quit, /exit)
- /debug: Toggle the debug console
- /models: Focus the model selector
- /clear: Clear the conversation
- /export: Save the conversation to a text file
- /sound: Toggle the completion bell
- /autoscroll: Toggle scrolling to the newest message
- /temp <0-2>: Show or set the temperature
- /example <n>: Send one of the example questions
Enter sends, Shift+Enter starts a new line, Tab moves to the model selector.`

type command struct {
	name string
	arg  string
}

var commandAliases = map[string]string{
	"help":       "help",
	"bye":        "bye",
	"quit":       "bye",
	"exit":       "bye",
	"debug":      "debug",
	"models":     "models",
	"clear":      "clear",
	"export":     "export",
	"sound":      "sound",
	"autoscroll": "autoscroll",
	"temp":       "temp",
	"example":    "example",
}

// parseCommand recognises a slash command. Anything else, including unknown
// slash words, is a chat message.
func parseCommand(input string) (command, bool) {
	text := strings.TrimSpace(input)
	if !strings.HasPrefix(text, "/") {
		return command{}, false
	}
	word, arg, _ := strings.Cut(text[1:], " ")
	name, ok := commandAliases[strings.ToLower(word)]
	if !ok {
		return command{}, false
	}
	return command{name: name, arg: strings.TrimSpace(arg)}, true
}

func (u *UI) submit(text string) {
	if cmd, ok := parseCommand(text); ok {
		u.dispatch(chat.InputChanged{Text: ""})
		u.handleCommand(cmd)
		return
	}
	if text != u.state.Input {
		u.dispatch(chat.InputChanged{Text: text})
	}
	u.dispatch(chat.SendRequested{At: u.now()})
}

func (u *UI) handleCommand(cmd command) {
	u.log.Debug().Str("command", cmd.name).Str("arg", cmd.arg).Msg("command")

	switch cmd.name {
	case "help":
		u.setNotice(helpText)
	case "bye":
		u.setNotice("Bye bye")
		u.quitApp()
	case "debug":
		u.toggleDebugConsole()
	case "models":
		u.app.SetFocus(u.modelSelect)
	case "clear":
		u.dispatch(chat.ClearRequested{})
	case "export":
		u.export()
	case "sound":
		p := u.state.Prefs
		p.SoundEnabled = !p.SoundEnabled
		u.dispatch(chat.PreferencesChanged{Prefs: p})
		u.setNotice("Sound " + onOff(p.SoundEnabled))
	case "autoscroll":
		p := u.state.Prefs
		p.AutoScroll = !p.AutoScroll
		u.dispatch(chat.PreferencesChanged{Prefs: p})
		u.setNotice("Auto-scroll " + onOff(p.AutoScroll))
	case "temp":
		if cmd.arg == "" {
			u.setNotice(fmt.Sprintf("Temperature is %.1f", u.state.Temperature()))
			return
		}
		p, err := withTemperature(u.state.Prefs, cmd.arg)
		if err != nil {
			u.setNotice(err.Error())
			return
		}
		u.dispatch(chat.PreferencesChanged{Prefs: p})
		u.setNotice("Temperature set to " + p.Temperature)
	case "example":
		question, err := exampleQuestion(cmd.arg)
		if err != nil {
			u.setNotice(err.Error())
			return
		}
		u.dispatch(chat.ExampleSelected{Question: question, At: u.now()})
	}
}

func (u *UI) export() {
	path, err := chat.WriteExport(u.opts.ExportDir, u.state.Transcript, u.now())
	if err != nil {
		u.log.Error().Err(err).Msg("export failed")
		u.setNotice("Export failed: " + err.Error())
		return
	}
	u.log.Info().Str("path", path).Int("entries", len(u.state.Transcript)).Msg("conversation exported")
	u.setNotice("Conversation exported to " + path)
}

// withTemperature stores raw clamped to the accepted range.
func withTemperature(p prefs.Preferences, raw string) (prefs.Preferences, error) {
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return p, fmt.Errorf("temperature must be a number between %.0f and %.0f", chat.MinTemperature, chat.MaxTemperature)
	}
	p.Temperature = strconv.FormatFloat(chat.ParseTemperature(raw), 'f', -1, 64)
	return p, nil
}

func exampleQuestion(arg string) (string, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(chat.ExampleQuestions) {
		return "", errors.New("pick an example between 1 and " + strconv.Itoa(len(chat.ExampleQuestions)))
	}
	return chat.ExampleQuestions[n-1], nil
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
