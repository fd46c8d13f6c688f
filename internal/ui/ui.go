// Package ui is the terminal chat client. It renders chat.State with tview
// and turns widget callbacks and network results into chat events.
package ui

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog"

	"github.com/bz888/oblaka/internal/api"
	"github.com/bz888/oblaka/internal/chat"
	"github.com/bz888/oblaka/internal/logger"
	"github.com/bz888/oblaka/internal/prefs"
)

// Backend is the proxy API used by the client.
type Backend interface {
	Health(ctx context.Context) (*api.HealthStatus, error)
	ListModels(ctx context.Context) ([]api.ModelDescriptor, error)
	Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
}

// Options configures a UI.
type Options struct {
	Backend        Backend
	Storage        prefs.Storage
	Console        *tview.TextView
	HealthInterval time.Duration
	ExportDir      string
	Dev            bool
}

// UI owns the tview application. state is only read or written on the
// tview event goroutine.
type UI struct {
	app     *tview.Application
	backend Backend
	storage prefs.Storage
	opts    Options
	log     zerolog.Logger
	now     func() time.Time

	state chat.State

	pages        *tview.Pages
	mainFlex     *tview.Flex
	textView     *tview.TextView
	textArea     *tview.TextArea
	statusBar    *tview.TextView
	footer       *tview.TextView
	modelSelect  *tview.DropDown
	confirm      *tview.Modal
	debugConsole *tview.TextView

	notice          string
	noticeAt        int
	debugVisible    bool
	confirmShown    bool
	loadingShown    bool
	renderingModels bool
	shownModels     []chat.ModelOption

	screenMu sync.Mutex
	screen   tcell.Screen

	ctx context.Context
}

// NewDebugConsole creates the view the dev logger writes to. It exists
// before the UI so logging can be set up first.
func NewDebugConsole() *tview.TextView {
	console := tview.NewTextView().
		SetDynamicColors(true).
		SetRegions(true).
		SetWordWrap(true)

	console.SetTitle("Debugger").SetBorder(true)
	console.ScrollToEnd()
	return console
}

// New builds the widgets and loads the stored preferences.
func New(opts Options) *UI {
	u := &UI{
		app:     tview.NewApplication(),
		backend: opts.Backend,
		storage: opts.Storage,
		opts:    opts,
		log:     logger.NewLogger("views"),
		now:     time.Now,
		ctx:     context.Background(),
	}
	u.app.EnablePaste(true)
	u.app.EnableMouse(true)

	p, err := prefs.Load(u.storage)
	if err != nil {
		u.log.Warn().Err(err).Msg("using default preferences")
	}
	u.state = chat.NewState(p)

	u.debugConsole = opts.Console
	if u.debugConsole == nil {
		u.debugConsole = NewDebugConsole()
	}
	u.debugConsole.SetChangedFunc(func() {
		u.app.Draw()
	})

	u.textView = u.initChatViewer()
	u.textArea = u.initChatInput()
	u.statusBar = tview.NewTextView().SetDynamicColors(true)
	u.footer = tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignRight)
	u.modelSelect = u.initModelSelect()
	u.confirm = u.initConfirm()
	u.layout()
	return u
}

func (u *UI) initChatViewer() *tview.TextView {
	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetRegions(true).
		SetWordWrap(true)

	textView.SetTitle("Conversation").SetBorder(true)
	textView.SetScrollable(true)
	textView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter, tcell.KeyTab:
			u.app.SetFocus(u.textArea)
			return nil
		}
		return event
	})
	return textView
}

func (u *UI) initChatInput() *tview.TextArea {
	textArea := tview.NewTextArea().SetPlaceholder("Type a message, /help for commands")
	textArea.SetTitle("Question").SetBorder(true)
	textArea.SetChangedFunc(func() {
		if text := textArea.GetText(); text != u.state.Input {
			u.dispatch(chat.InputChanged{Text: text})
		}
	})
	textArea.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyESC:
			if !u.state.Welcome() {
				u.app.SetFocus(u.textView)
			}
			return nil
		case tcell.KeyTab:
			u.app.SetFocus(u.modelSelect)
			return nil
		case tcell.KeyEnter:
			// Shift+Enter keeps the default newline.
			if event.Modifiers()&tcell.ModShift != 0 {
				return event
			}
			u.submit(textArea.GetText())
			return nil
		}
		return event
	})
	return textArea
}

func (u *UI) initModelSelect() *tview.DropDown {
	dropDown := tview.NewDropDown().SetLabel("Model: ")
	dropDown.SetDoneFunc(func(key tcell.Key) {
		u.app.SetFocus(u.textArea)
	})
	return dropDown
}

func (u *UI) initConfirm() *tview.Modal {
	return tview.NewModal().
		SetText("Clear the whole conversation?").
		AddButtons([]string{"Clear", "Cancel"}).
		SetDoneFunc(func(_ int, label string) {
			u.dispatch(chat.ClearAnswered{Confirmed: label == "Clear"})
		})
}

func (u *UI) layout() {
	header := tview.NewFlex().
		AddItem(u.statusBar, 0, 1, false).
		AddItem(u.modelSelect, 40, 0, false)

	subFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 1, 0, false).
		AddItem(u.textView, 0, 1, false).
		AddItem(u.textArea, 6, 0, true).
		AddItem(u.footer, 1, 0, false)
	u.mainFlex = tview.NewFlex().
		AddItem(subFlex, 0, 2, true)

	if u.opts.Dev {
		u.mainFlex.AddItem(u.debugConsole, 0, 1, false)
		u.debugVisible = true
	}

	loading := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetText("Waiting for the AI...")
	loading.SetBorder(true)

	u.pages = tview.NewPages().
		AddPage("main", u.mainFlex, true, true).
		AddPage("loading", createModal(loading, 30, 3), true, false).
		AddPage("confirm", u.confirm, true, false)
}

func createModal(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}

// Run starts health polling and the model load, then blocks in the tview
// event loop until the user quits or ctx is cancelled.
func (u *UI) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	u.ctx = ctx

	u.app.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		u.screenMu.Lock()
		u.screen = screen
		u.screenMu.Unlock()
		return false
	})

	u.render()
	go u.pollHealth(ctx)
	go u.loadModels(ctx)
	go func() {
		<-ctx.Done()
		u.app.Stop()
	}()

	u.log.Info().Str("prefs", fmt.Sprintf("%+v", u.state.Prefs)).Msg("chat client started")
	if err := u.app.SetRoot(u.pages, true).SetFocus(u.textArea).Run(); err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}

// dispatch must run on the event goroutine.
func (u *UI) dispatch(ev chat.Event) {
	next, cmd := chat.Reduce(u.state, ev)
	u.state = next
	u.render()
	if cmd != nil {
		u.run(cmd)
	}
}

// post hands ev to the event goroutine.
func (u *UI) post(ev chat.Event) {
	u.app.QueueUpdateDraw(func() {
		u.dispatch(ev)
	})
}

func (u *UI) run(cmd chat.Command) {
	switch cmd := cmd.(type) {
	case chat.IssueChat:
		go u.issueChat(cmd.Request)
	case chat.SavePreferences:
		if err := prefs.Save(u.storage, cmd.Prefs); err != nil {
			u.log.Error().Err(err).Msg("failed to save preferences")
		}
	case chat.Notify:
		u.beep()
	}
}

func (u *UI) issueChat(req api.ChatRequest) {
	resp, err := u.backend.Chat(u.ctx, req)
	if err != nil {
		u.post(chat.ChatFailed{Err: err, At: u.now()})
		return
	}
	u.post(chat.ChatSucceeded{Response: *resp, At: u.now()})
}

func (u *UI) pollHealth(ctx context.Context) {
	u.checkHealth(ctx)

	ticker := time.NewTicker(u.opts.HealthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u.checkHealth(ctx)
		}
	}
}

func (u *UI) checkHealth(ctx context.Context) {
	health, err := u.backend.Health(ctx)
	if ctx.Err() != nil {
		return
	}
	u.post(chat.HealthChecked{Health: health, Err: err})
}

func (u *UI) loadModels(ctx context.Context) {
	models, err := u.backend.ListModels(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		u.log.Error().Err(err).Msg("failed to load models")
	}
	u.post(chat.ModelsLoaded{Models: models, Err: err})
}

func (u *UI) beep() {
	u.screenMu.Lock()
	screen := u.screen
	u.screenMu.Unlock()
	if screen == nil {
		return
	}
	if err := screen.Beep(); err != nil {
		u.log.Debug().Err(err).Msg("terminal bell unavailable")
	}
}

// setNotice shows a client-side message under the transcript until the next
// entry is appended.
func (u *UI) setNotice(text string) {
	u.notice = text
	u.noticeAt = len(u.state.Transcript)
	u.render()
}

func (u *UI) render() {
	s := u.state

	notice := ""
	if u.notice != "" && u.noticeAt == len(s.Transcript) {
		notice = u.notice
	}
	u.textView.SetText(formatTranscript(s, notice))
	if s.Prefs.AutoScroll {
		u.textView.ScrollToEnd()
	}

	if u.textArea.GetText() != s.Input {
		u.textArea.SetText(s.Input, true)
	}
	u.textArea.SetDisabled(s.Loading)

	u.statusBar.SetText(formatStatus(s.Status))
	u.footer.SetText(formatFooter(s))
	u.renderModels(s)

	// Page visibility changes move focus, so only toggle on transitions.
	if s.Loading != u.loadingShown {
		u.loadingShown = s.Loading
		if s.Loading {
			u.pages.ShowPage("loading")
			u.app.SetFocus(u.textArea)
		} else {
			u.pages.HidePage("loading")
		}
	}

	switch {
	case s.ConfirmingClear && !u.confirmShown:
		u.confirmShown = true
		u.confirm.SetFocus(1)
		u.pages.ShowPage("confirm")
		u.app.SetFocus(u.confirm)
	case !s.ConfirmingClear && u.confirmShown:
		u.confirmShown = false
		u.pages.HidePage("confirm")
		u.app.SetFocus(u.textArea)
	}
}

// renderModels only rebuilds the options when they change. The selected
// callback fires on SetOptions and SetCurrentOption, so it is muted here.
func (u *UI) renderModels(s chat.State) {
	u.renderingModels = true
	defer func() { u.renderingModels = false }()

	if !slices.Equal(u.shownModels, s.Models) {
		u.shownModels = slices.Clone(s.Models)
		u.modelSelect.SetOptions(modelLabels(s.Models), func(_ string, index int) {
			if u.renderingModels || index < 0 || index >= len(u.state.Models) {
				return
			}
			u.dispatch(chat.ModelSelected{ID: u.state.Models[index].ID})
		})
	}

	want := selectedIndex(s.Models, s.SelectedModel)
	if current, _ := u.modelSelect.GetCurrentOption(); current != want && len(s.Models) > 0 {
		u.modelSelect.SetCurrentOption(want)
	}
}

func (u *UI) toggleDebugConsole() {
	if u.debugVisible {
		u.mainFlex.RemoveItem(u.debugConsole)
		u.setNotice("Debug console disabled")
	} else {
		u.mainFlex.AddItem(u.debugConsole, 0, 1, false)
		u.setNotice("Debug console enabled")
	}
	u.debugVisible = !u.debugVisible
}

func (u *UI) quitApp() {
	u.log.Info().Msg("chat client stopping")
	u.app.Stop()
}
