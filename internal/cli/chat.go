package cli

// Copyright (C) 2025 Rizome Labs, Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; either version 2
// of the License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program; if not, write to the Free Software
// Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rizome-dev/kasir/internal/action"
	"github.com/rizome-dev/kasir/internal/assistant"
	actpkg "github.com/rizome-dev/kasir/pkg/action"
	"github.com/spf13/cobra"
)

// ChatCmd creates the chat command
func ChatCmd(opts *rootOptions) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session",
		Long: `Start an interactive session. Type requests in Indonesian or English;
answer y or n when an action asks for confirmation. Type exit to leave.

When stdin is not a terminal, requests are read line by line instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app()
			if err != nil {
				return err
			}
			user = userOrDefault(user, opts.cfg)

			if !stdinIsTerminal() {
				return runLineChat(cmd.Context(), a.assistant, user, cmd.InOrStdin(), cmd.OutOrStdout())
			}

			events := action.NewChannelListener(16)
			unsubscribe := a.notifier.Subscribe(events.Listen)
			defer func() {
				unsubscribe()
				events.Close()
			}()

			p := tea.NewProgram(newChatModel(cmd.Context(), a.assistant, user, events.Events()))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "user recorded in history (default from config)")
	return cmd
}

// runLineChat is the non-interactive fallback, one request per line
func runLineChat(ctx context.Context, asst *assistant.Assistant, user string, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	confirm := promptConfirm(reader, out)

	for {
		line, err := reader.ReadString('\n')
		text := strings.TrimSpace(line)
		if text != "" {
			if isExit(text) {
				return nil
			}
			if askErr := runAsk(ctx, asst, text, user, confirm, out); askErr != nil && !errors.Is(askErr, errActionFailed) {
				return askErr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func isExit(text string) bool {
	switch strings.ToLower(text) {
	case "exit", "quit", "keluar":
		return true
	}
	return false
}

type chatState int

const (
	stateIdle chatState = iota
	stateBusy
	stateConfirming
)

type replyMsg struct{ reply *assistant.Reply }

type resultMsg struct {
	result *actpkg.Result
	err    error
}

type cancelledMsg struct{ err error }

type eventMsg struct {
	event actpkg.Event
	ok    bool
}

// chatModel is the bubbletea model behind kasir chat
type chatModel struct {
	ctx       context.Context
	assistant *assistant.Assistant
	user      string
	events    <-chan actpkg.Event

	input   textinput.Model
	spinner spinner.Model
	state   chatState
	pending *actpkg.Pending
	lines   []string
	status  string
}

func newChatModel(ctx context.Context, asst *assistant.Assistant, user string, events <-chan actpkg.Event) chatModel {
	ti := textinput.New()
	ti.Placeholder = "buatkan laporan penjualan hari ini"
	ti.Prompt = promptStyle.Render("› ")
	ti.CharLimit = 256
	ti.Width = 60
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle

	return chatModel{
		ctx:       ctx,
		assistant: asst,
		user:      user,
		events:    events,
		input:     ti,
		spinner:   s,
		lines:     []string{titleStyle.Render("kasir") + dimStyle.Render("  type a request, exit to leave")},
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForEvent())
}

func (m chatModel) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		e, ok := <-events
		return eventMsg{event: e, ok: ok}
	}
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if m.pending != nil {
				_ = m.assistant.Cancel(m.pending.Token)
			}
			return m, tea.Quit
		}

		switch m.state {
		case stateConfirming:
			return m.answer(msg)
		case stateBusy:
			return m, nil
		}

		if msg.Type == tea.KeyEnter {
			return m.submit()
		}

	case replyMsg:
		return m.handleReply(msg.reply)

	case resultMsg:
		m.state = stateIdle
		m.status = ""
		if msg.err != nil {
			m.lines = append(m.lines, errorStyle.Render("✗ "+msg.err.Error()))
		} else {
			m.lines = append(m.lines, renderResult(msg.result))
		}
		return m, nil

	case cancelledMsg:
		m.state = stateIdle
		if msg.err != nil {
			m.lines = append(m.lines, errorStyle.Render("✗ "+msg.err.Error()))
		} else {
			m.lines = append(m.lines, warnStyle.Render("Cancelled"))
		}
		return m, nil

	case eventMsg:
		if !msg.ok {
			return m, nil
		}
		if msg.event.Type == actpkg.EventExecuting && msg.event.Execution != nil {
			m.status = "running " + msg.event.Execution.ActionName
		}
		return m, m.waitForEvent()

	case spinner.TickMsg:
		if m.state != stateBusy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if text == "" {
		return m, nil
	}
	if isExit(text) {
		return m, tea.Quit
	}

	m.lines = append(m.lines, promptStyle.Render("› ")+text)
	m.state = stateBusy
	m.status = "thinking"

	ctx, asst, user := m.ctx, m.assistant, m.user
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		return replyMsg{reply: asst.Handle(ctx, text, user)}
	})
}

func (m chatModel) handleReply(reply *assistant.Reply) (tea.Model, tea.Cmd) {
	m.status = ""
	switch reply.Kind {
	case assistant.KindNeedsConfirmation:
		m.state = stateConfirming
		m.pending = reply.Pending
		m.lines = append(m.lines, renderReply(reply))
	case assistant.KindExecuted:
		m.state = stateIdle
		m.lines = append(m.lines, renderResult(reply.Result))
	default:
		m.state = stateIdle
		m.lines = append(m.lines, renderReply(reply))
	}
	return m, nil
}

func (m chatModel) answer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	token := m.pending.Token
	ctx, asst := m.ctx, m.assistant

	switch strings.ToLower(msg.String()) {
	case "y":
		m.pending = nil
		m.state = stateBusy
		m.status = "running"
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			res, err := asst.Confirm(ctx, token)
			return resultMsg{result: res, err: err}
		})
	case "n":
		m.pending = nil
		return m, func() tea.Msg {
			return cancelledMsg{err: asst.Cancel(token)}
		}
	}
	return m, nil
}

func (m chatModel) View() string {
	var b strings.Builder
	for _, line := range m.lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch m.state {
	case stateBusy:
		b.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), m.status))
	case stateConfirming:
		b.WriteString(dimStyle.Render("press y to run, n to cancel"))
	default:
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")
	return b.String()
}
