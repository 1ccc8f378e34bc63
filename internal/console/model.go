// Package console is the keyboard console for a running slideshow: it
// turns key presses into controller input and shows the playback status.
package console

import (
	"context"
	"errors"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"signage-player/internal/slideshow"
)

// Controller is the part of the slideshow controller the console drives.
type Controller interface {
	Snapshot() slideshow.Snapshot
	SelectGroup(index int) bool
	DeleteGroup(index int) bool
	OnChange(fn func(slideshow.Snapshot))
}

// SnapshotMsg carries controller state into the program.
type SnapshotMsg slideshow.Snapshot

// StatusMsg sets the status line.
type StatusMsg string

type Options struct {
	Controller Controller
	Input      *Input
	Confirm    *Confirmer
	// Reload fetches the inventory into the controller. Nil disables the key.
	Reload func(ctx context.Context) error
}

// Model is the bubbletea model of the console.
type Model struct {
	ctrl    Controller
	input   *Input
	confirm *Confirmer
	reload  func(ctx context.Context) error
	keys    KeyMap

	snap       slideshow.Snapshot
	confirming bool
	status     string
	width      int
}

func NewModel(opts Options) Model {
	if opts.Input == nil {
		opts.Input = NewInput()
	}
	if opts.Confirm == nil {
		opts.Confirm = &Confirmer{}
	}
	return Model{
		ctrl:    opts.Controller,
		input:   opts.Input,
		confirm: opts.Confirm,
		reload:  opts.Reload,
		keys:    DefaultKeyMap(),
		snap:    opts.Controller.Snapshot(),
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		m.snap = slideshow.Snapshot(msg)
		return m, nil

	case StatusMsg:
		m.status = string(msg)
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.confirming {
			return m.handleConfirm(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

// Controller calls run as commands: observers Send into the program and
// must not be reached from inside Update.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Prev):
		return m, m.dispatch(slideshow.KeyLeft)

	case key.Matches(msg, m.keys.Next):
		return m, m.dispatch(slideshow.KeyRight)

	case key.Matches(msg, m.keys.Toggle):
		return m, m.dispatch(slideshow.KeySpace)

	case key.Matches(msg, m.keys.Group):
		n, _ := strconv.Atoi(msg.String())
		ctrl := m.ctrl
		return m, func() tea.Msg {
			ctrl.SelectGroup(n - 1)
			return nil
		}

	case key.Matches(msg, m.keys.Delete):
		if len(m.snap.Groups) > 0 {
			m.confirming = true
		}
		return m, nil

	case key.Matches(msg, m.keys.Inventory):
		if m.reload == nil {
			return m, nil
		}
		m.status = "loading inventory…"
		reload := m.reload
		return m, func() tea.Msg {
			if err := reload(context.Background()); err != nil {
				return StatusMsg("inventory: " + err.Error())
			}
			return StatusMsg("inventory loaded")
		}
	}
	return m, nil
}

func (m Model) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.confirming = false
		ctrl, confirm, idx := m.ctrl, m.confirm, m.snap.SelectedGroup
		return m, func() tea.Msg {
			confirm.Arm()
			ctrl.DeleteGroup(idx)
			confirm.Disarm()
			return nil
		}
	case key.Matches(msg, m.keys.Deny):
		m.confirming = false
	}
	return m, nil
}

func (m Model) dispatch(k slideshow.Key) tea.Cmd {
	in := m.input
	return func() tea.Msg {
		in.Dispatch(k)
		return nil
	}
}

// Run starts the console program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, m Model, opts ...tea.ProgramOption) error {
	opts = append(opts, tea.WithContext(ctx))
	p := tea.NewProgram(m, opts...)
	m.ctrl.OnChange(func(s slideshow.Snapshot) {
		p.Send(SnapshotMsg(s))
	})
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
