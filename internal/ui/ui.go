package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/services"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/desertthunder/sp2yt/internal/tasks"
)

// recentLimit is how many of the latest search results the search view shows.
const recentLimit = 6

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	ConfirmView
	SearchView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	view         ViewState
	source       services.TrackSource
	engine       tasks.TransferEngine
	batch        int
	preselected  bool
	width        int
	height       int
	playlistList list.Model
	listReady    bool
	selected     models.PlaylistRef
	saved        *models.ProgressRecord
	loading      bool
	progressChan chan tasks.ProgressUpdate
	done         chan searchComplete
	progress     tasks.ProgressUpdate
	recent       []models.MatchResult
	result       *tasks.SearchResult
	err          error
	spinner      spinner.Model
	bar          progress.Model
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model that searches batch tracks per session.
func NewModel(ctx context.Context, source services.TrackSource, engine tasks.TransferEngine, batch int) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = NewStyle("#7D56F4")

	return &Model{
		ctx:     ctx,
		view:    PlaylistListView,
		source:  source,
		engine:  engine,
		batch:   batch,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient()),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// WithPlaylist skips the playlist list and opens the confirmation view for ref.
func (m *Model) WithPlaylist(ref models.PlaylistRef) *Model {
	m.selected = ref
	m.preselected = true
	m.view = ConfirmView
	m.loading = true
	return m
}

// Result returns the last search result, or nil.
func (m *Model) Result() *tasks.SearchResult { return m.result }

// Err returns the error that ended the last search, if any.
func (m *Model) Err() error { return m.err }

// Init initializes the TUI by fetching playlists or the saved status of the preselected one.
func (m *Model) Init() tea.Cmd {
	if m.preselected {
		return tea.Batch(m.spinner.Tick, m.loadStatus(m.selected))
	}
	return tea.Batch(m.spinner.Tick, m.fetchPlaylists())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(min(msg.Width-8, 60), 10)
		if m.listReady {
			m.playlistList.SetSize(msg.Width-4, msg.Height-6)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case SearchView:
			return m.handleSearchKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsFetched:
		data := msg.data.(playlistsFetched)
		if data.err != nil {
			m.err = data.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(data.playlists))
		for i, pl := range data.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), max(m.width-4, 0), max(m.height-6, 0))
		m.playlistList.Title = "Spotify Playlists"
		m.listReady = true
		return m, nil

	case MsgStatusLoaded:
		data := msg.data.(statusLoaded)
		m.loading = false
		m.selected = data.playlist
		m.saved = data.progress
		if data.progress != nil {
			m.selected = data.progress.Playlist
		}
		return m, nil

	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.progress = update
		if r, ok := update.Data.(models.MatchResult); ok && update.Phase == tasks.SearchTracks {
			m.recent = append(m.recent, r)
			if len(m.recent) > recentLimit {
				m.recent = m.recent[len(m.recent)-recentLimit:]
			}
		}
		return m, m.waitForProgress()

	case MsgSearchComplete:
		data := msg.data.(searchComplete)
		m.result = data.result
		m.err = data.err
		m.view = ResultView
		m.progressChan = nil
		m.done = nil
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view == PlaylistListView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case ConfirmView:
		return m.renderConfirm()
	case SearchView:
		return m.renderSearch()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.listReady && m.playlistList.FilterState() == list.Filtering {
		return m.updateList(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if !m.listReady {
			return m, nil
		}
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.selected = pl.playlist
			m.saved = nil
			m.loading = true
			m.view = ConfirmView
			return m, m.loadStatus(pl.playlist)
		}
	}
	return m.updateList(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.yes), key.Matches(msg, m.keys.enter):
		if m.loading || (m.saved != nil && m.saved.IsComplete()) {
			return m, nil
		}
		m.view = SearchView
		return m, m.startSearch()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		if m.preselected {
			return m, tea.Quit
		}
		m.view = PlaylistListView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// the engine checkpoints and returns once cancelled
	if key.Matches(msg, m.keys.stop) && m.cancel != nil {
		m.cancel()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = ConfirmView
		m.loading = true
		m.err = nil
		m.recent = nil
		m.progress = tasks.ProgressUpdate{}
		return m, m.loadStatus(m.selected)
	case key.Matches(msg, m.keys.back):
		if m.preselected {
			return m, nil
		}
		m.view = PlaylistListView
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view != PlaylistListView || !m.listReady {
		return m, nil
	}
	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.source.GetPlaylists(m.ctx)
		return playlistsFetchedMsg(playlists, err)
	}
}

func (m *Model) loadStatus(ref models.PlaylistRef) tea.Cmd {
	return func() tea.Msg {
		status, err := m.engine.Status(ref.ID)
		if err != nil {
			return statusLoadedMsg(ref, nil)
		}
		return statusLoadedMsg(ref, status.Progress)
	}
}

func (m *Model) startSearch() tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.progressChan = make(chan tasks.ProgressUpdate, 64)
	m.done = make(chan searchComplete, 1)
	m.recent = nil
	m.progress = tasks.ProgressUpdate{}

	progressChan, done, id, batch := m.progressChan, m.done, m.selected.ID, m.batch
	go func() {
		result, err := m.engine.Search(ctx, id, batch, progressChan)
		done <- searchComplete{result: result, err: err}
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan, done := m.progressChan, m.done
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}
		update, ok := <-progressChan
		if !ok {
			c := <-done
			return searchCompleteMsg(c.result, c.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderPlaylistList() string {
	if !m.listReady {
		return fmt.Sprintf("%s Loading playlists...", m.spinner.View())
	}
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), m.help.View(m.keys.forView(m.view)))
}

func (m *Model) renderConfirm() string {
	if m.loading {
		return fmt.Sprintf("%s Loading saved progress for %s...", m.spinner.View(), m.selected.ID)
	}

	title := styles.title.Render(fmt.Sprintf("Search '%s' on YouTube?", m.selected.Name))

	var info string
	switch {
	case m.saved == nil:
		info = fmt.Sprintf("No saved progress. The next session searches up to %d tracks.", m.batch)
	case m.saved.IsComplete():
		info = styles.ok.Render(fmt.Sprintf("All %d tracks searched (%d found). Run build next.",
			m.saved.Playlist.TotalTracks, m.saved.Cursor.FoundCount))
	default:
		start, end := m.saved.NextBatch(m.batch)
		info = fmt.Sprintf("Searched %d/%d (%d found). Next session: tracks %d-%d.",
			m.saved.Cursor.ProcessedCount, m.saved.Playlist.TotalTracks, m.saved.Cursor.FoundCount, start+1, end)
	}

	return fmt.Sprintf("%s\n%s\n\n%s", title, info, m.help.View(m.keys.forView(m.view)))
}

func (m *Model) renderSearch() string {
	title := styles.title.Render(fmt.Sprintf("Searching '%s'", m.selected.Name))

	var phase string
	switch m.progress.Phase {
	case tasks.FetchSource:
		phase = "Fetching source playlist..."
	case tasks.LoadProgress:
		phase = m.progress.Message
	case tasks.SearchTracks, tasks.Checkpoint:
		phase = fmt.Sprintf("Searching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Complete:
		phase = "Finishing..."
	default:
		phase = "Starting..."
	}

	pct := 0.0
	if m.progress.Total > 0 {
		pct = float64(m.progress.Step) / float64(m.progress.Total)
	}

	var b strings.Builder
	for _, r := range m.recent {
		if r.Found() {
			b.WriteString(styles.ok.Render("✓ ") + r.Track.String() + styles.help.Render(" → "+r.Video.Title) + "\n")
		} else {
			b.WriteString(styles.warn.Render("✗ ") + r.Track.String() + "\n")
		}
	}

	return fmt.Sprintf("%s\n%s %s\n%s\n\n%s\n%s", title, m.spinner.View(), phase, m.bar.ViewAs(pct), b.String(),
		m.help.View(m.keys.forView(m.view)))
}

func (m *Model) renderResult() string {
	helpView := m.help.View(m.keys.forView(m.view))

	if m.err != nil && m.result == nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Search failed: %v", m.err)), helpView)
	}
	if m.result == nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), helpView)
	}

	r := m.result
	title := styles.ok.Render("✓ Session Complete")
	if m.err != nil {
		msg := fmt.Sprintf("Session stopped: %v", m.err)
		if errors.Is(m.err, context.Canceled) {
			msg = "Session stopped, progress saved"
		}
		title = styles.warn.Render(msg)
	}

	info := fmt.Sprintf("\nSearched this session: %d (found %d, not found %d)\nQuota used: %d units\nOverall: %d/%d searched, %d found",
		r.Processed(), r.Found, r.NotFound, r.QuotaUsed,
		r.Progress.Cursor.ProcessedCount, r.Playlist.TotalTracks, r.Progress.Cursor.FoundCount)
	if r.Complete() {
		info += "\n" + styles.ok.Render("All tracks searched. Run build next.")
	}

	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}

// Run starts the program and blocks until the user quits. It returns the model's final state.
func Run(m *Model) (*Model, error) {
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return m, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	if fm, ok := final.(*Model); ok {
		return fm, nil
	}
	return m, nil
}
