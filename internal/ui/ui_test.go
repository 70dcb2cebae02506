package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/desertthunder/sp2yt/internal/tasks"
	th "github.com/desertthunder/sp2yt/internal/testing"
)

// fakeEngine replays a fixed search session.
type fakeEngine struct {
	saved   *models.ProgressRecord
	result  *tasks.SearchResult
	err     error
	updates []tasks.ProgressUpdate
	batches []int
}

func (f *fakeEngine) Search(ctx context.Context, playlistID string, batch int, progress chan<- tasks.ProgressUpdate) (*tasks.SearchResult, error) {
	f.batches = append(f.batches, batch)
	for _, u := range f.updates {
		progress <- u
	}
	return f.result, f.err
}

func (f *fakeEngine) Build(ctx context.Context, playlistID string, opts tasks.BuildOptions, progress chan<- tasks.ProgressUpdate) (*tasks.BuildResult, error) {
	return nil, shared.ErrServiceUnavailable
}

func (f *fakeEngine) Retry(ctx context.Context, playlistID string, progress chan<- tasks.ProgressUpdate) (*tasks.BuildResult, error) {
	return nil, shared.ErrServiceUnavailable
}

func (f *fakeEngine) Status(playlistID string) (*tasks.StatusResult, error) {
	if f.saved == nil {
		return nil, shared.ErrNoProgress
	}
	return &tasks.StatusResult{Progress: f.saved}, nil
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain runs cmd and feeds every resulting Msg back into m until the search completes.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for range 100 {
		if cmd == nil {
			return
		}
		msg := cmd()
		if msg == nil {
			return
		}
		_, cmd = m.Update(msg)
		if m.view == ResultView {
			return
		}
	}
	t.Fatal("search never completed")
}

func sessionFixture() (*fakeEngine, *th.MockSource) {
	progress := th.SampleProgress(3, 1)
	match := progress.Results[0]
	miss := progress.Results[1]

	engine := &fakeEngine{
		updates: []tasks.ProgressUpdate{
			{Phase: tasks.LoadProgress, Total: 3, Message: "Starting Road Trip (3 tracks)"},
			{Phase: tasks.SearchTracks, Step: 1, Total: 3, Data: match},
			{Phase: tasks.SearchTracks, Step: 2, Total: 3, Data: miss},
		},
		result: &tasks.SearchResult{
			Playlist: progress.Playlist, Start: 0, End: 3, Found: 2, NotFound: 1,
			QuotaUsed: 300, Progress: progress,
		},
	}
	source := &th.MockSource{Playlists: []models.PlaylistRef{
		{ID: "pl1", Name: "Road Trip", TotalTracks: 3},
		{ID: "pl2", Name: "Chill", TotalTracks: 10},
	}}
	return engine, source
}

func TestModel(t *testing.T) {
	t.Run("playlist list to search result", func(t *testing.T) {
		engine, source := sessionFixture()
		m := NewModel(context.Background(), source, engine, 25)
		m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

		m.Update(playlistsFetchedMsg(source.Playlists, nil))
		if !m.listReady {
			t.Fatal("expected playlist list to be ready")
		}
		if !strings.Contains(m.View(), "Road Trip") {
			t.Error("expected playlist name in list view")
		}

		_, cmd := m.Update(keyPress("enter"))
		if m.view != ConfirmView || !m.loading {
			t.Fatalf("expected loading confirm view, got %v", m.view)
		}
		m.Update(cmd())
		if m.loading {
			t.Fatal("expected status to be loaded")
		}
		if !strings.Contains(m.View(), "No saved progress") {
			t.Errorf("expected fresh playlist message, got %q", m.View())
		}

		_, cmd = m.Update(keyPress("y"))
		if m.view != SearchView {
			t.Fatalf("expected search view, got %v", m.view)
		}
		drain(t, m, cmd)

		if m.view != ResultView {
			t.Fatalf("expected result view, got %v", m.view)
		}
		if m.Result() == nil || m.Err() != nil {
			t.Fatalf("expected result without error, got %v", m.Err())
		}
		if len(m.recent) != 2 {
			t.Errorf("expected 2 recent results, got %d", len(m.recent))
		}
		if engine.batches[0] != 25 {
			t.Errorf("expected batch 25, got %v", engine.batches)
		}

		view := m.View()
		for _, want := range []string{"Session Complete", "found 2", "Quota used: 300", "Run build next"} {
			if !strings.Contains(view, want) {
				t.Errorf("result view missing %q:\n%s", want, view)
			}
		}
	})

	t.Run("preselected playlist with saved progress", func(t *testing.T) {
		engine, source := sessionFixture()
		saved := th.SampleProgress(3)
		saved.Results = saved.Results[:1]
		saved.Cursor.ProcessedCount, saved.Cursor.FoundCount, saved.Cursor.NotFoundCount = 1, 1, 0
		saved.Checkpoint(saved.Cursor.LastUpdated)
		engine.saved = saved

		m := NewModel(context.Background(), source, engine, 1).WithPlaylist(models.PlaylistRef{ID: "pl1"})
		if m.view != ConfirmView {
			t.Fatalf("expected confirm view, got %v", m.view)
		}
		m.Update(m.loadStatus(m.selected)())

		view := m.View()
		if !strings.Contains(view, "Searched 1/3") || !strings.Contains(view, "tracks 2-2") {
			t.Errorf("expected saved progress summary, got %q", view)
		}
		if m.selected.Name != "Road Trip" {
			t.Errorf("expected playlist name from saved progress, got %q", m.selected.Name)
		}

		_, cmd := m.Update(keyPress("n"))
		if cmd == nil {
			t.Error("expected quit when declining a preselected playlist")
		}
	})

	t.Run("complete playlist cannot be searched", func(t *testing.T) {
		engine, source := sessionFixture()
		engine.saved = th.SampleProgress(3)

		m := NewModel(context.Background(), source, engine, 5).WithPlaylist(models.PlaylistRef{ID: "pl1"})
		m.Update(m.loadStatus(m.selected)())
		m.Update(keyPress("y"))

		if m.view != ConfirmView {
			t.Errorf("expected to stay on confirm view, got %v", m.view)
		}
		if !strings.Contains(m.View(), "All 3 tracks searched") {
			t.Errorf("expected completion message, got %q", m.View())
		}
	})

	t.Run("failed search", func(t *testing.T) {
		engine, source := sessionFixture()
		engine.result = nil
		engine.err = shared.ErrAPIRequest
		engine.updates = nil

		m := NewModel(context.Background(), source, engine, 5).WithPlaylist(models.PlaylistRef{ID: "pl1"})
		m.Update(m.loadStatus(m.selected)())
		_, cmd := m.Update(keyPress("y"))
		drain(t, m, cmd)

		if !strings.Contains(m.View(), "Search failed") {
			t.Errorf("expected failure view, got %q", m.View())
		}
	})

	t.Run("playlist fetch error quits", func(t *testing.T) {
		engine, source := sessionFixture()
		m := NewModel(context.Background(), source, engine, 5)
		_, cmd := m.Update(playlistsFetchedMsg(nil, shared.ErrNotAuthenticated))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if !strings.Contains(m.View(), "not authenticated") {
			t.Errorf("expected error view, got %q", m.View())
		}
	})
}

func TestPlaylistItem(t *testing.T) {
	item := playlistItem{playlist: models.PlaylistRef{ID: "pl1", Name: "Road Trip", TotalTracks: 12}}
	if item.FilterValue() != "Road Trip" || item.Title() != "Road Trip" {
		t.Error("unexpected title")
	}
	if item.Description() != "12 tracks • pl1" {
		t.Errorf("unexpected description %q", item.Description())
	}
}

func TestStyles(t *testing.T) {
	for name, fn := range map[string]func(string) string{
		"Title": Title, "Success": Success, "Error": Error, "Warn": Warn, "Muted": Muted,
	} {
		if !strings.Contains(fn("hello"), "hello") {
			t.Errorf("%s dropped its text", name)
		}
	}
}

func TestKeyMap(t *testing.T) {
	keys := newKeyMap()
	tests := []struct {
		view ViewState
		want []string
	}{
		{PlaylistListView, []string{"enter", "q"}},
		{ConfirmView, []string{"y", "n", "q"}},
		{SearchView, []string{"q"}},
		{ResultView, []string{"r", "esc", "q"}},
	}
	for _, tt := range tests {
		var got []string
		for _, b := range keys.forView(tt.view).ShortHelp() {
			got = append(got, b.Help().Key)
		}
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("view %d: expected %v, got %v", tt.view, tt.want, got)
		}
	}

	if got := keys.forView(SearchView).ShortHelp()[0].Help().Desc; got != "stop after current track" {
		t.Errorf("unexpected stop help %q", got)
	}
}
