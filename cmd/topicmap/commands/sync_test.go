// ABOUTME: Tests for sync command structure and push/pull against a fake Charm client
// ABOUTME: Verifies sessions and question history survive a round trip

package commands

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/harper/topicmap/internal/charm"
	"github.com/harper/topicmap/internal/config"
	"github.com/harper/topicmap/internal/models"
)

type fakeSyncer struct {
	id        string
	idErr     error
	keys      string
	snapshots map[string]*charm.Snapshot
	syncs     int
	reset     bool
	closed    bool
}

func (f *fakeSyncer) ID() (string, error)             { return f.id, f.idErr }
func (f *fakeSyncer) Host() string                    { return "charm.test" }
func (f *fakeSyncer) AuthorizedKeys() (string, error) { return f.keys, nil }
func (f *fakeSyncer) Sync(ctx context.Context) error  { f.syncs++; return nil }
func (f *fakeSyncer) Reset() error                    { f.reset = true; return nil }
func (f *fakeSyncer) Close() error                    { f.closed = true; return nil }

func (f *fakeSyncer) PushSession(ctx context.Context, session *models.Session, turns []models.Turn) error {
	f.snapshots[session.SessionID] = &charm.Snapshot{Session: session, Turns: turns}
	return nil
}

func (f *fakeSyncer) PullSession(id string) (*charm.Snapshot, error) {
	snap, ok := f.snapshots[id]
	if !ok {
		return nil, charm.ErrSnapshotNotFound
	}
	return snap, nil
}

func (f *fakeSyncer) ListSessionIDs() ([]string, error) {
	ids := make([]string, 0, len(f.snapshots))
	for id := range f.snapshots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func useSyncer(t *testing.T, s sessionSyncer) {
	t.Helper()
	original := openSyncer
	openSyncer = func(cfg *config.Config, logger *log.Logger) (sessionSyncer, error) {
		return s, nil
	}
	t.Cleanup(func() { openSyncer = original })
}

func TestNewSyncCmd(t *testing.T) {
	cmd := NewSyncCmd()
	if cmd.Use != "sync" {
		t.Errorf("Use = %q, want %q", cmd.Use, "sync")
	}

	want := []string{"status", "push [session...]", "pull [session...]", "wipe", "keys"}
	got := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		got[sub.Use] = true
	}
	for _, use := range want {
		if !got[use] {
			t.Errorf("missing subcommand %q", use)
		}
	}
}

func TestSyncStatus(t *testing.T) {
	useTempDB(t)

	t.Run("connected", func(t *testing.T) {
		fake := &fakeSyncer{id: "user-1", snapshots: map[string]*charm.Snapshot{"a": {}}}
		useSyncer(t, fake)
		out := mustRun(t, "sync", "status")
		for _, want := range []string{"Connected", "user-1", "charm.test", "Synced sessions: 1"} {
			if !strings.Contains(out, want) {
				t.Errorf("status output missing %q:\n%s", want, out)
			}
		}
		if !fake.closed {
			t.Error("client should be closed")
		}
	})

	t.Run("not connected", func(t *testing.T) {
		useSyncer(t, &fakeSyncer{idErr: errors.New("no keys"), snapshots: map[string]*charm.Snapshot{}})
		out := mustRun(t, "sync", "status")
		if !strings.Contains(out, "Not connected") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})
}

func TestSyncPushPull(t *testing.T) {
	useTempDB(t)
	useGenerator(t, scriptedGenerator())
	fake := &fakeSyncer{snapshots: map[string]*charm.Snapshot{}}
	useSyncer(t, fake)

	var analyzed analyzeOutput
	decode(t, mustRun(t, "analyze", writeSurvey(t), "--format", "json"), &analyzed)
	id := analyzed.Session.SessionID
	mustRun(t, "ask", "--session", id, "anything late?")

	out := mustRun(t, "sync", "push")
	if !strings.Contains(out, "Pushed 1 session(s)") {
		t.Errorf("unexpected push output: %s", out)
	}
	snap, ok := fake.snapshots[id]
	if !ok {
		t.Fatalf("session %s not pushed", id)
	}
	if len(snap.Session.Rows) != 3 || len(snap.Turns) != 2 {
		t.Errorf("snapshot has %d rows and %d turns, want 3 and 2", len(snap.Session.Rows), len(snap.Turns))
	}

	// restore into an empty database
	useTempDB(t)
	out = mustRun(t, "sync", "pull")
	if !strings.Contains(out, "Pulled 1 session(s)") {
		t.Errorf("unexpected pull output: %s", out)
	}
	if fake.syncs == 0 {
		t.Error("pull should sync before reading snapshots")
	}

	var exported struct {
		Rows  []interface{} `json:"rows"`
		Turns []interface{} `json:"turns"`
	}
	decode(t, mustRun(t, "export", id, "--format", "json"), &exported)
	if len(exported.Rows) != 3 || len(exported.Turns) != 2 {
		t.Errorf("restored %d rows and %d turns, want 3 and 2", len(exported.Rows), len(exported.Turns))
	}

	if _, err := run(t, "sync", "pull", "session_missing"); !errors.Is(err, charm.ErrSnapshotNotFound) {
		t.Errorf("pull of unknown session err = %v, want ErrSnapshotNotFound", err)
	}
}

func TestSyncWipe(t *testing.T) {
	useTempDB(t)
	fake := &fakeSyncer{snapshots: map[string]*charm.Snapshot{}}
	useSyncer(t, fake)

	out := mustRun(t, "sync", "wipe")
	if !strings.Contains(out, "--confirm") || fake.reset {
		t.Errorf("wipe without --confirm should only warn:\n%s", out)
	}

	mustRun(t, "sync", "wipe", "--confirm")
	if !fake.reset {
		t.Error("wipe --confirm should reset the replica")
	}
}

func TestSyncKeys(t *testing.T) {
	useTempDB(t)

	useSyncer(t, &fakeSyncer{snapshots: map[string]*charm.Snapshot{}})
	if out := mustRun(t, "sync", "keys"); !strings.Contains(out, "No authorized keys") {
		t.Errorf("unexpected output: %s", out)
	}

	useSyncer(t, &fakeSyncer{keys: "ssh-ed25519 AAAA", snapshots: map[string]*charm.Snapshot{}})
	if out := mustRun(t, "sync", "keys"); !strings.Contains(out, "ssh-ed25519 AAAA") {
		t.Errorf("unexpected output: %s", out)
	}
}
