package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"posterforge/internal/doc"
	"posterforge/internal/scene"
)

func TestInitProjectCreatesStructureAndManifest(t *testing.T) {
	root := t.TempDir()
	m := SnapshotStore(doc.NewStore("Test Poster"))

	ph, err := InitProject(root, m)
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	if ph == nil || ph.ManifestPath == "" {
		t.Fatalf("handle incomplete: %+v", ph)
	}

	b, err := os.ReadFile(ph.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var got Manifest
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal manifest: %v", err)
	}
	if got.Name != "Test Poster" || len(got.Pages) != 1 {
		t.Fatalf("manifest mismatch: %+v", got)
	}

	for _, d := range []string{"pages", "assets", "exports", BackupsDirName} {
		p := filepath.Join(root, d)
		if fi, err := os.Stat(p); err != nil || !fi.IsDir() {
			t.Fatalf("expected directory %s to exist", p)
		}
	}
}

func TestSaveCreatesTimestampedBackup(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, SnapshotStore(doc.NewStore("Backup Test")))
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	ph.Manifest.Name = "Backup Test v2"
	if err := Save(ph); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	ents, err := os.ReadDir(filepath.Join(root, BackupsDirName))
	if err != nil {
		t.Fatalf("read backups: %v", err)
	}
	if len(ents) == 0 {
		t.Fatalf("expected at least one backup file")
	}
}

func TestAutosaveCrashSnapshotWritesFile(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, SnapshotStore(doc.NewStore("Crash Snapshot")))
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}

	path, err := AutosaveCrashSnapshot(ph)
	if err != nil {
		t.Fatalf("AutosaveCrashSnapshot error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot file does not exist: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var got Manifest
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if got.Name != "Crash Snapshot" {
		t.Fatalf("snapshot content mismatch: got %q", got.Name)
	}
}

func TestOpenFallsBackToBackupOnCorruptManifest(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, SnapshotStore(doc.NewStore("Recover Me")))
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	// second save produces a backup of the good manifest
	if err := Save(ph); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := os.WriteFile(ph.ManifestPath, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt manifest: %v", err)
	}
	got, err := Open(root)
	if err != nil {
		t.Fatalf("Open should recover from backup: %v", err)
	}
	if got.Manifest.Name != "Recover Me" {
		t.Fatalf("recovered wrong manifest: %+v", got.Manifest)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	st := doc.NewStore("Round Trip")
	st.AddPage()
	p := st.Active()
	snap, err := scene.Encode(scene.New())
	if err != nil {
		t.Fatal(err)
	}
	p.History.Push(snap)
	st.ReorderPage(1, 0)

	m := SnapshotStore(st)
	back := RestoreStore(m)
	if back.Name() != "Round Trip" || back.Len() != 2 {
		t.Fatalf("restored store mismatch: %s/%d", back.Name(), back.Len())
	}
	if back.ActiveIndex() != st.ActiveIndex() {
		t.Fatalf("active index %d, want %d", back.ActiveIndex(), st.ActiveIndex())
	}
	rp, err := back.Page(0)
	if err != nil {
		t.Fatal(err)
	}
	op, _ := st.Page(0)
	if rp.ID != op.ID {
		t.Fatalf("page order lost: %s vs %s", rp.ID, op.ID)
	}
	if rp.History.Len() != op.History.Len() || rp.History.Index() != op.History.Index() {
		t.Fatalf("history not restored: %d/%d vs %d/%d",
			rp.History.Len(), rp.History.Index(), op.History.Len(), op.History.Index())
	}
}

func TestIndexLifecycle(t *testing.T) {
	root := t.TempDir()
	st := doc.NewStore("Indexed")
	s := scene.New()
	s.Objects = append(s.Objects, scene.Object{
		ID:   scene.NewID(),
		Type: scene.TypeText,
		Text: &scene.TextAttrs{Content: "畅销榜单", FontSize: 24},
	})
	snap, err := scene.Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	st.Active().Scene = snap

	ph, err := InitProject(root, SnapshotStore(st))
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	ctx := context.Background()
	if err := UpdateIndex(ctx, ph); err != nil {
		t.Fatalf("UpdateIndex error: %v", err)
	}

	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("InitOrOpenIndex error: %v", err)
	}
	defer db.Close()
	var count int
	var text string
	err = db.QueryRowContext(ctx, `SELECT object_count, text FROM pages WHERE page_id = ?`, st.Active().ID).Scan(&count, &text)
	if err != nil {
		t.Fatalf("query pages: %v", err)
	}
	if count != 1 || text != "畅销榜单" {
		t.Fatalf("indexed row mismatch: %d %q", count, text)
	}
}

func TestSnapshotsAndPreviews(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, SnapshotStore(doc.NewStore("Snaps")))
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	ctx := context.Background()
	pageID := ph.Manifest.Pages[0].ID

	now := time.Now()
	for i := 0; i < 3; i++ {
		blob := []byte{byte(i)}
		if err := SaveSnapshot(ctx, ph, pageID, blob, now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}
	}
	latest, _, err := GetLatestSnapshot(ctx, ph, pageID)
	if err != nil {
		t.Fatalf("GetLatestSnapshot: %v", err)
	}
	if len(latest) != 1 || latest[0] != 2 {
		t.Fatalf("latest snapshot wrong: %v", latest)
	}
	if err := PruneOldSnapshots(ctx, ph, pageID, 2); err != nil {
		t.Fatalf("PruneOldSnapshots: %v", err)
	}
	list, err := ListSnapshots(ctx, ph, pageID, 10)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 snapshots after pruning, got %d", len(list))
	}

	if err := SavePreview(ctx, ph, pageID, []byte("png-bytes"), 160, 120); err != nil {
		t.Fatalf("SavePreview: %v", err)
	}
	blob, w, h, err := GetPreview(ctx, ph, pageID)
	if err != nil {
		t.Fatalf("GetPreview: %v", err)
	}
	if string(blob) != "png-bytes" || w != 160 || h != 120 {
		t.Fatalf("preview mismatch: %q %dx%d", blob, w, h)
	}
}
