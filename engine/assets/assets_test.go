package assets

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/rebound/engine/renderer/metadata"
)

const triangleOBJ = "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"

func TestDetermineAssetType(t *testing.T) {
	tests := map[string]metadata.ResourceType{
		"build/shaders/vert.spv": metadata.ResourceTypeShader,
		"assets/ball.obj":        metadata.ResourceTypeModel,
		"assets/ball.mtl":        metadata.ResourceTypeNone,
		"README":                 metadata.ResourceTypeNone,
	}
	for path, want := range tests {
		if got := determineAssetType(path); got != want {
			t.Errorf("determineAssetType(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestInitializeIndexes(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "models")
	if err := os.Mkdir(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	obj := filepath.Join(nested, "tri.obj")
	if err := os.WriteFile(obj, []byte(triangleOBJ), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	am, err := NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}
	defer am.Shutdown()

	if err := am.Initialize(dir, false); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	info, ok := am.Lookup(obj)
	if !ok || info.Type != metadata.ResourceTypeModel {
		t.Fatalf("Lookup(%s) = %+v, %v", obj, info, ok)
	}
	if _, ok := am.Lookup(filepath.Join(dir, "notes.txt")); ok {
		t.Error("unknown file type was indexed")
	}

	res, err := am.LoadAsset(obj, metadata.ResourceTypeNone, nil)
	if err != nil {
		t.Fatalf("LoadAsset: %v", err)
	}
	mesh := res.Data.(*metadata.MeshData)
	if mesh.IndexCount() != 3 {
		t.Errorf("index count = %d, want 3", mesh.IndexCount())
	}
	if info, _ := am.Lookup(obj); info.LastLoaded.IsZero() {
		t.Error("LastLoaded not recorded")
	}
	if err := am.UnloadAsset(res); err != nil || res.Data != nil {
		t.Errorf("UnloadAsset: %v, data %v", err, res.Data)
	}
}

func TestLoadAssetUnknownType(t *testing.T) {
	am, err := NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}
	defer am.Shutdown()

	if _, err := am.LoadAsset("image.png", metadata.ResourceTypeNone, nil); err == nil {
		t.Error("expected an error for an unknown asset type")
	}
}

func TestMissingDirectoryIsNotAnError(t *testing.T) {
	am, err := NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}
	defer am.Shutdown()

	if err := am.Initialize(filepath.Join(t.TempDir(), "absent"), false); err != nil {
		t.Errorf("Initialize: %v", err)
	}
}

func TestDrainReloadsCollapsesDuplicates(t *testing.T) {
	am, err := NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}
	defer am.Shutdown()

	am.queueReload("a.obj")
	am.queueReload("b.spv")
	am.queueReload("a.obj")
	am.queueReload("c.txt")

	got := am.DrainReloads()
	if len(got) != 2 || got[0].Path != "a.obj" || got[1].Path != "b.spv" {
		t.Fatalf("DrainReloads = %+v", got)
	}
	if got[1].Type != metadata.ResourceTypeShader {
		t.Errorf("type = %s, want shader", got[1].Type)
	}
	if again := am.DrainReloads(); len(again) != 0 {
		t.Errorf("second drain = %+v, want empty", again)
	}
}

func TestWatcherQueuesReload(t *testing.T) {
	dir := t.TempDir()
	obj := filepath.Join(dir, "ball.obj")
	if err := os.WriteFile(obj, []byte(triangleOBJ), 0o644); err != nil {
		t.Fatal(err)
	}

	am, err := NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}
	defer am.Shutdown()
	if err := am.Initialize(dir, true); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if err := os.WriteFile(obj, []byte(triangleOBJ+"f 3 2 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		for _, r := range am.DrainReloads() {
			if r.Path == obj && r.Type == metadata.ResourceTypeModel {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("no reload request for the modified file")
}

func TestShutdownIsIdempotent(t *testing.T) {
	am, err := NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}
	if err := am.Initialize(t.TempDir(), true); err != nil {
		t.Fatal(err)
	}
	if err := am.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := am.Shutdown(); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
	if err := am.Watch("x.obj"); err != ErrManagerClosed {
		t.Errorf("Watch after shutdown = %v", err)
	}
}
