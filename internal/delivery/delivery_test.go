package delivery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"captionary/internal/logging"
)

type fakeBridge struct {
	available bool
	saved     map[string][]byte
	saveErr   error
}

func (f *fakeBridge) Available() bool { return f.available }

func (f *fakeBridge) PickFile(context.Context) (string, bool, error) { return "", false, nil }

func (f *fakeBridge) SaveFile(_ context.Context, content []byte, filename string) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	if f.saved == nil {
		f.saved = make(map[string][]byte)
	}
	f.saved[filename] = content
	return "/picked/" + filename, nil
}

func TestSelectPrefersAvailableBridge(t *testing.T) {
	download := NewDownloadSink(t.TempDir(), "subtitles.srt", logging.NewNop())
	bridge := &fakeBridge{available: true}

	sink := Select(bridge, download)
	if sink.Name() != "native" {
		t.Fatalf("expected native sink, got %s", sink.Name())
	}
	location, err := sink.Deliver(context.Background(), []byte("srt"), "clip.srt")
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if location != "/picked/clip.srt" || string(bridge.saved["clip.srt"]) != "srt" {
		t.Fatalf("bridge did not receive the artifact: %q %v", location, bridge.saved)
	}
	entries, err := os.ReadDir(download.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("download sink must not be used when the bridge is available")
	}
}

func TestSelectFallsBackToDownload(t *testing.T) {
	download := NewDownloadSink(t.TempDir(), "subtitles.srt", logging.NewNop())

	if sink := Select(&fakeBridge{available: false}, download); sink.Name() != "download" {
		t.Fatalf("expected download sink, got %s", sink.Name())
	}
	if sink := Select(nil, download); sink.Name() != "download" {
		t.Fatalf("expected download sink for nil bridge, got %s", sink.Name())
	}
}

func TestNativeSinkPropagatesCancel(t *testing.T) {
	sink := NewNativeSink(&fakeBridge{available: true, saveErr: ErrSaveCancelled})
	if _, err := sink.Deliver(context.Background(), []byte("x"), "a.srt"); !errors.Is(err, ErrSaveCancelled) {
		t.Fatalf("expected ErrSaveCancelled, got %v", err)
	}
}

func TestDownloadSinkNumbersCollisions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Downloads")
	sink := NewDownloadSink(dir, "subtitles.srt", logging.NewNop())
	ctx := context.Background()

	first, err := sink.Deliver(ctx, []byte("one"), "clip.srt")
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	second, err := sink.Deliver(ctx, []byte("two"), "clip.srt")
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if first != filepath.Join(dir, "clip.srt") || second != filepath.Join(dir, "clip (1).srt") {
		t.Fatalf("unexpected paths %q %q", first, second)
	}
	got, err := os.ReadFile(second)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "two" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestDownloadSinkConcurrentDeliveriesKeepEveryFile(t *testing.T) {
	dir := t.TempDir()
	sink := NewDownloadSink(dir, "subtitles.srt", logging.NewNop())

	const writers = 8
	paths := make([]string, writers)
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			paths[i], errs[i] = sink.Deliver(context.Background(), []byte(strconv.Itoa(i)), "clip.srt")
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for i, path := range paths {
		if errs[i] != nil {
			t.Fatalf("Deliver %d: %v", i, errs[i])
		}
		if seen[path] {
			t.Fatalf("two deliveries wrote %q", path)
		}
		seen[path] = true
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != strconv.Itoa(i) {
			t.Fatalf("%s was overwritten: got %q, want %q", path, data, strconv.Itoa(i))
		}
	}
}

func TestDownloadSinkSanitizesName(t *testing.T) {
	dir := t.TempDir()
	sink := NewDownloadSink(dir, "subtitles.srt", logging.NewNop())

	got, err := sink.Deliver(context.Background(), []byte("x"), "../../etc/passwd")
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if filepath.Dir(got) != dir {
		t.Fatalf("artifact escaped the download dir: %q", got)
	}

	got, err = sink.Deliver(context.Background(), []byte("x"), "..")
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if got != filepath.Join(dir, "subtitles.srt") {
		t.Fatalf("expected fallback name, got %q", got)
	}
}

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"http://h/download/x?download_name=talk.srt", "talk.srt"},
		{"/download/interview.srt", "subtitles.srt"},
		{"http://h/download/abc123.srt", "subtitles.srt"},
		{"http://h/download/interview.srt?download_name=", "subtitles.srt"},
		{"http://h/artifact/1234", "subtitles.srt"},
		{"http://h/download/x?download_name=..%2F..%2Fevil.srt", "..-..-evil.srt"},
		{"::not a url", "subtitles.srt"},
	}
	for _, tt := range tests {
		if got := FilenameFromURL(tt.raw, "subtitles.srt"); got != tt.want {
			t.Errorf("FilenameFromURL(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestIsMediaFile(t *testing.T) {
	for _, name := range []string{"a.mp3", "b.WAV", "/x/c.mkv", "d.webm"} {
		if !IsMediaFile(name) {
			t.Errorf("expected %q to be a media file", name)
		}
	}
	for _, name := range []string{"a.srt", "b", "c.txt"} {
		if IsMediaFile(name) {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}

func newTestBridge(t *testing.T, runner commandRunner) *DialogBridge {
	t.Helper()
	b := NewDialogBridge("zenity", true, logging.NewNop())
	b.lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	b.hasDisplay = func() bool { return true }
	b.WithCommandRunner(runner)
	return b
}

func TestDialogBridgeAvailability(t *testing.T) {
	b := newTestBridge(t, nil)
	if !b.Available() {
		t.Fatal("expected bridge to be available")
	}

	b.hasDisplay = func() bool { return false }
	if b.Available() {
		t.Fatal("expected bridge to be unavailable without a display")
	}

	b = newTestBridge(t, nil)
	b.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	if b.Available() {
		t.Fatal("expected bridge to be unavailable without the executable")
	}

	disabled := NewDialogBridge("zenity", false, logging.NewNop())
	disabled.lookPath = func(name string) (string, error) { return name, nil }
	disabled.hasDisplay = func() bool { return true }
	if disabled.Available() {
		t.Fatal("disabled bridge must not be available")
	}
}

func TestDialogBridgeSaveFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "chosen.srt")
	var gotArgs []string
	b := newTestBridge(t, func(_ context.Context, name string, args ...string) (string, error) {
		gotArgs = append([]string{name}, args...)
		return target + "\n", nil
	})

	saved, err := b.SaveFile(context.Background(), []byte("subs"), "clip.srt")
	if err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if saved != target {
		t.Fatalf("unexpected saved path %q", saved)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "subs" {
		t.Fatalf("unexpected content %q", data)
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "--save") || !strings.Contains(joined, "--filename=clip.srt") {
		t.Fatalf("unexpected dialog args: %v", gotArgs)
	}
}

func TestDialogBridgeSaveCancelled(t *testing.T) {
	b := newTestBridge(t, func(context.Context, string, ...string) (string, error) {
		return "", errDialogDismissed
	})
	if _, err := b.SaveFile(context.Background(), []byte("x"), "a.srt"); !errors.Is(err, ErrSaveCancelled) {
		t.Fatalf("expected ErrSaveCancelled, got %v", err)
	}
}

func TestDialogBridgePickFile(t *testing.T) {
	b := newTestBridge(t, func(_ context.Context, _ string, args ...string) (string, error) {
		if !strings.Contains(strings.Join(args, " "), "*.mp3") {
			t.Errorf("expected media filter in args: %v", args)
		}
		return "/media/talk.mp4\n", nil
	})
	path, ok, err := b.PickFile(context.Background())
	if err != nil || !ok || path != "/media/talk.mp4" {
		t.Fatalf("PickFile = %q, %v, %v", path, ok, err)
	}

	b.WithCommandRunner(func(context.Context, string, ...string) (string, error) {
		return "", errDialogDismissed
	})
	path, ok, err = b.PickFile(context.Background())
	if err != nil || ok || path != "" {
		t.Fatalf("cancelled PickFile = %q, %v, %v", path, ok, err)
	}

	b.WithCommandRunner(func(context.Context, string, ...string) (string, error) {
		return "", errors.New("gtk init failed")
	})
	if _, _, err := b.PickFile(context.Background()); err == nil {
		t.Fatal("expected runner failure to surface")
	}
}
