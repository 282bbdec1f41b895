package projects

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/nsetools/project-scheduler/cmd/cli/config"
	"github.com/nsetools/project-scheduler/internal/models"
)

// captureOutput helps capture stdout during command execution.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String()
}

func TestProjectsList_TableOutput(t *testing.T) {
	items := []models.Project{
		{ID: 1, Name: "BECO TYSONS", ProjectNumber: "#21000", Manager: "Gary Golden", Status: "Active", Progress: 65},
		{ID: 2, Name: "MAX9", ProjectNumber: "#21007", Manager: "John Dennis", Status: "Active", Progress: 55},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/projects" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer stored-token" {
			t.Fatalf("authorization header: got %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"items": items,
			"total": len(items),
		})
	}))
	defer srv.Close()

	t.Setenv("SCHEDULER_API_URL", srv.URL)
	t.Setenv("HOME", t.TempDir())
	if err := config.SaveToken("stored-token"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	cmd := listCmd()

	out := captureOutput(t, func() {
		if err := cmd.Execute(); err != nil {
			t.Errorf("Execute: %v", err)
		}
	})

	if !strings.Contains(out, "BECO TYSONS") || !strings.Contains(out, "MAX9") {
		t.Fatalf("expected project names in output, got: %s", out)
	}
	if !strings.Contains(out, "Total: 2") {
		t.Errorf("expected total line in output, got: %s", out)
	}
}

func TestProjectsList_RequiresLogin(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cmd := listCmd()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected list to fail without a stored token")
	}
}

func TestProjectsProgress_SendsPatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PATCH" || r.URL.Path != "/projects/1/progress" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			Progress int `json:"progress"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Progress != 80 {
			t.Fatalf("progress: got %d, want 80", body.Progress)
		}
		_ = json.NewEncoder(w).Encode(models.Project{ID: 1, Name: "BECO TYSONS", Progress: 80})
	}))
	defer srv.Close()

	t.Setenv("SCHEDULER_API_URL", srv.URL)
	t.Setenv("HOME", t.TempDir())
	if err := config.SaveToken("stored-token"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	cmd := progressCmd()
	cmd.SetArgs([]string{"1", "--value", "80"})

	out := captureOutput(t, func() {
		if err := cmd.Execute(); err != nil {
			t.Errorf("Execute: %v", err)
		}
	})

	if !strings.Contains(out, `"progress":80`) {
		t.Errorf("expected updated project in output, got: %s", out)
	}
}
