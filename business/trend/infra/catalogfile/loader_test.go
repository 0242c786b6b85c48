package catalogfile

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/fd1az/product-scout/business/trend/domain"
	"github.com/fd1az/product-scout/internal/apperror"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	catalog, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(catalog.Seasons) != 4 {
		t.Errorf("expected 4 default seasons, got %d", len(catalog.Seasons))
	}
}

func TestLoad_OverridesOnlyGivenSections(t *testing.T) {
	path := writeFile(t, "catalog.yaml", `
seasons:
  - name: diwali
    keywords: [diya, rangoli, lantern]
    peak_months: [10, 11]
    shoulder_months: [9]
    peak_factor: 1.7
    shoulder_factor: 1.2
    off_factor: 0.8
competition:
  high: [lantern]
  low: [handcrafted]
`)

	catalog, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(catalog.Seasons) != 1 || catalog.Seasons[0].Name != "diwali" {
		t.Fatalf("seasons = %+v", catalog.Seasons)
	}
	if got := catalog.Seasons[0].PhaseAt(time.November); got != domain.PhasePeak {
		t.Errorf("November phase = %s", got)
	}
	if catalog.CompetitionTierFor("paper lantern") != domain.TierHigh {
		t.Error("competition lists should come from the file")
	}
	if catalog.CategoryFor("bluetooth speaker") != "tech" {
		t.Error("categories should keep the defaults")
	}
	if !slices.Contains(catalog.Regulatory.Restricted, "battery") {
		t.Error("regulatory lists should keep the defaults")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") }},
		{"month out of range", func(t *testing.T) string {
			return writeFile(t, "bad.yaml", `
seasons:
  - name: broken
    keywords: [x]
    peak_months: [13]
    peak_factor: 1
    shoulder_factor: 1
    off_factor: 1
`)
		}},
		{"non-positive factor", func(t *testing.T) string {
			return writeFile(t, "bad.json", `{"seasons":[{"name":"flat","keywords":["y"],"peak_factor":0,"shoulder_factor":1,"off_factor":1}]}`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			if apperror.GetCode(err) != apperror.CodeCatalogLoadFailed {
				t.Errorf("expected CodeCatalogLoadFailed, got %v", err)
			}
		})
	}
}
