package parser

import (
	"reflect"
	"testing"

	"github.com/kailas-cloud/moe/internal/domain/record"
)

func TestDAT_Sample(t *testing.T) {
	rec := parseFixture(t, "wall_cabinet.cab")

	wantParams := []string{"WIDTH: 24", "HEIGHT: 30", "DEPTH: 12"}
	if !reflect.DeepEqual(rec.Parameters, wantParams) {
		t.Errorf("parameters = %v", rec.Parameters)
	}
	wantParts := []string{
		"SIDE PANEL LEFT", "SIDE PANEL RIGHT", "TOP", "BOTTOM", "BACK", "DOOR", "SHELF x2",
	}
	if !reflect.DeepEqual(rec.Parts, wantParts) {
		t.Errorf("parts = %v", rec.Parts)
	}
	if len(rec.Constraints) != 0 {
		t.Errorf("flat files have no constraints, got %v", rec.Constraints)
	}
	if rec.Metadata.LineCount != 16 {
		t.Errorf("line count = %d", rec.Metadata.LineCount)
	}
	// DOOR_STYLE, HINGE_TYPE, MATERIAL, FINISH
	if rec.Metadata.Extra["ignored_lines"] != 4 {
		t.Errorf("ignored lines = %v", rec.Metadata.Extra["ignored_lines"])
	}
}

func TestDAT_Defaults(t *testing.T) {
	rec, err := New().ParseBytes("empty.dat", []byte("\n\n   \n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Version != "Unknown" || rec.CabinetType != "Unknown Cabinet" {
		t.Errorf("placeholders not applied: %+v", rec)
	}
	want := []string{"Missing width specification", "Missing height specification", "No parts defined"}
	if !reflect.DeepEqual(rec.Issues, want) {
		t.Errorf("issues = %v", rec.Issues)
	}
}

func TestDAT_CaseInsensitiveKeys(t *testing.T) {
	content := "version=9\ncabinet_type=Corner\nDoor_Width=15\ninside_height=28\npart_hinge=4"
	rec, err := New().ParseBytes("c.dat", []byte(content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Version != "9" || rec.CabinetType != "Corner" {
		t.Errorf("version %q type %q", rec.Version, rec.CabinetType)
	}
	wantParams := []string{"Door Width: 15", "inside height: 28"}
	if !reflect.DeepEqual(rec.Parameters, wantParams) {
		t.Errorf("parameters = %v", rec.Parameters)
	}
	if !reflect.DeepEqual(rec.Parts, []string{"hinge x4"}) {
		t.Errorf("parts = %v", rec.Parts)
	}
	if len(rec.Issues) != 0 {
		t.Errorf("issues = %v", rec.Issues)
	}
}

func TestMOZ_Sample(t *testing.T) {
	rec := parseFixture(t, "drawer_cabinet.mzb")

	wantParams := []string{"Width: 18", "Height: 34.5", "Depth: 24", "DrawerCount: 3"}
	if !reflect.DeepEqual(rec.Parameters, wantParams) {
		t.Errorf("parameters = %v", rec.Parameters)
	}
	if len(rec.Parts) != 11 || rec.Parts[10] != "Drawer Front 3" {
		t.Errorf("parts = %v", rec.Parts)
	}
	wantConstraints := []string{"Minimum drawer clearance: 0.5 inch", "Max drawer load: 75 lbs"}
	if !reflect.DeepEqual(rec.Constraints, wantConstraints) {
		t.Errorf("constraints = %v", rec.Constraints)
	}
	if rec.Metadata.SectionCount != 5 {
		t.Errorf("section count = %d", rec.Metadata.SectionCount)
	}
}

func TestMOZ_Defaults(t *testing.T) {
	rec, err := New().ParseBytes("bare.moz", []byte("[DIMENSIONS]\nWidth=10\nHeight=20\n[PARTS]\nTop"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.FileType != record.TypeMOZ || rec.Version != "MZB 1.0" || rec.CabinetType != "Mozaik Cabinet" {
		t.Errorf("unexpected record header: %+v", rec)
	}
	if len(rec.Issues) != 0 {
		t.Errorf("issues = %v", rec.Issues)
	}
}

func TestMOZ_KeysOutsideSections(t *testing.T) {
	// Lines before any header use the flat rules.
	rec, err := New().ParseBytes("flat.mzb", []byte("WIDTH=10\nHEIGHT=20\nPART_TOP=1\n[PARTS]\nPART_SHELF=3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(rec.Parts, []string{"TOP", "SHELF x3"}) {
		t.Errorf("parts = %v", rec.Parts)
	}
}

func TestDES_Sample(t *testing.T) {
	rec := parseFixture(t, "vanity.des")

	wantParams := []string{"OVERALL WIDTH: 30", "OVERALL HEIGHT: 32", "OVERALL DEPTH: 21"}
	if !reflect.DeepEqual(rec.Parameters, wantParams) {
		t.Errorf("parameters = %v", rec.Parameters)
	}
	wantParts := []string{"SIDE x2", "TOE KICK", "FALSE FRONT (Walnut)"}
	if !reflect.DeepEqual(rec.Parts, wantParts) {
		t.Errorf("parts = %v", rec.Parts)
	}
	if rec.Metadata.LineCount != 10 {
		t.Errorf("line count = %d", rec.Metadata.LineCount)
	}
}

func TestDES_SectionHeadersAreNotRouted(t *testing.T) {
	rec, err := New().ParseBytes("d.des", []byte("[PARTS]\nWIDTH=1\nHEIGHT=2\nCOMPONENT_A=1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.Parameters) != 2 || !reflect.DeepEqual(rec.Parts, []string{"A"}) {
		t.Errorf("unexpected routing: %+v", rec)
	}
}

func TestFormatPart(t *testing.T) {
	tests := []struct {
		name, value, want string
	}{
		{"SIDE_PANEL", "1", "SIDE PANEL"},
		{"SIDE_PANEL", "", "SIDE PANEL"},
		{"SHELF", "2", "SHELF x2"},
		{"FRONT", "Walnut", "FRONT (Walnut)"},
	}
	for _, tc := range tests {
		if got := formatPart(tc.name, tc.value); got != tc.want {
			t.Errorf("formatPart(%q, %q) = %q, want %q", tc.name, tc.value, got, tc.want)
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	for _, key := range []string{"CABINET_TYPE", "CabinetType", "cabinet-type", "Cabinet Type"} {
		if got := normalizeKey(key); got != "CABINETTYPE" {
			t.Errorf("normalizeKey(%q) = %q", key, got)
		}
	}
}
