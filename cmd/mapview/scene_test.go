package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadScene_Default(t *testing.T) {
	sc, err := loadScene("")
	if err != nil {
		t.Fatalf("default scene: %v", err)
	}
	if len(sc.Markers) == 0 || sc.Fit == nil || len(sc.Fit.IDs) != len(sc.Markers) {
		t.Fatalf("unexpected default scene %+v", sc)
	}
}

func TestLoadScene_Rejects(t *testing.T) {
	cases := map[string]string{
		"bad region": `{"initialRegion":{"latitude":1,"longitude":1}}`,
		"dup ids":    `{"initialRegion":{"latitude":1,"longitude":1,"latitudeDelta":1,"longitudeDelta":1},"markers":[{"id":"a","location":{"latitude":0,"longitude":0}},{"id":"a","location":{"latitude":0,"longitude":0}}]}`,
		"bad marker": `{"initialRegion":{"latitude":1,"longitude":1,"latitudeDelta":1,"longitudeDelta":1},"markers":[{"id":"a","location":{"latitude":95,"longitude":0}}]}`,
		"not json":   `{`,
	}
	dir := t.TempDir()
	for name, body := range cases {
		p := filepath.Join(dir, strings.ReplaceAll(name, " ", "_")+".json")
		if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := loadScene(p); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := loadScene(filepath.Join(dir, "missing.json")); err == nil {
		t.Errorf("missing file: expected error")
	}
}
