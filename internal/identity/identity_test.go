package identity

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMetadata(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resource-metadata.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeMetadata(t, `{
		"ResourceArn": "arn:aws:sagemaker:us-west-2:123456789012:notebook-instance/nb-analytics",
		"ResourceName": "nb-analytics"
	}`)

	id, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.Name != "nb-analytics" {
		t.Errorf("Name = %q", id.Name)
	}
	if id.ARN != "arn:aws:sagemaker:us-west-2:123456789012:notebook-instance/nb-analytics" {
		t.Errorf("ARN = %q", id.ARN)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid JSON", `{not json`},
		{"missing name", `{"ResourceArn": "arn:aws:sagemaker:::nb"}`},
		{"missing arn", `{"ResourceName": "nb"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeMetadata(t, tt.content)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
