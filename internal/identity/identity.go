// Package identity reads the notebook's read-only resource metadata.
package identity

import (
	"encoding/json"
	"fmt"
	"os"
)

// Identity names the notebook instance this process runs on.  The ARN
// tags directory API calls; the name marks key ownership.
type Identity struct {
	Name string `json:"ResourceName"`
	ARN  string `json:"ResourceArn"`
}

// Load parses the resource metadata JSON at path.
func Load(path string) (Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Identity{}, fmt.Errorf("reading notebook metadata: %w", err)
	}
	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, fmt.Errorf("parsing notebook metadata %s: %w", path, err)
	}
	if id.Name == "" || id.ARN == "" {
		return Identity{}, fmt.Errorf("notebook metadata %s is missing ResourceName or ResourceArn", path)
	}
	return id, nil
}
