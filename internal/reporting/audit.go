package reporting

import (
	"encoding/json"
	"fmt"
	"os"
)

// AuditFlag is one finding of the external compliance linter.
// Flags are shown in the report and never change any number.
type AuditFlag struct {
	Area     string `json:"area"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// LoadAuditFlags reads a JSON array of audit flags.
func LoadAuditFlags(path string) ([]AuditFlag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audit flags: %w", err)
	}
	return ParseAuditFlags(data)
}

// ParseAuditFlags decodes a JSON array of audit flags. Entries without a
// message are rejected.
func ParseAuditFlags(data []byte) ([]AuditFlag, error) {
	var flags []AuditFlag
	if err := json.Unmarshal(data, &flags); err != nil {
		return nil, fmt.Errorf("parse audit flags: %w", err)
	}
	for i, f := range flags {
		if f.Message == "" {
			return nil, fmt.Errorf("parse audit flags: entry %d has no message", i)
		}
	}
	return flags, nil
}
