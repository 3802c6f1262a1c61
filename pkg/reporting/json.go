package reporting

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteJSON writes v as indented JSON to path, creating the directory
func WriteJSON(v interface{}, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %T: %w", v, err)
	}

	if err := NewDefaultPathManager().EnsureDirectoryExists(path); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// WriteJSON lets the Excel reporter satisfy FileReporter
func (r *DefaultExcelReporter) WriteJSON(v interface{}, path string) error {
	return WriteJSON(v, path)
}
