package export

import (
	"encoding/json"
	"os"
)

// WriteJSON writes the dossier document as an indented JSON artifact.
func WriteJSON(path string, doc Document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
