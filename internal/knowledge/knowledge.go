// Package knowledge loads the app knowledge base the prompt builder
// draws support contacts, features, and FAQ answers from.
package knowledge

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/playreply/pkg/models"
)

// DefaultPath is the knowledge base location relative to the working
// directory when the config does not name one.
const DefaultPath = "knowledge_base.json"

// Default returns the starter knowledge base written when no file exists.
func Default() models.KnowledgeBase {
	return models.KnowledgeBase{
		AppName:     "Your App",
		Description: "A great mobile application",
		Features: []string{
			"Feature 1: Description",
			"Feature 2: Description",
			"Feature 3: Description",
		},
		FAQs: []models.FAQ{
			{
				Question: "How do I use this app?",
				Answer:   "Simply download and follow the on-screen instructions.",
			},
			{
				Question: "Is this app free?",
				Answer:   "Yes, our app is completely free to use.",
			},
		},
		TargetUsers:    "General mobile users",
		SupportContact: "support@yourapp.com",
	}
}

// Load reads the knowledge base at path. When the file does not exist a
// default knowledge base is written there and returned, so a fresh
// install always has something for the prompt builder to work with.
func Load(path string) (models.KnowledgeBase, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		kb := Default()
		if saveErr := Save(path, kb); saveErr != nil {
			log.Warn().Err(saveErr).Str("path", path).Msg("Could not write default knowledge base")
		}
		return kb, nil
	}
	if err != nil {
		return models.KnowledgeBase{}, fmt.Errorf("failed to read knowledge base: %w", err)
	}

	var kb models.KnowledgeBase
	if err := json.Unmarshal(data, &kb); err != nil {
		return models.KnowledgeBase{}, fmt.Errorf("failed to parse knowledge base %s: %w", path, err)
	}
	return kb, nil
}

// Save writes the knowledge base to path as indented JSON.
func Save(path string, kb models.KnowledgeBase) error {
	data, err := json.MarshalIndent(kb, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal knowledge base: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write knowledge base: %w", err)
	}
	return nil
}
