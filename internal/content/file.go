package content

import (
	"context"
	"fmt"
	"os"

	"github.com/DoyleJ11/pixeliz-backend/internal/engine"
	"gopkg.in/yaml.v3"
)

// FileSource reads rounds from a YAML document:
//
//	rounds:
//	  - image: https://example.com/rook.jpg
//	    answers: [corbeau, corneille]
//	    hints: [oiseau]
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource { return &FileSource{path: path} }

func (s *FileSource) Name() string { return "file" }

type roundsFile struct {
	Rounds []engine.RoundDefinition `yaml:"rounds"`
}

func (s *FileSource) Load(context.Context) ([]engine.RoundDefinition, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rounds file: %w", err)
	}
	var f roundsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rounds file: %w", err)
	}
	return f.Rounds, nil
}
