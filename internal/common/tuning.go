package common

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the empirically tuned extraction constants that a deployment
// may override. Zero values mean "use the built-in default".
//
//	cadastral:
//	  window: 80
//	description:
//	  max_chars: 4000
//	  stop_phrases: ["se vuoi saperne", "invia messaggio"]
//	windows:
//	  offerta_minima: 80
//	  data_vendita: 120
//	fields:
//	  characteristics: true
type Tuning struct {
	Cadastral   CadastralTuning   `yaml:"cadastral"`
	Description DescriptionTuning `yaml:"description"`
	Windows     map[string]int    `yaml:"windows"`
	Fields      FieldGroups       `yaml:"fields"`
}

// CadastralTuning tunes the cadastral label-to-value window.
type CadastralTuning struct {
	Window int `yaml:"window"`
}

// DescriptionTuning tunes the description block extractor.
type DescriptionTuning struct {
	MaxChars    int      `yaml:"max_chars"`
	StopPhrases []string `yaml:"stop_phrases"`
}

// FieldGroups toggles optional field groups per deployment.
type FieldGroups struct {
	Characteristics *bool `yaml:"characteristics"`
}

// LoadTuning reads a YAML tuning file. An empty path yields an empty Tuning.
func LoadTuning(path string) (*Tuning, error) {
	t := &Tuning{}
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewAppError("CONFIG_ERROR", "read tuning file", err)
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("parse tuning file %s", path), err)
	}
	for name, w := range t.Windows {
		if w < 0 {
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("window %q must not be negative", name), ErrInvalidInput)
		}
	}
	if t.Cadastral.Window < 0 || t.Description.MaxChars < 0 {
		return nil, NewAppError("CONFIG_ERROR", "tuning values must not be negative", ErrInvalidInput)
	}
	return t, nil
}

// Window returns the override for name, or def when none is set.
func (t *Tuning) Window(name string, def int) int {
	if t == nil {
		return def
	}
	if w, ok := t.Windows[name]; ok && w > 0 {
		return w
	}
	return def
}
