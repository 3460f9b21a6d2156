package models

import (
	"os"
	"path/filepath"
	"time"

	"github.com/tatianab/lostcastle/internal/oplog"
	"gopkg.in/yaml.v3"
)

// SaveDir is where transcripts are written. Overridden from config at startup.
var SaveDir = ".saves"

const transcriptFile = "transcript.yaml"

// Transcript is a client-side record of what the operator saw: the operator
// log, the roster snapshot and the session, if any, at the time of saving.
type Transcript struct {
	Saved   time.Time      `yaml:"saved"`
	Roster  []Player       `yaml:"roster"`
	Session *CombatSession `yaml:"session,omitempty"`
	Entries []oplog.Entry  `yaml:"entries"`
}

func (t *Transcript) Save(name string) error {
	dir := filepath.Join(SaveDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(t)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, transcriptFile), data, 0644)
}

func LoadTranscript(name string) (*Transcript, error) {
	data, err := os.ReadFile(filepath.Join(SaveDir, name, transcriptFile))
	if err != nil {
		return nil, err
	}
	var t Transcript
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func ListTranscripts() ([]string, error) {
	if _, err := os.Stat(SaveDir); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(SaveDir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			// A directory without transcript.yaml is not ours.
			if _, err := os.Stat(filepath.Join(SaveDir, entry.Name(), transcriptFile)); err == nil {
				names = append(names, entry.Name())
			}
		}
	}
	return names, nil
}
