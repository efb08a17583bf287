// Package layout classifies a release folder as a single-file or
// multi-file audio layout. Upstream renaming rules only touch
// filenames in single-file layouts, and the classification decides
// whether duration/bitrate describe one file or an aggregate of parts.
package layout

import (
	"os"
	"path/filepath"
	"strings"
)

// AudioExtensions are the recognized audiobook audio file extensions.
var AudioExtensions = []string{
	".m4b",
	".m4a",
	".mp3",
	".opus",
	".ogg",
	".flac",
	".aac",
	".wma",
}

var audioExtSet = func() map[string]bool {
	set := make(map[string]bool, len(AudioExtensions))
	for _, ext := range AudioExtensions {
		set[ext] = true
	}
	return set
}()

// IsAudioFile reports whether the path carries a recognized audio
// extension. Case-insensitive.
func IsAudioFile(path string) bool {
	return audioExtSet[strings.ToLower(filepath.Ext(path))]
}

// Kind is the detected folder layout.
type Kind string

const (
	SingleFile Kind = "single-file"
	MultiFile  Kind = "multi-file"
)

// Detect classifies a path. A non-directory or a folder holding zero
// or one audio file is single-file; more than one is multi-file. Only
// the top level of the folder is considered.
func Detect(path string) (Kind, error) {
	info, err := os.Stat(path)
	if err != nil {
		return SingleFile, err
	}
	if !info.IsDir() {
		return SingleFile, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return SingleFile, err
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if IsAudioFile(entry.Name()) {
			count++
			if count > 1 {
				return MultiFile, nil
			}
		}
	}

	return SingleFile, nil
}

// AudioFiles lists the audio files at the top level of a folder,
// sorted by name. For a non-directory audio path it returns the path
// itself.
func AudioFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if IsAudioFile(path) {
			return []string{path}, nil
		}
		return nil, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !IsAudioFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}

	return files, nil
}
