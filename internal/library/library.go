// Package library tracks files handed to the studio for scanning and the
// content extracted from them.
package library

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Status is the processing state of an uploaded file.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusAnalyzed   Status = "analyzed"
	StatusError      Status = "error"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusProcessing, StatusAnalyzed, StatusError:
		return true
	default:
		return false
	}
}

// Extracted holds the text and mood read from a scanned page.
type Extracted struct {
	Text string `json:"text" yaml:"text"`
	Mood string `json:"mood" yaml:"mood"`
}

// File is one uploaded item.
type File struct {
	ID           string     `json:"id" yaml:"id"`
	Name         string     `json:"name" yaml:"name"`
	Status       Status     `json:"status" yaml:"status"`
	Thumbnail    string     `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	StageMessage string     `json:"stageMessage,omitempty" yaml:"stage_message,omitempty"`
	Extracted    *Extracted `json:"extractedData,omitempty" yaml:"extracted,omitempty"`
}

func (f File) clone() File {
	if f.Extracted != nil {
		e := *f.Extracted
		f.Extracted = &e
	}
	return f
}

// Update is a partial change to a File. Nil fields are left alone.
type Update struct {
	Name         *string
	Status       *Status
	Thumbnail    *string
	StageMessage *string
	Extracted    *Extracted
}

// Library is an ordered, newest-first list of files.
type Library struct {
	mu       sync.Mutex
	files    []File
	newID    func() string
	onChange func([]File)
}

// New returns an empty library.
func New() *Library {
	return &Library{newID: uuid.NewString}
}

// OnChange registers fn to receive a copy of the list after each mutation.
func (l *Library) OnChange(fn func([]File)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = fn
}

// Restore replaces the contents without notifying.
func (l *Library) Restore(files []File) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.files = cloneFiles(files)
}

// Add prepends a file in processing state and returns its id. A blank id on
// f is replaced with a fresh one.
func (l *Library) Add(f File) string {
	l.mu.Lock()
	f = f.clone()
	if strings.TrimSpace(f.ID) == "" {
		f.ID = l.newID()
	}
	if !f.Status.Valid() {
		f.Status = StatusProcessing
	}
	l.files = append([]File{f}, l.files...)
	l.notifyLocked()
	return f.ID
}

// Update merges u into the file with id.
func (l *Library) Update(id string, u Update) error {
	l.mu.Lock()
	idx := l.indexLocked(id)
	if idx < 0 {
		l.mu.Unlock()
		return fmt.Errorf("library file %q not found", id)
	}
	f := l.files[idx]
	if u.Name != nil {
		f.Name = *u.Name
	}
	if u.Status != nil {
		if !u.Status.Valid() {
			l.mu.Unlock()
			return fmt.Errorf("invalid library status %q", *u.Status)
		}
		f.Status = *u.Status
	}
	if u.Thumbnail != nil {
		f.Thumbnail = *u.Thumbnail
	}
	if u.StageMessage != nil {
		f.StageMessage = *u.StageMessage
	}
	if u.Extracted != nil {
		e := *u.Extracted
		f.Extracted = &e
	}
	l.files[idx] = f
	l.notifyLocked()
	return nil
}

// Delete removes the file with id, reporting whether it existed.
func (l *Library) Delete(id string) bool {
	l.mu.Lock()
	idx := l.indexLocked(id)
	if idx < 0 {
		l.mu.Unlock()
		return false
	}
	l.files = append(l.files[:idx:idx], l.files[idx+1:]...)
	l.notifyLocked()
	return true
}

// Get returns the file with id.
func (l *Library) Get(id string) (File, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.indexLocked(id)
	if idx < 0 {
		return File{}, false
	}
	return l.files[idx].clone(), true
}

// List returns a copy of all files, newest first.
func (l *Library) List() []File {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneFiles(l.files)
}

func (l *Library) indexLocked(id string) int {
	for i, f := range l.files {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// notifyLocked releases l.mu before calling the listener.
func (l *Library) notifyLocked() {
	fn := l.onChange
	snapshot := cloneFiles(l.files)
	l.mu.Unlock()
	if fn != nil {
		fn(snapshot)
	}
}

func cloneFiles(files []File) []File {
	out := make([]File, len(files))
	for i, f := range files {
		out[i] = f.clone()
	}
	return out
}
