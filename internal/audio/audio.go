// Package audio models the recording capability as an opaque source of
// encoded clips. Capture and encoding happen outside this module.
package audio

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
)

const (
	DefaultName        = "recorded_audio.m4a"
	DefaultContentType = "audio/m4a"
)

var (
	// ErrPermissionDenied means the recording capability was refused. It is not retried.
	ErrPermissionDenied = errors.New("audio: recording permission denied")
	ErrEmptyClip        = errors.New("audio: empty clip")
)

// Clip is one recorded utterance.
type Clip struct {
	Name        string
	ContentType string
	Data        []byte
}

// NewClip wraps raw bytes with the default recording name and type.
func NewClip(data []byte) Clip {
	return Clip{Name: DefaultName, ContentType: DefaultContentType, Data: data}
}

func (c Clip) Validate() error {
	if len(c.Data) == 0 {
		return ErrEmptyClip
	}
	return nil
}

// Source yields one clip per call.
type Source interface {
	Record(ctx context.Context) (Clip, error)
}

// FileSource reads an already recorded file.
type FileSource struct {
	Path string
}

func (s FileSource) Record(ctx context.Context) (Clip, error) {
	if err := ctx.Err(); err != nil {
		return Clip{}, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return Clip{}, fmt.Errorf("%w: %s", ErrPermissionDenied, s.Path)
		}
		return Clip{}, fmt.Errorf("read clip: %w", err)
	}
	clip := Clip{Name: filepath.Base(s.Path), ContentType: contentType(s.Path), Data: data}
	if err := clip.Validate(); err != nil {
		return Clip{}, err
	}
	return clip, nil
}

func contentType(path string) string {
	ext := filepath.Ext(path)
	switch ext {
	case ".m4a":
		return DefaultContentType
	case "":
		return DefaultContentType
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return DefaultContentType
}
