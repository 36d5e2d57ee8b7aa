package domain

import (
	"path/filepath"
	"strings"
)

// MediaKind is the delivery class of an attachment
type MediaKind int

const (
	MediaGeneric MediaKind = iota
	MediaVoice
	MediaRoundVideo
)

func (k MediaKind) String() string {
	switch k {
	case MediaVoice:
		return "voice"
	case MediaRoundVideo:
		return "round_video"
	default:
		return "generic"
	}
}

// Media describes an attachment and holds the transport handle needed to download it
type Media struct {
	Voice    bool
	Round    bool
	IsPhoto  bool
	MimeType string
	FileName string
	Size     int64
	Handle   any
}

// ClassifyMedia picks the delivery class. Declared voice and round flags win;
// otherwise an unnamed ogg/opus audio file is treated as a voice note.
func ClassifyMedia(m *Media) MediaKind {
	if m == nil {
		return MediaGeneric
	}

	switch {
	case m.Voice:
		return MediaVoice
	case m.Round:
		return MediaRoundVideo
	}

	mime := baseMime(m.MimeType)
	if m.FileName == "" && (mime == "audio/ogg" || mime == "audio/opus") {
		return MediaVoice
	}

	return MediaGeneric
}

// MediaExtension returns the file extension used for the downloaded file
func MediaExtension(m *Media, kind MediaKind) string {
	switch kind {
	case MediaVoice:
		return ".ogg"
	case MediaRoundVideo:
		return ".mp4"
	}

	if m == nil {
		return ".bin"
	}

	if ext := strings.ToLower(filepath.Ext(m.FileName)); ext != "" {
		return ext
	}

	if mime := baseMime(m.MimeType); mime != "" {
		if _, sub, ok := strings.Cut(mime, "/"); ok && sub != "" {
			if sub == "jpeg" {
				return ".jpg"
			}
			if i := strings.IndexAny(sub, "+."); i > 0 {
				sub = sub[:i]
			}
			return "." + sub
		}
	}

	if m.IsPhoto {
		return ".jpg"
	}

	return ".bin"
}

// FileNameFor returns the name shown to the recipient of the re-sent file
func FileNameFor(m *Media, kind MediaKind) string {
	if m != nil && m.FileName != "" {
		return m.FileName
	}
	return kind.String() + MediaExtension(m, kind)
}

func baseMime(mime string) string {
	mime, _, _ = strings.Cut(mime, ";")
	return strings.ToLower(strings.TrimSpace(mime))
}
