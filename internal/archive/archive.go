// Package archive translates between the zip-compatible .xmind container
// and its JSON payload.
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dagrev/xmap/internal/apperr"
)

// FileExtension is the required suffix for archive file paths.
const FileExtension = ".xmind"

const (
	contentEntry  = "content.json"
	metadataEntry = "metadata.json"
	manifestEntry = "manifest.json"
)

const (
	creatorName          = "xmap"
	creatorVersion       = "1.0.0"
	dataStructureVersion = "2"
	layoutEngineVersion  = "3"
)

// Decode opens data as a zip container, locates the content.json entry,
// and unmarshals it into the sheet array. Any container or JSON failure
// wraps apperr.ErrFormat; no partial result is returned.
func Decode(data []byte) ([]Sheet, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("archive: open container: %v: %w", err, apperr.ErrFormat)
	}

	var entry *zip.File
	for _, f := range zr.File {
		if f.Name == contentEntry {
			entry = f
			break
		}
	}
	if entry == nil {
		return nil, fmt.Errorf("archive: missing %s entry: %w", contentEntry, apperr.ErrFormat)
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %v: %w", contentEntry, err, apperr.ErrFormat)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("archive: read %s: %v: %w", contentEntry, err, apperr.ErrFormat)
	}

	var sheets []Sheet
	if err := json.Unmarshal(raw, &sheets); err != nil {
		return nil, fmt.Errorf("archive: parse %s: %v: %w", contentEntry, err, apperr.ErrFormat)
	}
	return sheets, nil
}

// Encode serializes sheets into a complete archive: content.json plus the
// fixed metadata.json and manifest.json companions. The thumbnail entry is
// declared in the manifest but never populated.
func Encode(sheets []Sheet) ([]byte, error) {
	content, err := json.Marshal(sheets)
	if err != nil {
		return nil, fmt.Errorf("archive: marshal content: %w", err)
	}

	metadata, err := json.Marshal(Metadata{
		DataStructureVersion: dataStructureVersion,
		Creator:              Creator{Name: creatorName, Version: creatorVersion},
		LayoutEngineVersion:  layoutEngineVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("archive: marshal metadata: %w", err)
	}

	manifest, err := json.Marshal(map[string]any{
		"file-entries": map[string]any{
			contentEntry:              map[string]any{},
			metadataEntry:             map[string]any{},
			"Thumbnails/thumbnail.png": map[string]any{},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("archive: marshal manifest: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entries := []struct {
		name string
		data []byte
	}{
		{contentEntry, content},
		{metadataEntry, metadata},
		{manifestEntry, manifest},
	}
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			return nil, fmt.Errorf("archive: create %s: %w", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, fmt.Errorf("archive: write %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("archive: finalize container: %w", err)
	}
	return buf.Bytes(), nil
}

// RawContent returns the content.json text of an archive without
// interpreting it. Used by content-based file search.
func RawContent(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("archive: open container: %v: %w", err, apperr.ErrFormat)
	}
	for _, f := range zr.File {
		if f.Name != contentEntry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("archive: open %s: %v: %w", contentEntry, err, apperr.ErrFormat)
		}
		defer rc.Close()
		raw, err := io.ReadAll(rc)
		if err != nil {
			return "", fmt.Errorf("archive: read %s: %v: %w", contentEntry, err, apperr.ErrFormat)
		}
		return string(raw), nil
	}
	return "", fmt.Errorf("archive: missing %s entry: %w", contentEntry, apperr.ErrFormat)
}

// DecodeTaskInfo converts a provider-agnostic extension content value
// into a TaskInfo. Decoded archives carry the content as generic JSON;
// freshly built ones carry it as *TaskInfo directly.
func DecodeTaskInfo(content any) (*TaskInfo, error) {
	switch v := content.(type) {
	case *TaskInfo:
		return v, nil
	case nil:
		return nil, nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("archive: remarshal task info: %v: %w", err, apperr.ErrFormat)
		}
		var info TaskInfo
		if err := json.Unmarshal(raw, &info); err != nil {
			return nil, fmt.Errorf("archive: parse task info: %v: %w", err, apperr.ErrFormat)
		}
		return &info, nil
	}
}

// FindTaskInfo returns the task extension content of a topic, or nil when
// the topic carries no task-planning extension.
func FindTaskInfo(t *Topic) (*TaskInfo, error) {
	for _, ext := range t.Extensions {
		if ext.Provider == TaskProvider {
			return DecodeTaskInfo(ext.Content)
		}
	}
	return nil, nil
}
