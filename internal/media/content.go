package media

// ContentPath returns the path holding the item's playable bytes before any
// tagging: the staged assembly for Steam clips, the discovered file otherwise.
func (m *MediaItem) ContentPath() string {
	if m.Kind == KindClip && m.StagedPath != "" {
		return m.StagedPath
	}
	return m.SourcePath
}
