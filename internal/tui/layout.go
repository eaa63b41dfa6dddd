package tui

// updateLayout updates component sizes based on window size
func (m *Model) updateLayout() {
	if m.Width == 0 || m.Height == 0 {
		return
	}

	contentHeight := m.Height - ChromeHeight
	m.Feed.SetSize(m.Width, contentHeight)
	m.Viewer.SetSize(m.Width, contentHeight)
}
