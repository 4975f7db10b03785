package tui

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	tea "github.com/charmbracelet/bubbletea"

	"noxcmd/internal/pane"
	"noxcmd/internal/vfs"
)

// openViewer loads the entry under the cursor into the read-only viewer.
// Works uniformly for real files and archive members since both stream
// through the VFS.
func (m Model) openViewer() (tea.Model, tea.Cmd) {
	cur, ok := m.pane().CurrentEntry()
	if !ok || cur.Name == pane.ParentName || cur.IsDir() {
		return m, nil
	}
	if cur.Size > maxViewSize {
		m.setError(fmt.Sprintf("%s is too large to view", cur.Name))
		return m, nil
	}
	content, err := m.readForView(cur)
	if err != nil {
		m.setError(fmt.Sprintf("view %s: %v", cur.Name, err))
		return m, nil
	}
	m.viewer.SetContent(content)
	m.viewer.GotoTop()
	m.viewerTitle = cur.Path.String()
	m.mode = viewerMode
	return m, nil
}

func (m *Model) readForView(e vfs.Entry) (string, error) {
	rc, err := m.fs.Read(e.Path)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	raw, err := io.ReadAll(io.LimitReader(rc, maxViewSize))
	if err != nil {
		return "", err
	}

	head := raw
	if len(head) > 512 {
		head = head[:512]
	}
	mimeType := http.DetectContentType(head)
	if !strings.HasPrefix(mimeType, "text/") {
		return fmt.Sprintf("binary file (%s), %d bytes", mimeType, len(raw)), nil
	}
	return highlight(e.Name, string(raw)), nil
}

// highlight runs chroma over the content; on any tokenizer hiccup the
// plain text is shown instead.
func highlight(name, content string) string {
	lexer := lexers.Match(name)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		return content
	}
	var sb strings.Builder
	if err := chromaFormatter.Format(&sb, chromaStyle, iterator); err != nil {
		return content
	}
	return sb.String()
}
