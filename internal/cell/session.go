package cell

import "github.com/joeycumines/mdcell/internal/editor"

// editorSession is the live editor of an edit mode. The concrete type is the
// mode: a codeSession always holds a plain-text editor and a richSession a
// rich one, so no caller inspects the editor's type.
type editorSession interface {
	mode() Mode
	editor() editor.Editor
	// close disposes the editor and releases anything tied to it.
	close()
}

type codeSession struct {
	ed editor.CodeEditor
}

func (s *codeSession) mode() Mode            { return ModeCode }
func (s *codeSession) editor() editor.Editor { return s.ed }
func (s *codeSession) close()                { s.ed.Dispose() }

type richSession struct {
	ed          editor.RichEditor
	unsubscribe func()
}

func (s *richSession) mode() Mode            { return ModeRich }
func (s *richSession) editor() editor.Editor { return s.ed }

func (s *richSession) close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.ed.Dispose()
}
