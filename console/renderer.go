// Package console renders the auth page in a terminal and reads user
// intents from a line-oriented shell.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	ap "github.com/panyam/authpage"
)

// Renderer implements ap.Renderer by writing plain text to w. It is safe
// for use from the provider's notification goroutine.
type Renderer struct {
	mu      sync.Mutex
	w       io.Writer
	enabled bool
}

var _ ap.Renderer = (*Renderer)(nil)

func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w, enabled: true}
}

// FormatView returns the text block shown for a view
func FormatView(view ap.View) string {
	var b strings.Builder
	b.WriteString("== ")
	b.WriteString(view.Banner)
	if view.Indicator != "" {
		fmt.Fprintf(&b, " [%s: %s]", view.Tone, view.Indicator)
	}
	b.WriteString("\n")

	if view.FormVisible {
		b.WriteString("   sign in: signup | register | login\n")
	}
	if view.ContentVisible {
		fmt.Fprintf(&b, "   uid: %s\n", view.UID)
		b.WriteString("   account: logout\n")
	}
	return b.String()
}

func (r *Renderer) Render(view ap.View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.w, FormatView(view))
}

func (r *Renderer) Notice(n ap.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "[%s] %s\n", n.Kind, n.Text)
}

func (r *Renderer) SetControlsEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !enabled && r.enabled {
		fmt.Fprintln(r.w, "   working...")
	}
	r.enabled = enabled
}

// ControlsEnabled reports whether the form controls are currently usable
func (r *Renderer) ControlsEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}
