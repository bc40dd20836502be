package authpage

import "fmt"

// State is the reconciler's coarse UI state
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateInitFailed
	StateConfigError
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateInitFailed:
		return "init-failed"
	case StateConfigError:
		return "config-error"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Sub-labels for the authenticated banner
const (
	LabelEmailPassword = "Email/Password"
	LabelGuest         = "Guest (Anonymous)"
)

// Indicator tones, for renderers that colour the status dot
const (
	ToneSuccess = "success"
	ToneWarning = "warning"
	ToneDanger  = "danger"
)

// View is everything the rendered surface shows about authentication
type View struct {
	State          State
	Banner         string
	Label          string // LabelEmailPassword or LabelGuest when authenticated
	Indicator      string // text next to the status dot
	Tone           string
	UID            string
	FormVisible    bool
	ContentVisible bool
}

// ViewForSession renders a provider notification. It is a pure function of
// its input, which keeps redelivered notifications idempotent.
func ViewForSession(session *Session) View {
	if session == nil {
		return View{
			State:          StateUnauthenticated,
			Banner:         "Not Logged In",
			Indicator:      "Anonymous/Guest",
			Tone:           ToneDanger,
			FormVisible:    true,
			ContentVisible: false,
		}
	}

	label, tone := LabelEmailPassword, ToneSuccess
	if session.IsAnonymous() {
		label, tone = LabelGuest, ToneWarning
	}
	return View{
		State:          StateAuthenticated,
		Banner:         fmt.Sprintf("Welcome, %s! (UID: %s)", label, session.UID),
		Label:          label,
		Indicator:      "Logged In",
		Tone:           tone,
		UID:            session.UID,
		FormVisible:    false,
		ContentVisible: true,
	}
}

func configErrorView() View {
	return View{
		State:       StateConfigError,
		Banner:      "Auth Error: Config Missing.",
		Tone:        ToneDanger,
		FormVisible: true,
	}
}

func initFailedView(err error) View {
	return View{
		State:       StateInitFailed,
		Banner:      fmt.Sprintf("Auth Error: %s", KindOf(err)),
		Indicator:   "Anonymous/Guest",
		Tone:        ToneDanger,
		FormVisible: true,
	}
}

// NoticeKind distinguishes success and error notices
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a transient on-screen message
type Notice struct {
	Kind NoticeKind
	Text string
}

// Renderer draws views, notices and control state. Implementations must not
// call back into the Reconciler.
type Renderer interface {
	Render(view View)
	Notice(n Notice)
	SetControlsEnabled(enabled bool)
}
