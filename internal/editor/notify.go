package editor

import "go.uber.org/zap"

// NoticeKind classifies a user-facing notice.
type NoticeKind int

const (
	// NoticeInfo is informational, no action required.
	NoticeInfo NoticeKind = iota
	// NoticeWarning reports a rejected operation the user can adjust and retry.
	NoticeWarning
	// NoticeError reports a failed operation.
	NoticeError
	// NoticeBusy reports a request rejected because another is in flight.
	NoticeBusy
	// NoticeDialog is a modal the user must acknowledge.
	NoticeDialog
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeWarning:
		return "warning"
	case NoticeError:
		return "error"
	case NoticeBusy:
		return "busy"
	case NoticeDialog:
		return "dialog"
	default:
		return "info"
	}
}

// Notice is one user-facing message. Every error in this layer is terminal at
// the UI boundary: it becomes a Notice (or a redirect) and never bubbles past.
type Notice struct {
	Kind    NoticeKind
	Title   string
	Message string
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// LogNotifier writes notices to the global zap logger.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notice) {
	fields := []zap.Field{
		zap.String("kind", n.Kind.String()),
		zap.String("title", n.Title),
	}
	switch n.Kind {
	case NoticeError:
		zap.L().Error(n.Message, fields...)
	case NoticeWarning, NoticeBusy:
		zap.L().Warn(n.Message, fields...)
	default:
		zap.L().Info(n.Message, fields...)
	}
}
