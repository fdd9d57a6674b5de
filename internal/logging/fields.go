package logging

import "log/slog"

// Field names shared by the engine, handlers and audit sinks.
const (
	FieldRequestID = "request_id"
	FieldUsername  = "username"
	FieldIP        = "ip"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldTokenID   = "token_id"
)

func Username(name string) slog.Attr { return slog.String(FieldUsername, name) }

func IP(ip string) slog.Attr { return slog.String(FieldIP, ip) }

func Method(method string) slog.Attr { return slog.String(FieldMethod, method) }

func Path(path string) slog.Attr { return slog.String(FieldPath, path) }

func Status(code int) slog.Attr { return slog.Int(FieldStatus, code) }

// Duration records ms as duration_ms.
func Duration(ms int64) slog.Attr { return slog.Int64(FieldDuration, ms) }

// Error returns an attribute for err. A nil error renders as "".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}

func TokenID(id string) slog.Attr { return slog.String(FieldTokenID, id) }
