package core

// Logger logs application events to one or more destinations.
//
// expected args: error, map[string]interface{}, Identity
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Identity is the authenticated subject on whose behalf calls are made.
// It is passed explicitly to services; never read from ambient storage.
type Identity struct {
	SubjectID string
}

func (id Identity) IsZero() bool { return id.SubjectID == "" }
