package model

// ChangeKind is the closed set of replicated change categories.
type ChangeKind string

const (
	Created  ChangeKind = "CREATED"
	Deleted  ChangeKind = "DELETED"
	Moved    ChangeKind = "MOVED"
	Modified ChangeKind = "MODIFIED"
)

// PathPair tracks one side of an event. Resolved is used for I/O, Display for reports;
// both end with the same relative suffix.
type PathPair struct {
	Base     string
	Resolved string
	Display  string
}

// ChangeEvent is a classified notification with its paths already translated.
// Dest and TargetDest are only set for Moved.
type ChangeEvent struct {
	Kind       ChangeKind
	IsDir      bool
	Source     PathPair
	Target     PathPair
	Dest       PathPair
	TargetDest PathPair
}

func (e ChangeEvent) Noun() string {
	if e.IsDir {
		return "Folder"
	}
	return "File"
}
