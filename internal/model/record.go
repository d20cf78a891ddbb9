package model

import "fmt"

// Kind names a record collection.
type Kind string

const (
	KindTask    Kind = "task"
	KindProject Kind = "project"
	KindLabel   Kind = "label"
	KindSection Kind = "section"
)

// Record is implemented by every value the store and its backends hold.
type Record interface {
	RecordID() string
	RecordKind() Kind
}

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindTask, KindProject, KindLabel, KindSection:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown record kind %q", s)
}
