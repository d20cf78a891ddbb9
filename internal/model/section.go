package model

import "time"

// Section belongs to a project by id. The store does not index that link.
type Section struct {
	ID        string    `yaml:"id" json:"id" validate:"required"`
	Name      string    `yaml:"name" json:"name" validate:"required,max=255"`
	ProjectID string    `yaml:"project_id" json:"project_id" validate:"required"`
	Archived  bool      `yaml:"archived,omitempty" json:"archived,omitempty"`
	Order     int       `yaml:"order,omitempty" json:"order,omitempty"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
}

func (s *Section) RecordID() string { return s.ID }
func (s *Section) RecordKind() Kind { return KindSection }

func (s *Section) Validate() error {
	return validateStruct(KindSection, s)
}
