package model

import "time"

type Project struct {
	ID          string    `yaml:"id" json:"id" validate:"required"`
	Name        string    `yaml:"name" json:"name" validate:"required,max=255"`
	Color       string    `yaml:"color,omitempty" json:"color,omitempty" validate:"max=32"`
	Description string    `yaml:"-" json:"description,omitempty"`
	Archived    bool      `yaml:"archived,omitempty" json:"archived,omitempty"`
	Favorite    bool      `yaml:"favorite,omitempty" json:"favorite,omitempty"`
	Order       int       `yaml:"order,omitempty" json:"order,omitempty"`
	CreatedAt   time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updated_at"`
}

func (p *Project) RecordID() string { return p.ID }
func (p *Project) RecordKind() Kind { return KindProject }

func (p *Project) Validate() error {
	return validateStruct(KindProject, p)
}
