package model

import "time"

type Label struct {
	ID        string    `yaml:"id" json:"id" validate:"required"`
	Name      string    `yaml:"name" json:"name" validate:"required,max=64"`
	Color     string    `yaml:"color,omitempty" json:"color,omitempty" validate:"max=32"`
	Order     int       `yaml:"order,omitempty" json:"order,omitempty"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
}

func (l *Label) RecordID() string { return l.ID }
func (l *Label) RecordKind() Kind { return KindLabel }

func (l *Label) Validate() error {
	return validateStruct(KindLabel, l)
}
