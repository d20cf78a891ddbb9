// Package id mints and parses record ids of the form PREFIX-HASH, where the
// hash avoids characters that read alike (0/O, 1/I/L).
package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rogersnm/errand/internal/model"
)

const (
	alphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"
	hashLen  = 8
)

var prefixes = map[model.Kind]string{
	model.KindProject: "PROJ",
	model.KindTask:    "TASK",
	model.KindLabel:   "LABEL",
	model.KindSection: "SECT",
}

// New returns a fresh id for kind, for example TASK-7QK2M9XD.
func New(kind model.Kind) (string, error) {
	prefix, ok := prefixes[kind]
	if !ok {
		return "", fmt.Errorf("no id prefix for kind %q", kind)
	}
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generating id: %w", err)
	}
	return prefix + "-" + hash(u), nil
}

// Generate is New without the error. It panics only if the system random
// source fails, matching uuid.New; an unknown kind falls back to a plain UUID.
func Generate(kind model.Kind) string {
	prefix, ok := prefixes[kind]
	if !ok {
		return uuid.NewString()
	}
	return prefix + "-" + hash(uuid.New())
}

func hash(u uuid.UUID) string {
	var sb strings.Builder
	sb.Grow(hashLen)
	for _, b := range u[:hashLen] {
		sb.WriteByte(alphabet[int(b)%len(alphabet)])
	}
	return sb.String()
}

// KindOf validates id and returns the kind it was minted for.
func KindOf(id string) (model.Kind, error) {
	prefix, h, ok := strings.Cut(id, "-")
	if !ok {
		return "", fmt.Errorf("invalid id %q: missing separator", id)
	}
	kind, err := kindFor(prefix)
	if err != nil {
		return "", err
	}
	if len(h) != hashLen {
		return "", fmt.Errorf("invalid id %q: hash must be %d chars", id, hashLen)
	}
	if i := strings.IndexFunc(h, func(r rune) bool { return !strings.ContainsRune(alphabet, r) }); i >= 0 {
		return "", fmt.Errorf("invalid id %q: invalid character %q", id, h[i])
	}
	return kind, nil
}

func kindFor(prefix string) (model.Kind, error) {
	for k, p := range prefixes {
		if p == prefix {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown id prefix %q", prefix)
}
