package id

import (
	"regexp"
	"testing"

	"github.com/rogersnm/errand/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kinds = []model.Kind{model.KindProject, model.KindTask, model.KindLabel, model.KindSection}

var shape = regexp.MustCompile(`^(PROJ|TASK|LABEL|SECT)-[23456789ABCDEFGHJKMNPQRSTUVWXYZ]{8}$`)

func TestNew_RoundTripsKind(t *testing.T) {
	for _, k := range kinds {
		t.Run(string(k), func(t *testing.T) {
			s, err := New(k)
			require.NoError(t, err)
			assert.Regexp(t, shape, s)

			got, err := KindOf(s)
			require.NoError(t, err)
			assert.Equal(t, k, got)
		})
	}
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New(model.Kind("widget"))
	assert.Error(t, err)
	assert.NotEmpty(t, Generate(model.Kind("widget")))
}

func TestGenerate_Distinct(t *testing.T) {
	seen := make(map[string]struct{}, 4000)
	for _, k := range kinds {
		for range 1000 {
			s := Generate(k)
			require.Regexp(t, shape, s)
			_, dup := seen[s]
			require.False(t, dup, "collision: %s", s)
			seen[s] = struct{}{}
		}
	}
}

func TestKindOf_Rejects(t *testing.T) {
	for _, s := range []string{
		"",
		"TASK",
		"TASK-",
		"TASK-ABCDE",
		"TASK-ABCDEFGHJ",
		"TASK-0ABCDEFG",
		"TASK-1ABCDEFG",
		"TASK-OABCDEFG",
		"TASK-IABCDEFG",
		"task-ABCDEFGH",
		"EPIC-ABCDEFGH",
		"TASK-ABCD-EFGH",
	} {
		_, err := KindOf(s)
		assert.Error(t, err, "expected error for %q", s)
	}
}
