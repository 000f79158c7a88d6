package memstore

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorewood/promptlog/internal/learnings"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func makeLearning(id, spec string, c learnings.Category, at time.Time) *learnings.ToolLearning {
	code := 1
	return &learnings.ToolLearning{
		ID:            id,
		Category:      c,
		Severity:      learnings.Sev2,
		Summary:       "Bash: Operation failed",
		OutputExcerpt: "FAIL: something",
		Context:       "make test",
		Tags:          []string{"tool:bash", "category:" + string(c)},
		Signals:       []string{"failed"},
		Spec:          spec,
		Tool:          "Bash",
		SessionID:     "sess",
		ExitCode:      &code,
		Score:         0.6,
		CreatedAt:     at,
	}
}

func TestOpen_Migrates(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	v, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, v)
	require.NoError(t, s.Close())

	// Reopening an existing database is a no-op migration.
	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	v, err = s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, v)
}

func TestSaveAndList(t *testing.T) {
	s := setupTestStore(t)
	at := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	l := makeLearning("01A", "billing", learnings.CategoryError, at)

	saved, err := s.Save(l)
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = s.Save(l)
	require.NoError(t, err)
	assert.False(t, saved, "duplicate id is ignored")

	got, err := s.List(ListOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)

	r := got[0]
	assert.Equal(t, *l, r.Learning)
	assert.Equal(t, l.MemoryArgs().Insight, r.Insight)
	assert.Contains(t, r.Applicability, "in billing")
}

func TestList_FiltersAndOrder(t *testing.T) {
	s := setupTestStore(t)
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		c := learnings.CategoryError
		if i%2 == 1 {
			c = learnings.CategoryWarning
		}
		spec := "a"
		if i >= 3 {
			spec = "b"
		}
		_, err := s.Save(makeLearning(fmt.Sprintf("ID%d", i), spec, c, base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	all, err := s.List(ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "ID4", all[0].Learning.ID, "newest first")

	specA, err := s.List(ListOptions{Spec: "a"})
	require.NoError(t, err)
	assert.Len(t, specA, 3)

	warnings, err := s.List(ListOptions{Category: learnings.CategoryWarning})
	require.NoError(t, err)
	assert.Len(t, warnings, 2)

	limited, err := s.List(ListOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	n, err := s.Count(ListOptions{Spec: "b", Category: learnings.CategoryError})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSave_NullableFields(t *testing.T) {
	s := setupTestStore(t)
	l := &learnings.ToolLearning{
		ID:       "01B",
		Category: learnings.CategoryDiscovery,
		Severity: learnings.Sev3,
		Summary:  "Read: note",
		Tool:     "Read",
	}
	_, err := s.Save(l)
	require.NoError(t, err)

	got, err := s.List(ListOptions{Tool: "Read"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Learning.ExitCode)
	assert.Empty(t, got[0].Learning.Spec)
	assert.False(t, got[0].Learning.CreatedAt.IsZero())
}

func TestSave_RequiresID(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Save(&learnings.ToolLearning{})
	assert.Error(t, err)
	_, err = s.Save(nil)
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Save(makeLearning("01C", "", learnings.CategoryError, time.Now()))
	require.NoError(t, err)

	ok, err := s.Delete("01C")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Delete("01C")
	require.NoError(t, err)
	assert.False(t, ok)
}
