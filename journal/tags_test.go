package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"studylog/models"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", nil},
		{"single", "go", []string{"go"}},
		{"trims and lowercases", " Go ,  Concurrency ", []string{"go", "concurrency"}},
		{"drops empties", "go,,  ,rust", []string{"go", "rust"}},
		{"deduplicates", "go, GO, go ", []string{"go"}},
		{"keeps first-seen order", "web, go, web", []string{"web", "go"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeTags(tt.input))
		})
	}
}

func TestSyncEntryTags_CreatesAndAttaches(t *testing.T) {
	db := setupTestDB()
	user := createTestUser(db, "a@x.com")
	j := NewJournalModule(db)

	entry, err := j.createEntry(user.ID, testInput("Learned Go Routines", "go, concurrency"))
	assert.NoError(t, err)

	tags := tagsForEntry(db, entry.ID)
	names := tagNames(tags)
	assert.ElementsMatch(t, []string{"go", "concurrency"}, names)
}

func TestSyncEntryTags_DuplicateTokensAttachOnce(t *testing.T) {
	db := setupTestDB()
	user := createTestUser(db, "a@x.com")
	j := NewJournalModule(db)

	entry, err := j.createEntry(user.ID, testInput("Duplicate Tags", "go, GO,  go "))
	assert.NoError(t, err)

	var joinCount int64
	db.Model(&models.EntryTag{}).Where("entry_id = ?", entry.ID).Count(&joinCount)
	assert.Equal(t, int64(1), joinCount)

	var tagCount int64
	db.Model(&models.Tag{}).Where("name = ?", "go").Count(&tagCount)
	assert.Equal(t, int64(1), tagCount)
}

func TestSyncEntryTags_ReusesExistingTags(t *testing.T) {
	db := setupTestDB()
	user := createTestUser(db, "a@x.com")
	j := NewJournalModule(db)

	_, err := j.createEntry(user.ID, testInput("First Entry", "go"))
	assert.NoError(t, err)
	_, err = j.createEntry(user.ID, testInput("Second Entry", "go, testing"))
	assert.NoError(t, err)

	var tagCount int64
	db.Model(&models.Tag{}).Count(&tagCount)
	assert.Equal(t, int64(2), tagCount)
}

func TestSyncEntryTags_ResyncReplacesSet(t *testing.T) {
	db := setupTestDB()
	user := createTestUser(db, "a@x.com")
	j := NewJournalModule(db)

	entry, err := j.createEntry(user.ID, testInput("Changing Tags", "go, web"))
	assert.NoError(t, err)

	err = j.updateEntry(entry, testInput("Changing Tags", "go, testing"))
	assert.NoError(t, err)

	names := tagNames(tagsForEntry(db, entry.ID))
	assert.ElementsMatch(t, []string{"go", "testing"}, names)

	// the detached tag row itself stays around
	var webTag models.Tag
	assert.NoError(t, db.Where("name = ?", "web").First(&webTag).Error)
}

func TestDetachEntryTags_KeepsTagRows(t *testing.T) {
	db := setupTestDB()
	user := createTestUser(db, "a@x.com")
	j := NewJournalModule(db)

	entry, err := j.createEntry(user.ID, testInput("Tagged Entry", "draft, go"))
	assert.NoError(t, err)

	err = j.deleteEntry(entry)
	assert.NoError(t, err)

	var joinCount int64
	db.Model(&models.EntryTag{}).Where("entry_id = ?", entry.ID).Count(&joinCount)
	assert.Equal(t, int64(0), joinCount)

	var tagCount int64
	db.Model(&models.Tag{}).Count(&tagCount)
	assert.Equal(t, int64(2), tagCount)
}

func tagNames(tags []models.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	return names
}
