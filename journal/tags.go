package journal

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"studylog/models"
)

// normalizeTags turns the raw comma-separated field into the set of tag names:
// trimmed, lowercased, empties dropped, duplicates removed. Order of first
// appearance is kept.
func normalizeTags(raw string) []string {
	if raw == "" {
		return nil
	}

	seen := make(map[string]bool)
	var names []string
	for _, piece := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(piece))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// syncEntryTags makes the join table match the entry's raw tag field. Existing
// associations are dropped wholesale first, so tags renamed or removed since
// the last save detach without a lookup. Tag rows themselves are never deleted;
// a tag left with zero entries simply lingers.
func syncEntryTags(tx *gorm.DB, entryID uint, rawTags string) error {
	if err := tx.Where("entry_id = ?", entryID).Delete(&models.EntryTag{}).Error; err != nil {
		return err
	}

	for _, name := range normalizeTags(rawTags) {
		var tag models.Tag
		err := tx.Where("name = ?", name).First(&tag).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = models.Tag{Name: name}
			if err := tx.Create(&tag).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		entryTag := models.EntryTag{
			EntryID: int(entryID),
			TagID:   int(tag.ID),
		}
		if err := tx.Create(&entryTag).Error; err != nil {
			return err
		}
	}

	return nil
}

// detachEntryTags removes the entry's associations, leaving the Tag rows alone.
func detachEntryTags(tx *gorm.DB, entryID uint) error {
	return tx.Where("entry_id = ?", entryID).Delete(&models.EntryTag{}).Error
}

func tagsForEntry(db *gorm.DB, entryID uint) []models.Tag {
	var tags []models.Tag
	db.Table("tags").
		Joins("INNER JOIN entry_tags ON tags.id = entry_tags.tag_id").
		Where("entry_tags.entry_id = ?", entryID).
		Order("tags.name").
		Find(&tags)
	return tags
}
