package journal

import (
	"bytes"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"

	"studylog/auth"
	"studylog/cache"
	"studylog/models"
)

// dateLayout is the dd/mm/yyyy format entries are typed and displayed in.
const dateLayout = "02/01/2006"

var ErrDuplicateSlug = errors.New("an entry with that slug already exists")

type JournalModule struct {
	db *gorm.DB
}

// markdown renderer configured with Goldmark and useful extensions
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,     // tables, strikethrough, task lists, autolinks (GFM set)
		extension.Linkify, // linkify raw URLs
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithUnsafe(), // allow raw HTML passthrough in Markdown
	),
)

func NewJournalModule(db *gorm.DB) *JournalModule {
	return &JournalModule{db: db}
}

func (j *JournalModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/", auth.LoadUser(j.db), j.list)
	router.GET("/entries", auth.LoadUser(j.db), j.list)
	router.GET("/filter/:tagname", auth.RequireAuth(j.db), j.filter)

	entriesGroup := router.Group("/entries", auth.RequireAuth(j.db))
	{
		entriesGroup.GET("/new", j.newEntry)
		entriesGroup.POST("/new", j.createEntryPost)
		entriesGroup.GET("/:slug", j.detail)
		entriesGroup.POST("/:slug", j.detail)
		entriesGroup.GET("/:slug/edit", j.editEntry)
		entriesGroup.POST("/:slug/edit", j.updateEntryPost)
		entriesGroup.GET("/:slug/delete", j.deleteEntryPost)
		entriesGroup.POST("/:slug/delete", j.deleteEntryPost)
	}
}

type entryInput struct {
	Title     string
	Date      time.Time
	TimeSpent int
	Material  string
	Resource  string
	TagField  string
}

// parseEntryForm validates the shared create/edit form. It returns the parsed
// input plus a user-facing message for the first problem found, empty when the
// form is good.
func parseEntryForm(c *gin.Context) (entryInput, string) {
	in := entryInput{
		Title:    strings.TrimSpace(c.PostForm("title")),
		Material: strings.TrimSpace(c.PostForm("material")),
		Resource: strings.TrimSpace(c.PostForm("resource")),
		TagField: c.PostForm("tagfield"),
	}

	if in.Title == "" {
		return in, "Title is required"
	}

	date, err := time.Parse(dateLayout, strings.TrimSpace(c.PostForm("date")))
	if err != nil {
		return in, "Date must be in dd/mm/yyyy format"
	}
	in.Date = date

	minutes, err := strconv.Atoi(strings.TrimSpace(c.PostForm("time_spent")))
	if err != nil {
		return in, "Time spent must be a whole number of minutes"
	}
	in.TimeSpent = minutes

	if in.Material == "" {
		return in, "What you have learned is required"
	}
	if in.Resource == "" {
		return in, "Resources to remember are required"
	}

	return in, ""
}

func entryFormData(c *gin.Context, user *models.User, errMsg string) gin.H {
	return gin.H{
		"user":      user,
		"error":     errMsg,
		"title":     c.PostForm("title"),
		"date":      c.PostForm("date"),
		"timeSpent": c.PostForm("time_spent"),
		"material":  c.PostForm("material"),
		"resource":  c.PostForm("resource"),
		"tagfield":  c.PostForm("tagfield"),
	}
}

func (j *JournalModule) listEntries(userID int, tagFilter string) ([]models.Entry, error) {
	query := j.db.Where("user_id = ?", userID)
	if tagFilter != "" {
		// substring match against the raw tag field, like the filter links expect
		query = query.Where("tag_field LIKE ?", "%"+tagFilter+"%")
	}

	var entries []models.Entry
	err := query.Order("date DESC").Find(&entries).Error
	return entries, err
}

func (j *JournalModule) getEntryBySlug(slug string) (*models.Entry, error) {
	var entry models.Entry
	err := j.db.Where("slug = ?", slug).First(&entry).Error
	return &entry, err
}

func slugTaken(tx *gorm.DB, slug string) (bool, error) {
	var count int64
	err := tx.Model(&models.Entry{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// createEntry inserts the entry and attaches its tags in one transaction, so a
// failed tag sync never leaves an untagged orphan behind.
func (j *JournalModule) createEntry(userID int, in entryInput) (*models.Entry, error) {
	entry := &models.Entry{
		UserID:    userID,
		Title:     in.Title,
		Date:      in.Date,
		TimeSpent: in.TimeSpent,
		Material:  in.Material,
		Resource:  in.Resource,
		TagField:  in.TagField,
		Slug:      Slugify(in.Title),
	}

	err := j.db.Transaction(func(tx *gorm.DB) error {
		taken, err := slugTaken(tx, entry.Slug)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateSlug
		}

		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		return syncEntryTags(tx, entry.ID, entry.TagField)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// updateEntry rewrites the entry in place with a freshly derived slug. The
// conflict check skips when the slug is unchanged, so re-saving an entry with
// the same title never collides with itself.
func (j *JournalModule) updateEntry(entry *models.Entry, in entryInput) error {
	newSlug := Slugify(in.Title)

	return j.db.Transaction(func(tx *gorm.DB) error {
		if newSlug != entry.Slug {
			taken, err := slugTaken(tx, newSlug)
			if err != nil {
				return err
			}
			if taken {
				return ErrDuplicateSlug
			}
		}

		entry.Title = in.Title
		entry.Date = in.Date
		entry.TimeSpent = in.TimeSpent
		entry.Material = in.Material
		entry.Resource = in.Resource
		entry.TagField = in.TagField
		entry.Slug = newSlug

		if err := tx.Save(entry).Error; err != nil {
			return err
		}
		return syncEntryTags(tx, entry.ID, entry.TagField)
	})
}

// deleteEntry detaches the tag associations and removes the row. Tag rows stay
// even when this was their last entry.
func (j *JournalModule) deleteEntry(entry *models.Entry) error {
	return j.db.Transaction(func(tx *gorm.DB) error {
		if err := detachEntryTags(tx, entry.ID); err != nil {
			return err
		}
		return tx.Delete(entry).Error
	})
}

func (j *JournalModule) list(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.HTML(http.StatusOK, "index.html", gin.H{
			"flashes": auth.TakeFlashes(c),
		})
		return
	}

	entries, err := j.listEntries(user.ID, "")
	if err != nil {
		c.HTML(http.StatusInternalServerError, "journal_error.html", gin.H{
			"error": "Error loading entries",
			"user":  user,
		})
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"user":    user,
		"entries": entries,
		"flashes": auth.TakeFlashes(c),
	})
}

func (j *JournalModule) filter(c *gin.Context) {
	user, _ := auth.CurrentUser(c)
	tagName := c.Param("tagname")

	entries, err := j.listEntries(user.ID, tagName)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "journal_error.html", gin.H{
			"error": "Error loading entries",
			"user":  user,
		})
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"user":    user,
		"entries": entries,
		"filter":  tagName,
		"flashes": auth.TakeFlashes(c),
	})
}

func (j *JournalModule) newEntry(c *gin.Context) {
	user, _ := auth.CurrentUser(c)

	c.HTML(http.StatusOK, "new.html", gin.H{
		"user": user,
		"date": time.Now().Format(dateLayout),
	})
}

func (j *JournalModule) createEntryPost(c *gin.Context) {
	user, _ := auth.CurrentUser(c)

	in, errMsg := parseEntryForm(c)
	if errMsg != "" {
		c.HTML(http.StatusBadRequest, "new.html", entryFormData(c, user, errMsg))
		return
	}

	if _, err := j.createEntry(user.ID, in); err != nil {
		if errors.Is(err, ErrDuplicateSlug) {
			auth.Flash(c, "Entry '"+in.Title+"' already exists. Can't create entry.")
			c.Redirect(http.StatusFound, "/entries")
			return
		}
		c.HTML(http.StatusInternalServerError, "journal_error.html", gin.H{
			"error": "Error saving entry",
			"user":  user,
		})
		return
	}

	auth.Flash(c, "Entry saved!")
	c.Redirect(http.StatusFound, "/entries")
}

// ownedEntry loads the slug's entry and enforces ownership. The negative paths
// are normal outcomes, not errors: both flash a message and bounce back to the
// list, per the journal's "nothing is fatal" error handling.
func (j *JournalModule) ownedEntry(c *gin.Context, action string) (*models.Entry, *models.User, bool) {
	user, _ := auth.CurrentUser(c)
	slug := c.Param("slug")

	entry, err := j.getEntryBySlug(slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		auth.Flash(c, "Sorry, '"+slug+"' entry does not exist")
		c.Redirect(http.StatusFound, "/entries")
		return nil, nil, false
	}
	if err != nil {
		c.HTML(http.StatusInternalServerError, "journal_error.html", gin.H{
			"error": "Error loading entry",
			"user":  user,
		})
		return nil, nil, false
	}

	if entry.UserID != user.ID {
		auth.Flash(c, "Sorry, "+user.FirstName+". This entry is not yours to "+action+".")
		c.Redirect(http.StatusFound, "/entries")
		return nil, nil, false
	}

	return entry, user, true
}

func (j *JournalModule) detail(c *gin.Context) {
	entry, user, ok := j.ownedEntry(c, "see")
	if !ok {
		return
	}

	c.HTML(http.StatusOK, "detail.html", gin.H{
		"user":         user,
		"entry":        entry,
		"tags":         tagsForEntry(j.db, entry.ID),
		"materialHTML": j.renderField(entry.Slug, entry.Material),
		"resourceHTML": j.renderField(entry.Slug, entry.Resource),
		"flashes":      auth.TakeFlashes(c),
	})
}

func (j *JournalModule) editEntry(c *gin.Context) {
	entry, user, ok := j.ownedEntry(c, "edit")
	if !ok {
		return
	}

	c.HTML(http.StatusOK, "edit.html", gin.H{
		"user":      user,
		"entry":     entry,
		"title":     entry.Title,
		"date":      entry.Date.Format(dateLayout),
		"timeSpent": strconv.Itoa(entry.TimeSpent),
		"material":  entry.Material,
		"resource":  entry.Resource,
		"tagfield":  entry.TagField,
	})
}

func (j *JournalModule) updateEntryPost(c *gin.Context) {
	entry, user, ok := j.ownedEntry(c, "edit")
	if !ok {
		return
	}

	in, errMsg := parseEntryForm(c)
	if errMsg != "" {
		formData := entryFormData(c, user, errMsg)
		formData["entry"] = entry
		c.HTML(http.StatusBadRequest, "edit.html", formData)
		return
	}

	oldSlug := entry.Slug
	if err := j.updateEntry(entry, in); err != nil {
		if errors.Is(err, ErrDuplicateSlug) {
			auth.Flash(c, "Entry '"+in.Title+"' already exists. Can't edit entry.")
			c.Redirect(http.StatusFound, "/entries")
			return
		}
		c.HTML(http.StatusInternalServerError, "journal_error.html", gin.H{
			"error": "Error saving entry",
			"user":  user,
		})
		return
	}

	if err := cache.Clear(oldSlug); err != nil {
		log.Printf("clearing render cache for %s: %v", oldSlug, err)
	}

	auth.Flash(c, "Entry edited!")
	c.Redirect(http.StatusFound, "/entries")
}

func (j *JournalModule) deleteEntryPost(c *gin.Context) {
	entry, user, ok := j.ownedEntry(c, "delete")
	if !ok {
		return
	}

	if err := j.deleteEntry(entry); err != nil {
		c.HTML(http.StatusInternalServerError, "journal_error.html", gin.H{
			"error": "Error deleting entry",
			"user":  user,
		})
		return
	}

	if err := cache.Clear(entry.Slug); err != nil {
		log.Printf("clearing render cache for %s: %v", entry.Slug, err)
	}

	auth.Flash(c, "Entry deleted!")
	c.Redirect(http.StatusFound, "/entries")
}

// renderField returns the field's markdown as HTML, going through the render
// cache. A cache failure only costs the re-render.
func (j *JournalModule) renderField(slug, source string) template.HTML {
	if cached, found := cache.Read(slug, source); found {
		return template.HTML(cached)
	}

	rendered := renderMarkdown(source)
	if err := cache.Write(slug, source, rendered); err != nil {
		log.Printf("caching rendered markdown for %s: %v", slug, err)
	}
	return template.HTML(rendered)
}

func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		// on a renderer error, fall back to the raw text rather than break the page
		return content
	}
	return buf.String()
}
