package auth

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"studylog/models"
)

type AuthModule struct {
	db *gorm.DB
}

func NewAuthModule(db *gorm.DB) *AuthModule {
	return &AuthModule{db: db}
}

func (a *AuthModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/register", a.registerPage)
	router.POST("/register", a.registerPost)
	router.GET("/login", a.loginPage)
	router.POST("/login", a.loginPost)
	router.GET("/logout", RequireAuth(a.db), a.logout)
}

// RequireAuth redirects to /login unless the session carries a valid user.
// The loaded user is stored in the context for handlers downstream.
func RequireAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get("user_id")

		if userID == nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			session.Clear()
			session.Save()
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", &user)
		c.Next()
	}
}

// LoadUser resolves the session user when present but never redirects.
// Used by the entries list, which has a guest view.
func LoadUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get("user_id")

		if userID != nil {
			var user models.User
			if err := db.First(&user, userID).Error; err == nil {
				c.Set("user_id", user.ID)
				c.Set("user", &user)
			}
		}

		c.Next()
	}
}

// CurrentUser returns the user placed in the context by RequireAuth or LoadUser.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	userData, exists := c.Get("user")
	if !exists {
		return nil, false
	}
	user, ok := userData.(*models.User)
	return user, ok
}

// Flash queues a one-shot message shown on the next rendered page.
func Flash(c *gin.Context, message string) {
	session := sessions.Default(c)
	session.AddFlash(message)
	session.Save()
}

// TakeFlashes drains the queued messages.
func TakeFlashes(c *gin.Context) []string {
	session := sessions.Default(c)
	raw := session.Flashes()
	session.Save()

	messages := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			messages = append(messages, s)
		}
	}
	return messages
}

func (a *AuthModule) registerPage(c *gin.Context) {
	session := sessions.Default(c)
	if session.Get("user_id") != nil {
		c.Redirect(http.StatusFound, "/entries")
		return
	}

	c.HTML(http.StatusOK, "register.html", gin.H{})
}

func (a *AuthModule) registerPost(c *gin.Context) {
	firstName := strings.TrimSpace(c.PostForm("first_name"))
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password1")
	confirm := c.PostForm("password2")

	formData := gin.H{
		"firstName": firstName,
		"email":     email,
	}

	if firstName == "" || email == "" || password == "" {
		formData["error"] = "First name, email and password are required"
		c.HTML(http.StatusBadRequest, "register.html", formData)
		return
	}

	if !strings.Contains(email, "@") {
		formData["error"] = "Please enter a valid email address"
		c.HTML(http.StatusBadRequest, "register.html", formData)
		return
	}

	if password != confirm {
		formData["error"] = "Passwords do not match"
		c.HTML(http.StatusBadRequest, "register.html", formData)
		return
	}

	var existingUser models.User
	if err := a.db.Where("email = ?", email).First(&existingUser).Error; err == nil {
		formData["error"] = "This email is already registered"
		c.HTML(http.StatusBadRequest, "register.html", formData)
		return
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		formData["error"] = "Error creating account"
		c.HTML(http.StatusInternalServerError, "register.html", formData)
		return
	}

	user := models.User{
		FirstName:    firstName,
		Email:        email,
		PasswordHash: passwordHash,
	}

	if err := a.db.Create(&user).Error; err != nil {
		formData["error"] = "Error creating account"
		c.HTML(http.StatusInternalServerError, "register.html", formData)
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.AddFlash("You are registered!")
	session.Save()

	c.Redirect(http.StatusFound, "/entries")
}

func (a *AuthModule) loginPage(c *gin.Context) {
	session := sessions.Default(c)
	if session.Get("user_id") != nil {
		c.Redirect(http.StatusFound, "/entries")
		return
	}

	c.HTML(http.StatusOK, "login.html", gin.H{})
}

func (a *AuthModule) loginPost(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	var user models.User
	if err := a.db.Where("email = ?", email).First(&user).Error; err != nil {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"error": "No such email address in our records",
			"email": email,
		})
		return
	}

	if !CheckPasswordHash(password, user.PasswordHash) {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"error": "Password does not match our records",
			"email": email,
		})
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.AddFlash("Welcome to your journal, " + user.FirstName + "!")
	session.Save()

	c.Redirect(http.StatusFound, "/entries")
}

func (a *AuthModule) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.AddFlash("See you soon!")
	session.Save()

	c.Redirect(http.StatusFound, "/entries")
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
