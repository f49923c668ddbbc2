package blogservice

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-blog-store/blogstore"
)

// Paging bounds for ListPosts.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Field bounds, in runes.
const (
	MaxTitleLength   = 120
	MaxContentLength = 20000

	// bcrypt ignores anything past 72 bytes.
	maxPasswordBytes = 72
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// PostInput is the payload of CreatePost.
type PostInput struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	CategoryID int64  `json:"category_id"`
}

// Validate checks field bounds. It does not check the category exists.
func (in PostInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.RuneLength(1, MaxTitleLength)),
		validation.Field(&in.Content, validation.Required, validation.RuneLength(1, MaxContentLength)),
		validation.Field(&in.CategoryID, validation.Required, validation.Min(int64(1))),
	)
}

// PostPatchInput is the payload of UpdatePost. Nil fields are left as is.
type PostPatchInput struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	CategoryID *int64  `json:"category_id"`
}

// Validate checks the bounds of every field that is set.
func (in PostPatchInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.NilOrNotEmpty, validation.RuneLength(1, MaxTitleLength)),
		validation.Field(&in.Content, validation.NilOrNotEmpty, validation.RuneLength(1, MaxContentLength)),
		validation.Field(&in.CategoryID, validation.NilOrNotEmpty, validation.Min(int64(1))),
	)
}

func (in PostPatchInput) patch() blogstore.PostPatch {
	return blogstore.PostPatch{
		Title:      in.Title,
		Content:    in.Content,
		CategoryID: in.CategoryID,
	}
}

// RegisterInput is the payload of RegisterUser.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the username charset, the email format and the password
// length.
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required, validation.RuneLength(3, 50), validation.Match(usernamePattern)),
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
		validation.Field(&in.Password, validation.Required, validation.Length(8, maxPasswordBytes)),
	)
}

// Credentials is the payload of Login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate only checks both fields are present.
func (in Credentials) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required),
		validation.Field(&in.Password, validation.Required),
	)
}

// validationError converts ozzo errors into the VALIDATION_ERROR taxonomy
// entry, keeping per-field messages.
func validationError(err error, message string) error {
	if err == nil {
		return nil
	}
	return errors.FromOzzoValidation(err, message).WithTextCode(blogstore.CodeValidation)
}

func validateOffset(offset int) error {
	return validation.Validate(offset, validation.Min(0))
}

// clampLimit maps a non-positive limit to DefaultLimit and caps it at
// MaxLimit.
func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
