package blogstore

import (
	stderrors "errors"
	"fmt"

	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-blog-store/internal/storage"
)

// Text codes attached to every error the store and the facade return.
const (
	CodeSchema             = "SCHEMA_ERROR"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeAlreadyExists      = "ALREADY_EXISTS"
	CodeInvalidReference   = "INVALID_CATEGORY"
	CodeNoChanges          = "NO_CHANGES"
	CodeNotFound           = "NOT_FOUND"
	CodeForbidden          = "NOT_AUTHOR"
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeDatabase           = "DATABASE_ERROR"
)

// ErrNoChanges is returned by UpdatePost when the patch sets no field.
var ErrNoChanges = errors.New("no fields to update", errors.CategoryBadInput).
	WithTextCode(CodeNoChanges)

// SchemaError wraps a bootstrap failure. It is fatal to startup.
func SchemaError(err error) error {
	if err == nil {
		return nil
	}
	return withCode(errors.Wrap(err, errors.CategoryInternal, "schema bootstrap failed"), CodeSchema)
}

// InvalidReference reports a category id that does not resolve.
func InvalidReference(categoryID int64) error {
	return errors.New(fmt.Sprintf("Category with id %d does not exist", categoryID), errors.CategoryValidation).
		WithTextCode(CodeInvalidReference).
		WithMetadata(map[string]any{"category_id": categoryID})
}

// NotFound reports a missing resource at the facade boundary.
func NotFound(resource string, id any) error {
	return errors.New(fmt.Sprintf("%s not found", resource), errors.CategoryNotFound).
		WithTextCode(CodeNotFound).
		WithMetadata(map[string]any{"resource": resource, "id": id})
}

// Forbidden reports an author mismatch.
func Forbidden(message string) error {
	return errors.New(message, errors.CategoryAuthz).WithTextCode(CodeForbidden)
}

// InvalidCredentials reports a failed login.
func InvalidCredentials() error {
	return errors.New("invalid username or password", errors.CategoryAuth).WithTextCode(CodeInvalidCredentials)
}

// storageError maps backend failures onto the taxonomy. Unavailable and
// duplicate failures get their own codes; anything else is a database error.
func storageError(err error, op string) error {
	if err == nil {
		return nil
	}

	var domainErr *errors.Error
	if stderrors.As(err, &domainErr) {
		return err
	}

	switch {
	case stderrors.Is(err, storage.ErrUnavailable):
		return withCode(errors.Wrap(err, errors.CategoryExternal, op), CodeStorageUnavailable)
	case stderrors.Is(err, storage.ErrDuplicate):
		return withCode(errors.Wrap(err, errors.CategoryConflict, op), CodeAlreadyExists)
	default:
		return withCode(errors.Wrap(err, errors.CategoryInternal, op), CodeDatabase)
	}
}

func withCode(err *errors.Error, code string) error {
	if err == nil {
		return nil
	}
	return err.WithTextCode(code)
}

func hasCode(err error, code string) bool {
	var e *errors.Error
	if !stderrors.As(err, &e) {
		return false
	}
	return e.TextCode == code
}

func IsSchemaError(err error) bool        { return hasCode(err, CodeSchema) }
func IsStorageUnavailable(err error) bool { return hasCode(err, CodeStorageUnavailable) }
func IsAlreadyExists(err error) bool      { return hasCode(err, CodeAlreadyExists) }
func IsInvalidReference(err error) bool   { return hasCode(err, CodeInvalidReference) }
func IsNoChanges(err error) bool          { return hasCode(err, CodeNoChanges) }
func IsNotFound(err error) bool           { return hasCode(err, CodeNotFound) }
func IsForbidden(err error) bool          { return hasCode(err, CodeForbidden) }
