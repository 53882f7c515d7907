package actorstore

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

// failure is an application error. Its text is what callers read in the
// error side of the reply.
type failure string

func (f failure) Error() string { return string(f) }

const (
	errNotFound     failure = "Not found"
	errUnauthorized failure = "Unauthorized"
)

func invalidf(format string, args ...any) failure {
	return failure("Invalid " + fmt.Sprintf(format, args...))
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, errNotFound) ||
		goerrors.HasCategory(err, repository.CategoryDatabaseNotFound) ||
		goerrors.HasCategory(err, goerrors.CategoryNotFound)
}

// replyMessage maps err to the message sent to the caller. The second return
// is false for errors that are not the caller's fault.
func replyMessage(entity string, err error) (string, bool) {
	var f failure
	if errors.As(err, &f) {
		return string(f), true
	}
	if isNotFound(err) {
		return string(errNotFound), true
	}
	if repository.IsDuplicatedKey(err) || goerrors.HasCategory(err, goerrors.CategoryConflict) {
		return entity + " already exists", true
	}
	if repository.IsConstraintViolation(err) {
		return "Invalid " + entity, true
	}
	if goerrors.IsValidation(err) {
		return validationMessage(entity, err), true
	}
	return "Internal error", false
}

func validationMessage(entity string, err error) string {
	fields, ok := goerrors.GetValidationErrors(err)
	if !ok || len(fields) == 0 {
		return "Invalid " + entity
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	sort.Strings(parts)
	return "Invalid " + entity + ": " + strings.Join(parts, "; ")
}
