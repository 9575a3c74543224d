package service

import (
	"errors"
	"fmt"
	"strings"

	"binwahab-store/internal/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// lookupErr turns a missing row into NOT_FOUND and wraps anything else.
func lookupErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Newf(apperror.CodeNotFound, "%s not found", what)
	}
	return fmt.Errorf("get %s: %w", what, err)
}

// newReference builds a human-facing number such as BW3F9A1C07D2E4.
func newReference(prefix string) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return prefix + id[:12]
}
