package handler

import (
	"errors"
	"strings"

	"github.com/damoang/angple-chat/internal/common"
)

// serviceMessage picks a client-facing message for a service error.
// Validation errors carry their own text; everything else gets a fixed message.
func serviceMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, common.ErrInvalidArgument):
		return strings.TrimSuffix(err.Error(), ": "+common.ErrInvalidArgument.Error())
	case errors.Is(err, common.ErrNotFound):
		return "Not found"
	case errors.Is(err, common.ErrForbidden):
		return "You are not a participant of this chat"
	default:
		return fallback
	}
}
