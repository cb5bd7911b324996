package service

import (
	"errors"
	"fmt"

	"github.com/damoang/angple-chat/internal/common"
	"github.com/damoang/angple-chat/pkg/logger"
	"gorm.io/gorm"
)

// storageError logs a persistence failure and hides the driver detail behind ErrInternal
func storageError(op string, err error) error {
	logger.GetLogger().Error().Err(err).Str("op", op).Msg("storage failure")
	return fmt.Errorf("%s: %w", op, common.ErrInternal)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
