package migration

import (
	"github.com/damoang/angple-chat/internal/domain"
	"gorm.io/gorm"
)

// Models lists every persisted entity, in dependency order
func Models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Chat{},
		&domain.Message{},
	}
}

// Run executes AutoMigrate for users, chats and messages.
// 테이블 없으면 생성, 있으면 누락 컬럼/인덱스만 추가
func Run(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
