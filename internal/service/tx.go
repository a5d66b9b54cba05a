package service

import "gorm.io/gorm"

// rollback 回滚事务（tx 为 nil 表示未开启事务，跳过）
func rollback(tx *gorm.DB) {
	if tx != nil {
		tx.Rollback()
	}
}

// commit 提交事务（tx 为 nil 时跳过）
func commit(tx *gorm.DB) error {
	if tx == nil {
		return nil
	}
	return tx.Commit().Error
}
