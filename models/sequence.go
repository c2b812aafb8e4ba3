package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentSequence is one counter row per (prefix, period). Numbers are
// handed out under a row lock inside the caller's transaction, so a rolled
// back document rolls back its number too (gaps are fine, duplicates are not).
type DocumentSequence struct {
	Prefix string `gorm:"primaryKey;size:10" json:"prefix"`
	Period string `gorm:"primaryKey;size:8" json:"period"`
	LastNo int    `gorm:"not null;default:0" json:"last_no"`
}

const (
	SequencePrefixSalesOrder = "SO"
	SequencePrefixReceipt    = "RCP"
	SequencePrefixDelivery   = "DLV"
)

// nextDocumentNumber returns the next number in SO-YYYYMMDD-NNNN format.
// Must be called inside an open transaction.
func nextDocumentNumber(tx *gorm.DB, prefix string, at time.Time) (string, error) {
	period := at.Format("20060102")

	seq := DocumentSequence{Prefix: prefix, Period: period}
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("prefix = ? AND period = ?", prefix, period).
		FirstOrCreate(&seq).Error; err != nil {
		return "", err
	}

	seq.LastNo++
	if err := tx.Model(&DocumentSequence{}).
		Where("prefix = ? AND period = ?", prefix, period).
		Update("last_no", seq.LastNo).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%s-%04d", prefix, period, seq.LastNo), nil
}
