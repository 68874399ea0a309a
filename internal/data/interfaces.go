package data

import (
	"context"
	"time"

	"github.com/songzhibin97/tokenlab/internal/models"
)

// ScanRecord 一次扫描的持久化记录
type ScanRecord struct {
	ID         int64              `json:"id"`
	Token      string             `json:"token"`
	ChainID    string             `json:"chain_id"`
	Score      int                `json:"score"`
	RiskLevel  models.RiskLevel   `json:"risk_level"`
	Confidence int                `json:"confidence"`
	Quality    models.DataQuality `json:"quality"`
	Result     *models.RiskResult `json:"result"`
	ScannedAt  time.Time          `json:"scanned_at"`
}

// ScanStorage 处理扫描结果的持久化
type ScanStorage interface {
	// SaveScan stores one completed scan.
	SaveScan(ctx context.Context, rec *ScanRecord) error

	// GetScanHistory retrieves past scans for a token, newest first.
	GetScanHistory(ctx context.Context, token, chainID string, limit int) ([]ScanRecord, error)

	// GetLatestScan retrieves the most recent scan, or nil when the
	// token was never scanned.
	GetLatestScan(ctx context.Context, token, chainID string) (*ScanRecord, error)
}
