package service

import "time"

const (
	MaxDealAmount   = 1_000_000_000.0 // mil millones
	MaxSearchLength = 100

	DefaultAnalysisTTL  = 24 * time.Hour
	analysisCachePrefix = "analysis:"
)
