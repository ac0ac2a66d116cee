package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/Shreshtthh/MetaScore/models"
	"github.com/Shreshtthh/MetaScore/scoring"
)

const (
	defaultLeaderboardSize = 20
	maxLeaderboardSize     = 100
)

// LeaderboardLimit clamps a requested leaderboard size to 1..100, with
// non-positive values meaning the default of 20.
func LeaderboardLimit(limit int) int {
	if limit <= 0 {
		return defaultLeaderboardSize
	}
	return min(limit, maxLeaderboardSize)
}

// StatsService answers read-only aggregate queries.
type StatsService struct {
	db    *gorm.DB
	tiers scoring.TierTable
}

// LeaderboardEntry is one ranked record.
type LeaderboardEntry struct {
	Rank           int               `json:"rank"`
	RecordID       uint64            `json:"record_id"`
	Address        string            `json:"address"`
	TotalScore     uint64            `json:"total_score"`
	Tier           int               `json:"tier"`
	TierName       string            `json:"tier_name"`
	StreakDays     uint64            `json:"streak_days"`
	CategoryScores map[string]uint64 `json:"category_scores"`
}

// DashboardStats summarizes the whole ledger.
type DashboardStats struct {
	TotalUsers      int64   `json:"total_users"`
	TotalScore      uint64  `json:"total_score"`
	TotalActivities int64   `json:"total_activities"`
	AverageScore    float64 `json:"average_score"`
	TopCategory     string  `json:"top_category"`
}

// Leaderboard ranks records by total score, ties broken by mint order.
func (s *StatsService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	limit = LeaderboardLimit(limit)
	db := s.db.WithContext(ctx)

	var recs []models.Record
	if err := db.Order("total_score DESC").Order("id ASC").Limit(limit).Find(&recs).Error; err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return []LeaderboardEntry{}, nil
	}

	ids := make([]uint64, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	var rows []models.CategoryScore
	if err := db.Where("record_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byRecord := make(map[uint64]*scoring.Scores, len(recs))
	for _, id := range ids {
		byRecord[id] = &scoring.Scores{}
	}
	for _, row := range rows {
		if i := scoring.Category(row.Category).Index(); i >= 0 {
			byRecord[row.RecordID][i] = row.Score
		}
	}

	out := make([]LeaderboardEntry, len(recs))
	for i, r := range recs {
		out[i] = LeaderboardEntry{
			Rank:           i + 1,
			RecordID:       r.ID,
			Address:        r.Owner,
			TotalScore:     r.TotalScore,
			Tier:           r.CurrentTier,
			TierName:       s.tiers.Tier(r.CurrentTier).Name,
			StreakDays:     r.StreakDays,
			CategoryScores: byRecord[r.ID].Map(),
		}
	}
	return out, nil
}

// Dashboard computes the aggregate counters.
func (s *StatsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	var st DashboardStats

	if err := db.Model(&models.Record{}).Count(&st.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Activity{}).Count(&st.TotalActivities).Error; err != nil {
		return nil, err
	}

	type categorySum struct {
		Category string
		Total    uint64
	}
	var sums []categorySum
	if err := db.Model(&models.CategoryScore{}).
		Select("category, COALESCE(SUM(score), 0) AS total").
		Group("category").
		Scan(&sums).Error; err != nil {
		return nil, err
	}
	var perCategory scoring.Scores
	for _, cs := range sums {
		if i := scoring.Category(cs.Category).Index(); i >= 0 {
			perCategory[i] = cs.Total
		}
	}
	st.TotalScore = perCategory.CappedTotal()

	best := -1
	for i, v := range perCategory {
		if v > 0 && (best < 0 || v > perCategory[best]) {
			best = i
		}
	}
	if best >= 0 {
		st.TopCategory = string(scoring.Categories[best])
	}
	if st.TotalUsers > 0 {
		st.AverageScore = float64(st.TotalScore) / float64(st.TotalUsers)
	}
	return &st, nil
}
