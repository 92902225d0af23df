// Package sources implements the external selectors the sync orchestrators
// read from: test-completion tables for candidate intake and the certificate
// payment tables for purchase lookups. The ledger itself is never written
// from here.
package sources

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/testizer/funnel-sync-backend/internal/funnels"
	"github.com/testizer/funnel-sync-backend/pkg/enums"
)

// DefaultLookbackDays bounds how far back candidate intake scans for
// completed tests.
const DefaultLookbackDays = 30

// TestCandidateSource selects users who completed a test recently and have
// no ledger row yet. The LEFT JOIN against funnel_entries keeps re-runs from
// re-offering the same users.
type TestCandidateSource struct {
	db           *gorm.DB
	lookbackDays int
}

func NewTestCandidateSource(db *gorm.DB, lookbackDays int) *TestCandidateSource {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	return &TestCandidateSource{db: db, lookbackDays: lookbackDays}
}

func (s *TestCandidateSource) FetchCandidates(ctx context.Context, funnelType enums.FunnelType, limit int) ([]funnels.Candidate, error) {
	switch funnelType {
	case enums.FunnelLanguage:
		return s.fetchLanguageCandidates(ctx, limit)
	case enums.FunnelNonLanguage:
		// Non-language tests have no completion source yet.
		return nil, nil
	default:
		return nil, nil
	}
}

func (s *TestCandidateSource) fetchLanguageCandidates(ctx context.Context, limit int) ([]funnels.Candidate, error) {
	cutoff := time.Now().AddDate(0, 0, -s.lookbackDays)

	var rows []struct {
		UserID *int64 `gorm:"column:user_id"`
		TestID *int64 `gorm:"column:test_id"`
		Email  string `gorm:"column:email"`
	}
	err := s.db.WithContext(ctx).Raw(`
SELECT
  u.id AS user_id,
  u.test_id AS test_id,
  u.email AS email
FROM simpletest_users AS u
INNER JOIN simpletest_test AS t ON t.id = u.test_id
INNER JOIN simpletest_lang AS l ON l.id = t.lang_id
LEFT JOIN funnel_entries AS f
  ON f.email = u.email AND f.funnel_type = ?
WHERE u.email IS NOT NULL
  AND u.email <> ''
  AND u.datep >= ?
  AND f.id IS NULL
ORDER BY u.datep DESC
LIMIT ?`, enums.FunnelLanguage, cutoff, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	candidates := make([]funnels.Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, funnels.Candidate{
			UserID: row.UserID,
			TestID: row.TestID,
			Email:  row.Email,
		})
	}
	return candidates, nil
}
