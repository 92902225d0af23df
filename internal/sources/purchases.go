package sources

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/testizer/funnel-sync-backend/internal/funnels"
	"github.com/testizer/funnel-sync-backend/pkg/enums"
)

// Certificate payment rows with id_status 2 are fully paid.
const paymentStatusPaid = 2

// certTestType maps a funnel to the certificate test type it sells.
var certTestType = map[enums.FunnelType]int{
	enums.FunnelLanguage:    1,
	enums.FunnelNonLanguage: 2,
}

// CertPaymentSource looks up completed certificate purchases in the payment
// tables. Matching is by email and test type; the oldest paid purchase wins.
type CertPaymentSource struct {
	db *gorm.DB
}

func NewCertPaymentSource(db *gorm.DB) *CertPaymentSource {
	return &CertPaymentSource{db: db}
}

func (s *CertPaymentSource) FetchPurchase(ctx context.Context, email string, funnelType enums.FunnelType) (*funnels.Purchase, error) {
	testType, ok := certTestType[funnelType]
	if !ok {
		return nil, fmt.Errorf("no certificate test type for funnel %q", funnelType)
	}

	var rows []struct {
		OrderID     int64      `gorm:"column:order_id"`
		PurchasedAt *time.Time `gorm:"column:purchased_at"`
	}
	err := s.db.WithContext(ctx).Raw(`
SELECT
  p.id AS order_id,
  p.datetime_payment AS purchased_at
FROM modx_cert_payment AS p
INNER JOIN modx_cert_result AS r ON r.id = p.id_result
INNER JOIN modx_cert_users AS u ON u.id = r.id_user
INNER JOIN modx_cert_test AS t ON t.id = r.id_test
WHERE u.email = ?
  AND p.id_status = ?
  AND p.datetime_payment IS NOT NULL
  AND t.type = ?
ORDER BY p.datetime_payment ASC
LIMIT 1`, email, paymentStatusPaid, testType).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	purchase := funnels.Purchase{OrderID: rows[0].OrderID}
	if rows[0].PurchasedAt != nil {
		purchase.PurchasedAt = *rows[0].PurchasedAt
	}
	return &purchase, nil
}
