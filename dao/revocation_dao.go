// dao/revocation_dao.go
package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	logger "github.com/datakaveri/dx-resource-server-sub002/logging"
	"github.com/datakaveri/dx-resource-server-sub002/model"
	helper_util "github.com/datakaveri/dx-resource-server-sub002/util/helper"
)

// RevocationDAO reads revocation records from the durable store. Records are
// written only by the admin revoke-token operation, which lives outside this
// server.
type RevocationDAO struct {
	Driver neo4j.Driver
}

func NewRevocationDAO(driver neo4j.Driver) *RevocationDAO {
	return &RevocationDAO{Driver: driver}
}

// FetchAll scans every revocation record. The store keeps at most one record
// per subject; a re-revocation overwrites the timestamp.
func (dao *RevocationDAO) FetchAll(ctx context.Context) ([]model.RevocationRecord, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(tx neo4j.Transaction) (interface{}, error) {
		var records []model.RevocationRecord

		res, err := tx.Run(`
        MATCH (t:RevokedToken)
        RETURN t.subject AS subject, t.revokedAt AS revokedAt`, nil)
		if err != nil {
			return nil, err
		}

		for res.Next() {
			rec := res.Record()
			subject, _ := rec.Get("subject")
			revokedAt, _ := rec.Get("revokedAt")

			subjectStr, ok := subject.(string)
			if !ok {
				continue
			}
			ts, err := helper_util.ParseNullableTime(revokedAt)
			if err != nil || ts == nil {
				logger.Warn("Skipping revocation record with unparseable timestamp",
					zap.String("subject", subjectStr))
				continue
			}
			records = append(records, model.RevocationRecord{Subject: subjectStr, RevokedAt: *ts})
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return records, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch revocation records: %w", err)
	}

	records := result.([]model.RevocationRecord)
	logger.Debug("Fetched revocation records", zap.Int("count", len(records)))
	return records, nil
}

// Lookup returns the revocation timestamp for a single subject, if any.
func (dao *RevocationDAO) Lookup(ctx context.Context, subject string) (time.Time, bool, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(tx neo4j.Transaction) (interface{}, error) {
		res, err := tx.Run(`
        MATCH (t:RevokedToken {subject: $subject})
        RETURN t.revokedAt AS revokedAt
        LIMIT 1`, map[string]interface{}{"subject": subject})
		if err != nil {
			return nil, err
		}

		if res.Next() {
			revokedAt, _ := res.Record().Get("revokedAt")
			ts, err := helper_util.ParseNullableTime(revokedAt)
			if err != nil {
				return nil, err
			}
			return ts, res.Err()
		}
		return (*time.Time)(nil), res.Err()
	})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to look up revocation for %s: %w", subject, err)
	}

	ts := result.(*time.Time)
	if ts == nil {
		return time.Time{}, false, nil
	}
	return *ts, true, nil
}
