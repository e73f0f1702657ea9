// dao/unique_attribute_dao.go
package dao

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	logger "github.com/datakaveri/dx-resource-server-sub002/logging"
)

// UniqueAttributeDAO reads operator-defined unique-attribute overrides from
// the durable store. The latest-data read path groups measurements by this
// attribute instead of the default one when an override exists.
type UniqueAttributeDAO struct {
	Driver neo4j.Driver
}

func NewUniqueAttributeDAO(driver neo4j.Driver) *UniqueAttributeDAO {
	return &UniqueAttributeDAO{Driver: driver}
}

// LoadAll scans every override, keyed by resource id.
func (dao *UniqueAttributeDAO) LoadAll(ctx context.Context) (map[string]string, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(tx neo4j.Transaction) (interface{}, error) {
		overrides := make(map[string]string)

		res, err := tx.Run(`
        MATCH (a:UniqueAttribute)
        RETURN a.resourceId AS resourceId, a.attribute AS attribute`, nil)
		if err != nil {
			return nil, err
		}

		for res.Next() {
			rec := res.Record()
			resourceID, _ := rec.Get("resourceId")
			attribute, _ := rec.Get("attribute")

			idStr, idOK := resourceID.(string)
			attrStr, attrOK := attribute.(string)
			if !idOK || !attrOK || attrStr == "" {
				continue
			}
			overrides[idStr] = attrStr
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return overrides, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unique attributes: %w", err)
	}

	overrides := result.(map[string]string)
	logger.Debug("Fetched unique attributes", zap.Int("count", len(overrides)))
	return overrides, nil
}

// LoadOne fetches the override for a single resource id.
func (dao *UniqueAttributeDAO) LoadOne(ctx context.Context, resourceID string) (string, bool, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(tx neo4j.Transaction) (interface{}, error) {
		res, err := tx.Run(`
        MATCH (a:UniqueAttribute {resourceId: $resourceId})
        RETURN a.attribute AS attribute
        LIMIT 1`, map[string]interface{}{"resourceId": resourceID})
		if err != nil {
			return nil, err
		}

		if res.Next() {
			attribute, _ := res.Record().Get("attribute")
			if attrStr, ok := attribute.(string); ok {
				return attrStr, res.Err()
			}
		}
		return "", res.Err()
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to look up unique attribute for %s: %w", resourceID, err)
	}

	attr := result.(string)
	return attr, attr != "", nil
}
