package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestListFilterQueryEmpty(t *testing.T) {
	assert.Equal(t, bson.M{}, ListFilter{}.Query())
}

func TestListFilterQueryCombinesPredicates(t *testing.T) {
	filter := ListFilter{
		OwnerID:           "user123",
		Status:            StatusActive,
		ContentTypePrefix: "image/",
		Tags:              []string{"beach", "vacation"},
	}

	query := filter.Query()

	assert.Equal(t, "user123", query["owner_id"])
	assert.Equal(t, StatusActive, query["status"])
	assert.Equal(t, bson.M{"$regex": "^image/", "$options": "i"}, query["content_type"])
	assert.Equal(t, bson.M{"$in": []string{"beach", "vacation"}}, query["tags"])
}

func TestListFilterQueryEscapesRegexMeta(t *testing.T) {
	// "image/" contains no meta characters, but a hostile prefix must not
	// become a wildcard match
	query := ListFilter{ContentTypePrefix: "image/x.y+z"}.Query()

	re := query["content_type"].(bson.M)["$regex"].(string)
	assert.Equal(t, `^image/x\.y\+z`, re)
}
