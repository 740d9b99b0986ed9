package account

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestMongoDocumentRoundTrip(t *testing.T) {
	acc := newTestAccount("a@x.com")
	acc.ID = "id-1"
	acc.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	acc.UpdatedAt = acc.CreatedAt

	raw, err := bson.Marshal(toMongo(acc))
	assert.NoError(t, err)

	var doc mongoAccount
	assert.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, "id-1", doc.ID)
	assert.Equal(t, "$2a$10$hash", doc.PasswordHash)
	assert.Equal(t, "10.5", doc.Balance)

	back := fromMongo(doc)
	assert.Equal(t, acc.Email, back.Email)
	assert.True(t, back.Balance.Equal(acc.Balance))
	assert.True(t, back.CreatedAt.Equal(acc.CreatedAt))
}

func TestMongoSet(t *testing.T) {
	verified := true
	set := mongoSet(Changes{Email: strPtr("b@x.com"), PasswordHash: strPtr("h"), IsVerified: &verified})

	assert.Equal(t, bson.M{"email": "b@x.com", "password": "h", "isVerified": true}, set)
	assert.Empty(t, mongoSet(Changes{}))
}

func TestParseAmount(t *testing.T) {
	assert.True(t, parseAmount("").Equal(decimal.Zero))
	assert.True(t, parseAmount("garbage").Equal(decimal.Zero))
	assert.True(t, parseAmount("3.25").Equal(decimal.RequireFromString("3.25")))
}
