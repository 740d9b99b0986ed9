package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoCollection is the collection name used by the Mongo store
const MongoCollection = "accounts"

type mongoAccount struct {
	ID                   string    `bson:"_id"`
	Name                 string    `bson:"name"`
	Email                string    `bson:"email"`
	Phone                string    `bson:"phone"`
	Address              string    `bson:"address"`
	PasswordHash         string    `bson:"password"`
	IdentificationType   string    `bson:"identificationType"`
	IdentificationNumber string    `bson:"identificationNumber"`
	Balance              string    `bson:"balance"`
	MoneySend            string    `bson:"moneySend"`
	MoneyReceived        string    `bson:"moneyReceived"`
	RequestReceived      string    `bson:"requestReceived"`
	IsAdmin              bool      `bson:"isAdmin"`
	IsVerified           bool      `bson:"isVerified"`
	Image                string    `bson:"image,omitempty"`
	CreatedAt            time.Time `bson:"createdAt"`
	UpdatedAt            time.Time `bson:"updatedAt"`
}

// Mongo is the MongoDB account store
type Mongo struct {
	collection *mongo.Collection
}

// NewMongo uses the accounts collection of db
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{collection: db.Collection(MongoCollection)}
}

// EnsureIndexes creates the unique email index the store relies on
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("accounts_email_key"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (m *Mongo) Insert(ctx context.Context, acc *Account) (*Account, error) {
	cp := *acc
	cp.ID = uuid.NewString()
	now := time.Now().UTC().Truncate(time.Millisecond)
	cp.CreatedAt = now
	cp.UpdatedAt = now

	if _, err := m.collection.InsertOne(ctx, toMongo(&cp)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return &cp, nil
}

func (m *Mongo) FindByID(ctx context.Context, id string) (*Account, error) {
	return m.findBy(ctx, "_id", id)
}

func (m *Mongo) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return m.findBy(ctx, "email", email)
}

func (m *Mongo) findBy(ctx context.Context, key, val string) (*Account, error) {
	var doc mongoAccount
	err := m.collection.FindOne(ctx, bson.M{key: val}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account by %s: %w", key, err)
	}
	return fromMongo(doc), nil
}

func (m *Mongo) Update(ctx context.Context, id string, changes Changes) (*Account, error) {
	set := mongoSet(changes)
	set["updatedAt"] = time.Now().UTC().Truncate(time.Millisecond)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc mongoAccount
	err := m.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, ErrAccountNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	return fromMongo(doc), nil
}

func (m *Mongo) ListExcluding(ctx context.Context, id string) ([]*Account, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := m.collection.Find(ctx, bson.M{"_id": bson.M{"$ne": id}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	var docs []mongoAccount
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}

	accounts := make([]*Account, 0, len(docs))
	for _, doc := range docs {
		accounts = append(accounts, fromMongo(doc))
	}
	return accounts, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.collection.Database().Client().Ping(ctx, nil)
}

func mongoSet(c Changes) bson.M {
	set := bson.M{}
	if c.Name != nil {
		set["name"] = *c.Name
	}
	if c.Email != nil {
		set["email"] = *c.Email
	}
	if c.Phone != nil {
		set["phone"] = *c.Phone
	}
	if c.Address != nil {
		set["address"] = *c.Address
	}
	if c.PasswordHash != nil {
		set["password"] = *c.PasswordHash
	}
	if c.IsVerified != nil {
		set["isVerified"] = *c.IsVerified
	}
	if c.Image != nil {
		set["image"] = *c.Image
	}
	return set
}

func toMongo(a *Account) mongoAccount {
	return mongoAccount{
		ID:                   a.ID,
		Name:                 a.Name,
		Email:                a.Email,
		Phone:                a.Phone,
		Address:              a.Address,
		PasswordHash:         a.PasswordHash,
		IdentificationType:   a.IdentificationType,
		IdentificationNumber: a.IdentificationNumber,
		Balance:              a.Balance.String(),
		MoneySend:            a.MoneySend.String(),
		MoneyReceived:        a.MoneyReceived.String(),
		RequestReceived:      a.RequestReceived.String(),
		IsAdmin:              a.IsAdmin,
		IsVerified:           a.IsVerified,
		Image:                a.Image,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}

func fromMongo(d mongoAccount) *Account {
	return &Account{
		ID:                   d.ID,
		Name:                 d.Name,
		Email:                d.Email,
		Phone:                d.Phone,
		Address:              d.Address,
		PasswordHash:         d.PasswordHash,
		IdentificationType:   d.IdentificationType,
		IdentificationNumber: d.IdentificationNumber,
		Balance:              parseAmount(d.Balance),
		MoneySend:            parseAmount(d.MoneySend),
		MoneyReceived:        parseAmount(d.MoneyReceived),
		RequestReceived:      parseAmount(d.RequestReceived),
		IsAdmin:              d.IsAdmin,
		IsVerified:           d.IsVerified,
		Image:                d.Image,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
}

// parseAmount treats a missing or unparsable amount as zero
func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
