package remote

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/silmarabolos/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ProductsCollection is the collection name shared with the hosted storefront.
const ProductsCollection = "products"

type productDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Price       float64            `bson:"price"`
	Description string             `bson:"description"`
	Category    string             `bson:"category"`
	ImageURL    string             `bson:"imageURL"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   *time.Time         `bson:"updatedAt,omitempty"`
}

func (d productDocument) product() domain.Product {
	return domain.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Price:       d.Price,
		Description: d.Description,
		Category:    domain.Category(d.Category),
		ImageURL:    d.ImageURL,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

var bsonFields = map[string]string{
	"name":        "name",
	"price":       "price",
	"description": "description",
	"category":    "category",
	"image_url":   "imageURL",
}

// MongoStore keeps products in a MongoDB collection. Timestamps use $currentDate.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects, pings and ensures the name index.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "mongo ping")
	}
	s := &MongoStore{client: client, coll: client.Database(database).Collection(ProductsCollection)}
	_, err = s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "mongo create index")
	}
	return s, nil
}

func (s *MongoStore) Name() string { return "mongo" }

func (s *MongoStore) List(ctx context.Context) ([]domain.Product, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, s.wrap("list", err)
	}
	var docs []productDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, s.wrap("list", err)
	}
	items := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.product())
	}
	return items, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Product{}, domain.ErrNotFound
	}
	var doc productDocument
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return domain.Product{}, s.wrap("get", err)
	}
	return doc.product(), nil
}

func (s *MongoStore) Insert(ctx context.Context, p domain.Product) (domain.Product, error) {
	update := bson.M{
		"$set": bson.M{
			"name":        p.Name,
			"price":       p.Price,
			"description": p.Description,
			"category":    string(p.Category),
			"imageURL":    p.ImageURL,
		},
		"$currentDate": bson.M{"createdAt": true},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc productDocument
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": primitive.NewObjectID()}, update, opts).Decode(&doc)
	if err != nil {
		return domain.Product{}, s.wrap("insert", err)
	}
	return doc.product(), nil
}

func (s *MongoStore) Merge(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Product{}, domain.ErrNotFound
	}
	update := bson.M{"$currentDate": bson.M{"updatedAt": true}}
	if set := patch.Fields(func(field string) string { return bsonFields[field] }); len(set) > 0 {
		update["$set"] = set
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc productDocument
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return domain.Product{}, s.wrap("merge", err)
	}
	return doc.product(), nil
}

func (s *MongoStore) Remove(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return s.wrap("remove", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.wrap("ping", s.client.Ping(ctx, readpref.Primary()))
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	return domain.Unavailable("mongo", op, errors.WithStack(err))
}
