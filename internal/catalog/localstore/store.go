package localstore

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/silmarabolos/storefront/internal/domain"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultKey is the storage key holding the serialized product array.
const DefaultKey = "localProducts"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store keeps the whole catalog as one JSON array under a single key.
// Mutations are read-modify-write without locking; concurrent writers race
// and the last SaveAll wins.
type Store struct {
	kv  KV
	key string
	now func() time.Time
}

// Option customizes a Store
type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithClock overrides the clock used for createdAt, updatedAt and ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(kv KV, opts ...Option) *Store {
	s := &Store{kv: kv, key: DefaultKey, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Name() string { return "local" }

// Load returns the stored products. A missing or empty collection is replaced
// by the seed set, which is written back so seed ids stay stable. Only the
// listing path seeds; single-record operations read the collection as stored.
func (s *Store) Load(ctx context.Context) ([]domain.Product, error) {
	products, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		products = seedProducts()
		if err := s.SaveAll(ctx, products); err != nil {
			return nil, err
		}
	}
	return products, nil
}

// read decodes the stored collection. A missing key reads as empty.
func (s *Store) read(ctx context.Context) ([]domain.Product, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, domain.Unavailable(s.Name(), "load", err)
	}
	var products []domain.Product
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &products); err != nil {
			return nil, domain.Unavailable(s.Name(), "decode", err)
		}
	}
	return products, nil
}

// SaveAll replaces the stored collection in one key write.
func (s *Store) SaveAll(ctx context.Context, products []domain.Product) error {
	if products == nil {
		products = []domain.Product{}
	}
	raw, err := json.Marshal(products)
	if err != nil {
		return domain.Unavailable(s.Name(), "encode", err)
	}
	if err := s.kv.Put(ctx, s.key, raw); err != nil {
		return domain.Unavailable(s.Name(), "save", err)
	}
	return nil
}

// List returns the products sorted by name with Portuguese collation.
func (s *Store) List(ctx context.Context) ([]domain.Product, error) {
	products, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	col := collate.New(language.BrazilianPortuguese)
	sort.SliceStable(products, func(i, j int) bool {
		return col.CompareString(products[i].Name, products[j].Name) < 0
	})
	return products, nil
}

func (s *Store) Get(ctx context.Context, id string) (domain.Product, error) {
	products, err := s.read(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	if i := indexOf(products, id); i >= 0 {
		return products[i], nil
	}
	return domain.Product{}, domain.ErrNotFound
}

func (s *Store) Create(ctx context.Context, in domain.ProductInput) (domain.Product, error) {
	products, err := s.read(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	now := s.now()
	p := domain.NewProduct(in)
	p.ID = newID(now)
	p.CreatedAt = now
	products = append(products, p)
	if err := s.SaveAll(ctx, products); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *Store) Update(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error) {
	products, err := s.read(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	i := indexOf(products, id)
	if i < 0 {
		return domain.Product{}, domain.ErrNotFound
	}
	patch.Apply(&products[i])
	now := s.now()
	products[i].UpdatedAt = &now
	if err := s.SaveAll(ctx, products); err != nil {
		return domain.Product{}, err
	}
	return products[i], nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	products, err := s.read(ctx)
	if err != nil {
		return err
	}
	i := indexOf(products, id)
	if i < 0 {
		return domain.ErrNotFound
	}
	products = append(products[:i], products[i+1:]...)
	return s.SaveAll(ctx, products)
}

func indexOf(products []domain.Product, id string) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}

// newID returns a base36 millisecond timestamp followed by a base36 random suffix.
func newID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 36) + strconv.FormatInt(rand.Int63(), 36)
}
