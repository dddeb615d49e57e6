// internal/domain/cart/store.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists unpriced cart lines for one kind of owner
type Store interface {
	Items(ctx context.Context, owner Owner) ([]Item, error)
	// SetQuantity writes the quantity for a product; zero removes the line
	SetQuantity(ctx context.Context, owner Owner, productID uint, quantity int) error
	Clear(ctx context.Context, owner Owner) error
}

// PromoStore remembers the promo code applied to a cart
type PromoStore interface {
	AppliedCode(ctx context.Context, owner Owner) (string, error)
	SetAppliedCode(ctx context.Context, owner Owner, code string) error
	ClearAppliedCode(ctx context.Context, owner Owner) error
}

const maxWatchRetries = 5

// getter is satisfied by both *redis.Client and *redis.Tx
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore keeps guest carts as JSON documents under cart:session:<id>
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore creates a guest cart store
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

func (s *RedisStore) Items(ctx context.Context, owner Owner) ([]Item, error) {
	cart, err := s.load(ctx, s.client, owner.SessionID)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, Item{ProductID: item.ProductID, Quantity: item.Quantity, AddedAt: item.AddedAt})
	}
	return items, nil
}

// SetQuantity rewrites the session cart under WATCH so concurrent requests on
// the same session do not lose updates
func (s *RedisStore) SetQuantity(ctx context.Context, owner Owner, productID uint, quantity int) error {
	if owner.SessionID == "" {
		return fmt.Errorf("session ID required for guest cart")
	}
	key := cartKey(owner.SessionID)

	txf := func(tx *redis.Tx) error {
		cart, err := s.load(ctx, tx, owner.SessionID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		found := false
		for i := range cart.Items {
			if cart.Items[i].ProductID != productID {
				continue
			}
			if quantity == 0 {
				cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			} else {
				cart.Items[i].Quantity = quantity
			}
			found = true
			break
		}
		if !found && quantity > 0 {
			cart.Items = append(cart.Items, SessionCartItem{ProductID: productID, Quantity: quantity, AddedAt: now})
		}
		cart.UpdatedAt = now

		data, err := json.Marshal(cart)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(cart.Items) == 0 {
				pipe.Del(ctx, key)
				return nil
			}
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to save guest cart: %w", err)
		}
		return nil
	}
	return fmt.Errorf("failed to save guest cart: too much contention on %s", key)
}

func (s *RedisStore) Clear(ctx context.Context, owner Owner) error {
	return s.client.Del(ctx, cartKey(owner.SessionID)).Err()
}

func (s *RedisStore) load(ctx context.Context, c getter, sessionID string) (*SessionCart, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID required for guest cart")
	}

	cartData, err := c.Get(ctx, cartKey(sessionID)).Result()
	if err == redis.Nil {
		now := s.now().UTC()
		return &SessionCart{
			SessionID: sessionID,
			Items:     []SessionCartItem{},
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load guest cart: %w", err)
	}

	var cart SessionCart
	if err := json.Unmarshal([]byte(cartData), &cart); err != nil {
		return nil, fmt.Errorf("corrupt guest cart %s: %w", sessionID, err)
	}
	return &cart, nil
}

// GormStore keeps signed-in users' carts in the cart_items table
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a user cart store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Items(ctx context.Context, owner Owner) ([]Item, error) {
	if owner.UserID == nil {
		return nil, fmt.Errorf("user ID required for user cart")
	}
	var rows []CartItem
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", *owner.UserID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve user cart: %w", err)
	}
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, Item{ProductID: row.ProductID, Quantity: row.Quantity, AddedAt: row.CreatedAt})
	}
	return items, nil
}

func (s *GormStore) SetQuantity(ctx context.Context, owner Owner, productID uint, quantity int) error {
	if owner.UserID == nil {
		return fmt.Errorf("user ID required for user cart")
	}
	db := s.db.WithContext(ctx)
	if quantity == 0 {
		if err := db.Where("user_id = ? AND product_id = ?", *owner.UserID, productID).
			Delete(&CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to remove cart item: %w", err)
		}
		return nil
	}

	row := CartItem{UserID: *owner.UserID, ProductID: productID, Quantity: quantity}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to save cart item: %w", err)
	}
	return nil
}

func (s *GormStore) Clear(ctx context.Context, owner Owner) error {
	if owner.UserID == nil {
		return fmt.Errorf("user ID required for user cart")
	}
	if err := s.db.WithContext(ctx).Where("user_id = ?", *owner.UserID).Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// RedisPromoStore keeps the applied promo code under applied_promo:<owner>
type RedisPromoStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPromoStore creates an applied promo store
func NewRedisPromoStore(client *redis.Client, ttl time.Duration) *RedisPromoStore {
	return &RedisPromoStore{client: client, ttl: ttl}
}

func promoKey(owner Owner) string {
	return "applied_promo:" + owner.Key()
}

func (s *RedisPromoStore) AppliedCode(ctx context.Context, owner Owner) (string, error) {
	code, err := s.client.Get(ctx, promoKey(owner)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read applied promo: %w", err)
	}
	return code, nil
}

func (s *RedisPromoStore) SetAppliedCode(ctx context.Context, owner Owner, code string) error {
	return s.client.Set(ctx, promoKey(owner), code, s.ttl).Err()
}

func (s *RedisPromoStore) ClearAppliedCode(ctx context.Context, owner Owner) error {
	return s.client.Del(ctx, promoKey(owner)).Err()
}
