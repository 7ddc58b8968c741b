package codec

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/entity"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
)

const DefaultCacheSize = 256

// Cache memoizes BCS decodes. An object's contents are immutable at a given version, so
// entries are keyed by id@version and never invalidated. Callers still fetch the object to
// learn its current version; a hit only skips the decode.
type Cache struct {
	cache *lru.Cache
}

func NewCache(size int) (*Cache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create decode cache: %w", err)
	}
	return &Cache{cache: c}, nil
}

func cacheKey(kind string, id sui.ObjectID, version uint64) string {
	return fmt.Sprintf("%s:%s@%d", kind, id, version)
}

func (that *Cache) Game(id sui.ObjectID, version uint64, raw []byte) (*entity.Game, error) {
	key := cacheKey("game", id, version)
	if v, ok := that.cache.Get(key); ok {
		game := v.(entity.Game)
		return &game, nil
	}

	game, err := DecodeGameBCS(raw)
	if err != nil {
		return nil, err
	}
	that.cache.Add(key, *game)
	return game, nil
}

func (that *Cache) Mark(id sui.ObjectID, version uint64, raw []byte) (*entity.Mark, error) {
	key := cacheKey("mark", id, version)
	if v, ok := that.cache.Get(key); ok {
		return copyMark(v.(entity.Mark)), nil
	}

	mark, err := DecodeMarkBCS(raw)
	if err != nil {
		return nil, err
	}
	that.cache.Add(key, *copyMark(*mark))
	return mark, nil
}

func (that *Cache) GasCoin(id sui.ObjectID, version uint64, raw []byte) (uint64, error) {
	key := cacheKey("coin", id, version)
	if v, ok := that.cache.Get(key); ok {
		return v.(uint64), nil
	}

	value, err := DecodeGasCoinBCS(raw)
	if err != nil {
		return 0, err
	}
	that.cache.Add(key, value)
	return value, nil
}

func (that *Cache) Len() int {
	return that.cache.Len()
}

func copyMark(mark entity.Mark) *entity.Mark {
	if mark.Placement != nil {
		placement := *mark.Placement
		mark.Placement = &placement
	}
	return &mark
}
