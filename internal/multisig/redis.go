package multisig

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/coinpurse/wallet-sim/internal/ledger"
)

const (
	proposalKeyPrefix = "prop:"
	walletIndexPrefix = "prop:wallet:"
	liveIndexKey      = "prop:live"
	lockKeyPrefix     = "prop:lock:"
)

// RedisStore persists proposals as JSON values with a TTL, so stale
// records age out on their own. Index sets track per-wallet and live
// proposals.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, p *PendingApproval) error {
	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshal proposal")
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, proposalKeyPrefix+p.ID, data, s.ttl)
	walletKey := walletIndexPrefix + p.Draft.Sender
	pipe.SAdd(ctx, walletKey, p.ID)
	pipe.Expire(ctx, walletKey, s.ttl)
	if p.Open() {
		pipe.SAdd(ctx, liveIndexKey, p.ID)
	} else {
		pipe.SRem(ctx, liveIndexKey, p.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "save proposal")
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*PendingApproval, error) {
	data, err := s.client.Get(ctx, proposalKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ledger.ErrProposalNotFound
		}
		return nil, errors.Wrap(err, "get proposal")
	}

	var p PendingApproval
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "unmarshal proposal")
	}
	return &p, nil
}

func (s *RedisStore) ForWallet(ctx context.Context, address string) ([]*PendingApproval, error) {
	ids, err := s.client.SMembers(ctx, walletIndexPrefix+address).Result()
	if err != nil {
		return nil, errors.Wrap(err, "list wallet proposals")
	}
	return s.collect(ctx, walletIndexPrefix+address, ids)
}

func (s *RedisStore) Live(ctx context.Context) ([]*PendingApproval, error) {
	ids, err := s.client.SMembers(ctx, liveIndexKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "list live proposals")
	}
	all, err := s.collect(ctx, liveIndexKey, ids)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, p := range all {
		if p.Open() {
			out = append(out, p)
		}
	}
	return out, nil
}

// collect fetches proposals by ID, dropping index entries whose
// payload key has already expired.
func (s *RedisStore) collect(ctx context.Context, indexKey string, ids []string) ([]*PendingApproval, error) {
	out := make([]*PendingApproval, 0, len(ids))
	for _, id := range ids {
		p, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ledger.ErrProposalNotFound) {
				s.client.SRem(ctx, indexKey, id)
				continue
			}
			return nil, err
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// AcquireLock takes a short-lived per-proposal lock so concurrent
// approvals from separate processes serialize their read-modify-write.
func (s *RedisStore) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, lockKeyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "acquire proposal lock")
	}
	return ok, nil
}

func (s *RedisStore) ReleaseLock(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, lockKeyPrefix+key).Err(); err != nil {
		return errors.Wrap(err, "release proposal lock")
	}
	return nil
}
