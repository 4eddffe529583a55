// Package directory is the Redis-backed registry of downstream records
// produced by lead conversion: contacts, requirements, listings, and
// investor profiles. Each collection is serialized whole under one key,
// matching the storage model of the lead collection.
package directory

import (
	"context"
	"encoding/json"
	"fmt"

	"agency_portal_backend/internal/conversion"

	"github.com/redis/go-redis/v9"
)

const (
	contactsKey  = "directory:contacts"
	buyerReqsKey = "directory:buyer_requirements"
	rentReqsKey  = "directory:rent_requirements"
	listingsKey  = "directory:listings"
	investorsKey = "directory:investors"
)

// RedisDirectory implements conversion.Directory on a shared Redis client.
type RedisDirectory struct {
	client *redis.Client
}

func NewRedisDirectory(client *redis.Client) *RedisDirectory {
	return &RedisDirectory{client: client}
}

func (d *RedisDirectory) ListContacts(ctx context.Context) ([]conversion.Contact, error) {
	var contacts []conversion.Contact
	if err := d.load(ctx, contactsKey, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

func (d *RedisDirectory) CreateContact(ctx context.Context, contact conversion.Contact) error {
	contacts, err := d.ListContacts(ctx)
	if err != nil {
		return err
	}
	return d.save(ctx, contactsKey, append(contacts, contact))
}

func (d *RedisDirectory) CreateBuyerRequirement(ctx context.Context, req conversion.BuyerRequirement) error {
	var reqs []conversion.BuyerRequirement
	if err := d.load(ctx, buyerReqsKey, &reqs); err != nil {
		return err
	}
	return d.save(ctx, buyerReqsKey, append(reqs, req))
}

func (d *RedisDirectory) CreateRentRequirement(ctx context.Context, req conversion.RentRequirement) error {
	var reqs []conversion.RentRequirement
	if err := d.load(ctx, rentReqsKey, &reqs); err != nil {
		return err
	}
	return d.save(ctx, rentReqsKey, append(reqs, req))
}

func (d *RedisDirectory) CreateListing(ctx context.Context, listing conversion.PropertyListing) error {
	var listings []conversion.PropertyListing
	if err := d.load(ctx, listingsKey, &listings); err != nil {
		return err
	}
	return d.save(ctx, listingsKey, append(listings, listing))
}

func (d *RedisDirectory) CreateInvestorProfile(ctx context.Context, profile conversion.InvestorProfile) error {
	var profiles []conversion.InvestorProfile
	if err := d.load(ctx, investorsKey, &profiles); err != nil {
		return err
	}
	return d.save(ctx, investorsKey, append(profiles, profile))
}

func (d *RedisDirectory) load(ctx context.Context, key string, out interface{}) error {
	raw, err := d.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (d *RedisDirectory) save(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := d.client.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

var _ conversion.Directory = (*RedisDirectory)(nil)
