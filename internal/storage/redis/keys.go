package redis

import (
	"fmt"

	"github.com/openbnet/presence/internal/model"
)

// Key prefix for all identity data
const keyPrefix = "bnet"

// Key generation functions for each record type

// accountKey returns the Redis key for an Account record
func accountKey(id model.AccountID) string {
	return fmt.Sprintf("%s:account:%d", keyPrefix, uint64(id))
}

// tagIndexKey returns the Redis key for the battle-tag -> account-id index
func tagIndexKey(tag string) string {
	return fmt.Sprintf("%s:idx:tag:%s", keyPrefix, tag)
}

// linkKey returns the Redis key for a game-account -> account link
func linkKey(id model.GameAccountID) string {
	return fmt.Sprintf("%s:link:%d", keyPrefix, uint64(id))
}

// ownerLinksKey returns the Redis key for the SET of game accounts owned by an account
func ownerLinksKey(id model.AccountID) string {
	return fmt.Sprintf("%s:idx:links_for_account:%d", keyPrefix, uint64(id))
}

// sequenceKey returns the Redis key for the sequential id watermark
func sequenceKey() string {
	return fmt.Sprintf("%s:idseq", keyPrefix)
}
